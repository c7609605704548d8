package core

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/reddot/core/agg"
	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/internal/metrics"
	"github.com/huangsam/reddot/schema"
)

// Counter walks a directory tree and summarizes the red dots of every qualifying file.
// It is single-threaded: one file and one frame are in flight at any time.
type Counter struct {
	cfg      *contract.Config
	decoder  contract.FrameDecoder
	writer   contract.ResultWriter
	cache    contract.CacheStore   // nil disables the count cache
	history  contract.HistoryStore // nil disables run history
	recorder *metrics.Recorder     // nil records nothing
	out      io.Writer

	runStamp string              // Computed once so every CSV of a run shares it
	csvNames map[string]struct{} // Output directory names taken by this run
	runID    int64
}

// NewCounter wires a counter for one run. The manager may be nil.
func NewCounter(cfg *contract.Config, decoder contract.FrameDecoder, writer contract.ResultWriter, mgr contract.CacheManager, recorder *metrics.Recorder) *Counter {
	c := &Counter{
		cfg:      cfg,
		decoder:  decoder,
		writer:   writer,
		recorder: recorder,
		out:      os.Stdout,
	}
	if mgr != nil {
		c.cache = mgr.GetCountStore()
		c.history = mgr.GetHistoryStore()
	}
	return c
}

// Run counts the whole tree rooted at cfg.InputPath.
func (c *Counter) Run(ctx context.Context) (*schema.RunResult, error) {
	start := time.Now()
	if shouldSuppressHeader(ctx) {
		c.out = io.Discard
	}
	c.runStamp = start.Format(schema.RunTimeLayout)

	if c.cfg.OutputDir != "" && !c.cfg.SkipCSV {
		if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create output directory %s: %v", contract.ErrWrite, c.cfg.OutputDir, err)
		}
	}

	c.beginHistory(start)

	result := &schema.RunResult{
		Root:        c.cfg.InputPath,
		StartedAt:   start,
		Directories: []schema.DirectorySummary{},
	}
	if err := c.walk(ctx, c.cfg.InputPath, result); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)

	c.endHistory(result)
	if err := c.recorder.WriteTextfile(c.cfg.MetricsFile); err != nil {
		contract.LogWarn("Failed to write metrics file", err)
	}
	return result, nil
}

// walk handles the qualifying files of dir first, then descends into its subdirectories in lexical order.
func (c *Counter) walk(ctx context.Context, dir string, result *schema.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if dir == c.cfg.InputPath {
			return fmt.Errorf("failed to read directory %s: %w", dir, err)
		}
		contract.LogWarn("Skipping unreadable directory "+dir, err)
		return nil
	}

	var files, subdirs []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			subdirs = append(subdirs, full)
		case !contract.IsQualifyingFile(entry.Name()):
			continue
		case entry.Type().IsRegular():
			files = append(files, full)
		case entry.Type()&fs.ModeSymlink != 0:
			// Follow links to files, never to directories
			if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
				files = append(files, full)
			}
		}
	}

	if len(files) > 0 {
		summary, err := c.processDirectory(ctx, dir, files)
		if err != nil {
			return err
		}
		result.Directories = append(result.Directories, summary)
		result.TotalFiles += len(files)
		for _, row := range summary.Rows {
			result.TotalFrames += row.FrameCount
			result.TotalRed += row.RedDotCount
		}
	}

	for _, sub := range subdirs {
		if err := c.walk(ctx, sub, result); err != nil {
			return err
		}
	}
	return nil
}

// processDirectory counts the files of one directory, summarizes them and writes the CSV right away.
func (c *Counter) processDirectory(ctx context.Context, dir string, files []string) (schema.DirectorySummary, error) {
	records := make([]schema.FileRecord, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return schema.DirectorySummary{}, err
		}
		record, err := c.countFile(ctx, path)
		if err != nil {
			return schema.DirectorySummary{}, err
		}
		records = append(records, record)
	}

	rows, mismatches := agg.Summarize(records, c.cfg.NameFallback)
	agg.LogMismatches(dir, mismatches, len(records), c.cfg.NameFallback)

	summary := schema.DirectorySummary{
		Directory:      dir,
		NameMismatches: mismatches,
		Rows:           rows,
	}

	if !c.cfg.SkipCSV {
		csvPath := c.csvPath(dir)
		if err := c.writer.WriteSummary(csvPath, rows); err != nil {
			return schema.DirectorySummary{}, err
		}
		c.recorder.CSVWritten()
		summary.CSVPath = csvPath
		_, _ = fmt.Fprintf(c.out, "✅ CSV saved: %s\n", csvPath)
	}

	if c.history != nil && c.runID > 0 {
		if err := c.history.RecordSummaryRows(c.runID, dir, rows); err != nil {
			contract.LogWarn("Failed to record history for "+dir, err)
		}
	}
	return summary, nil
}

// countFile returns the record of one file, consulting the count cache when it is enabled.
func (c *Counter) countFile(ctx context.Context, path string) (schema.FileRecord, error) {
	start := time.Now()

	var key string
	if c.cache != nil {
		if info, err := os.Stat(path); err == nil {
			key = generateCacheKey(path, info, c.cfg.RedRule)
			if cached := checkCacheHit(c.cache, key); cached != nil {
				c.recorder.CacheLookup(true)
				c.recorder.ObserveFile(*cached, time.Since(start))
				_, _ = fmt.Fprintf(c.out, "♻️  Cached file: %s (%d frames, red dots: %d)\n",
					cached.FileName, len(cached.Frames), cached.TotalRedDotCount)
				return *cached, nil
			}
			c.recorder.CacheLookup(false)
		}
	}

	record, err := ProcessFile(ctx, c.decoder, path, c.cfg.RedRule, c.out)
	if err != nil {
		return schema.FileRecord{}, err
	}
	c.recorder.ObserveFile(record, time.Since(start))

	if key != "" {
		storeRecord(c.cache, key, record)
	}
	return record, nil
}

// csvPath returns where the summary of dir is written.
// Without an output directory the CSV sits next to the sources. With one, every CSV of the run
// shares the run timestamp and nested directories append their relative path.
// Paths such as a_b and a/b flatten to the same name, so later ones get a numeric suffix.
func (c *Counter) csvPath(dir string) string {
	if c.cfg.OutputDir == "" {
		return filepath.Join(dir, schema.SummaryFileName)
	}

	base := schema.RunFilePrefix + c.runStamp
	if rel, err := filepath.Rel(c.cfg.InputPath, dir); err == nil && rel != "." {
		base += "_" + strings.ReplaceAll(rel, string(filepath.Separator), "_")
	}

	if c.csvNames == nil {
		c.csvNames = make(map[string]struct{})
	}
	name := base
	for n := 2; ; n++ {
		if _, taken := c.csvNames[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
	if name != base {
		contract.LogWarn("Output name collision for "+dir, fmt.Errorf("%s.csv already written in this run, using %s.csv", base, name))
	}
	c.csvNames[name] = struct{}{}
	return filepath.Join(c.cfg.OutputDir, name+".csv")
}

// beginHistory opens a history run when a history store is configured.
func (c *Counter) beginHistory(start time.Time) {
	if c.history == nil {
		return
	}
	configParams := map[string]any{
		"root":          c.cfg.InputPath,
		"output_dir":    c.cfg.OutputDir,
		"name_fallback": string(c.cfg.NameFallback),
		"red_rule":      c.cfg.RedRule.String(),
	}
	runID, err := c.history.BeginRun(start, configParams)
	if err != nil {
		contract.LogWarn("Run history initialization failed", err)
		return
	}
	c.runID = runID
}

// endHistory finalizes the history run.
func (c *Counter) endHistory(result *schema.RunResult) {
	if c.history == nil || c.runID <= 0 {
		return
	}
	if err := c.history.EndRun(c.runID, time.Now(), result.TotalFiles, len(result.Directories)); err != nil {
		contract.LogWarn("Failed to finalize run history", err)
	}
}

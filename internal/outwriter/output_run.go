package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/internal/parquet"
	"github.com/huangsam/reddot/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// runHeader is the column order of the run-level CSV output.
var runHeader = []string{
	"directory",
	"file_name",
	"datetime",
	"number",
	"red_dot_count",
	"incubation_hour",
	"frame_count",
}

// PrintRunResult outputs the run result, dispatching based on the output format configured.
func PrintRunResult(result *schema.RunResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForRun(w, result)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteSummaryRowsParquet(parquet.ConvertRunResult(result), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		if err := printRunTable(os.Stdout, result, cfg, fmtFloat, intFmt, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// writeCSVResultsForRun writes one CSV row per summarized file across all directories.
func writeCSVResultsForRun(w io.Writer, result *schema.RunResult) error {
	return writeCSVWithHeader(w, runHeader, func(cw *csv.Writer) error {
		for _, dir := range result.Directories {
			for _, row := range dir.Rows {
				record := []string{
					dir.Directory,
					row.FileName,
					FormatDatetime(row.Timestamp),
					FormatNumber(row.Number),
					strconv.Itoa(row.RedDotCount),
					FormatIncubationHour(row.ElapsedHours),
					strconv.Itoa(row.FrameCount),
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// printRunTable prints every summarized file grouped by directory using the tablewriter API.
func printRunTable(out io.Writer, result *schema.RunResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(out)

	// 1. Define Headers
	table.Header([]string{"Directory", "File", "Datetime", "Number", "Red Dots", "Hours", "Frames"})

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Prepare Data Rows
	width := GetMaxTablePathWidth(cfg)
	var data [][]string
	for _, dir := range result.Directories {
		dirLabel := relativeDir(result.Root, dir.Directory)
		for _, row := range dir.Rows {
			count := fmt.Sprintf(intFmt, row.RedDotCount)
			if cfg.UseColors {
				count = contract.ColorCount(row.RedDotCount)
			}
			hours := ""
			if row.ElapsedHours != nil {
				hours = fmtFloat(*row.ElapsedHours)
			}
			data = append(data, []string{
				contract.TruncatePath(dirLabel, width),
				contract.TruncatePath(row.FileName, width),
				FormatDatetime(row.Timestamp),
				FormatNumber(row.Number),
				count,
				hours,
				fmt.Sprintf(intFmt, row.FrameCount),
			})
		}
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Counted %d files (%d frames, %d red dots) in %d directories\n",
		result.TotalFiles, result.TotalFrames, result.TotalRed, len(result.Directories))
	_, _ = fmt.Fprintf(out, "Run completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return nil
}

// relativeDir shows dir relative to root, or "." for the root itself.
func relativeDir(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return dir
	}
	return rel
}

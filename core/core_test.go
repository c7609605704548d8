package core

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/internal/metrics"
	"github.com/huangsam/reddot/internal/outwriter"
	"github.com/huangsam/reddot/internal/tiffx"
	"github.com/huangsam/reddot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redFrame returns an 8x8 frame whose first red pixels are pure red and the rest transparent black.
func redFrame(red int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range red {
		img.SetNRGBA(i%8, i/8, color.NRGBA{R: 255, A: 255})
	}
	return img
}

// writeTIFF writes a multi-page TIFF with one page per red count.
func writeTIFF(t *testing.T, path string, reds ...int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	pages := make([]image.Image, 0, len(reds))
	for _, n := range reds {
		pages = append(pages, redFrame(n))
	}
	require.NoError(t, tiffx.WriteFile(path, pages, schema.DeflateCompression))
}

func testConfig(root string) *contract.Config {
	return &contract.Config{
		InputPath:    root,
		Output:       schema.TextOut,
		Precision:    contract.DefaultPrecision,
		RedRule:      schema.DefaultRedRule(),
		NameFallback: schema.FileFallback,
		CacheBackend: schema.NoneBackend,
	}
}

func newTestCounter(cfg *contract.Config) *Counter {
	c := NewCounter(cfg, tiffx.NewDecoder(), outwriter.NewOutWriter(), nil, nil)
	c.out = &bytes.Buffer{}
	return c
}

func TestCountEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeTIFF(t, filepath.Join(root, "002_20240101_010000.tif"), 7)
	writeTIFF(t, filepath.Join(root, "001_20240101_000000.tif"), 3)

	result, err := newTestCounter(testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, schema.SummaryFileName))
	require.NoError(t, err)
	expected := "Datetime,Number,Red Dot Count,incubation hour\n" +
		"2024-01-01 00:00:00,1,3,0.0\n" +
		"2024-01-01 01:00:00,2,7,1.0\n"
	assert.Equal(t, expected, string(content))

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 2, result.TotalFrames)
	assert.Equal(t, 10, result.TotalRed)
	require.Len(t, result.Directories, 1)
	assert.Equal(t, filepath.Join(root, schema.SummaryFileName), result.Directories[0].CSVPath)
}

func TestCountMultiFrameTotal(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "003_20240115_083000.tiff")
	writeTIFF(t, path, 0, 5, 12)

	var out bytes.Buffer
	record, err := ProcessFile(context.Background(), tiffx.NewDecoder(), path, schema.DefaultRedRule(), &out)
	require.NoError(t, err)

	assert.Equal(t, "003_20240115_083000.tiff", record.FileName)
	assert.Equal(t, 17, record.TotalRedDotCount)
	require.Len(t, record.Frames, 3)
	for i, want := range []int{0, 5, 12} {
		assert.Equal(t, i, record.Frames[i].Index)
		assert.Equal(t, want, record.Frames[i].Count)
		assert.Equal(t, 8, record.Frames[i].Width)
		assert.Equal(t, "nrgba8", record.Frames[i].Layout)
	}

	assert.Contains(t, out.String(), "🔎 Processing file: 003_20240115_083000.tiff")
	assert.Contains(t, out.String(), "Frame 2: 8x8 nrgba8, red dots: 12")
	assert.Contains(t, out.String(), "Loaded 3 frames, total red dots: 17")
}

func TestCountZeroFrameFile(t *testing.T) {
	root := t.TempDir()
	header := []byte{'I', 'I', 42, 0, 0, 0, 0, 0}
	require.NoError(t, os.WriteFile(filepath.Join(root, "001_20240101_000000.tif"), header, 0o644))

	_, err := newTestCounter(testConfig(root)).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrDecode)

	_, statErr := os.Stat(filepath.Join(root, schema.SummaryFileName))
	assert.True(t, os.IsNotExist(statErr), "no CSV is written for a failed directory")
}

func TestCountUnsupportedLayout(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "001_20240101_000000.tif")
	require.NoError(t, tiffx.WriteFile(path, []image.Image{image.NewGray(image.Rect(0, 0, 4, 4))}, schema.NoCompression))

	_, err := newTestCounter(testConfig(root)).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrConversion)
	assert.Contains(t, err.Error(), "frame 0")
}

func TestCountTraversalOrder(t *testing.T) {
	root := t.TempDir()
	writeTIFF(t, filepath.Join(root, "001_20240101_000000.tif"), 1)
	writeTIFF(t, filepath.Join(root, "z", "001_20240101_000000.TIF"), 2)
	writeTIFF(t, filepath.Join(root, "a", "001_20240101_000000.tiff"), 3)
	writeTIFF(t, filepath.Join(root, "a", "inner", "001_20240101_000000.tif"), 4)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty", "notes.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.png"), []byte("skip"), 0o644))

	result, err := newTestCounter(testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	var dirs []string
	for _, d := range result.Directories {
		rel, err := filepath.Rel(root, d.Directory)
		require.NoError(t, err)
		dirs = append(dirs, rel)
	}
	assert.Equal(t, []string{".", "a", filepath.Join("a", "inner"), "z"}, dirs)
	assert.Equal(t, 4, result.TotalFiles)
	assert.Equal(t, 10, result.TotalRed)

	_, err = os.Stat(filepath.Join(root, "empty", schema.SummaryFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestCountFollowsFileSymlinksOnly(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "001_20240101_000000.tif")
	writeTIFF(t, target, 2)
	writeTIFF(t, filepath.Join(outside, "nested", "001_20240101_000000.tif"), 5)

	if err := os.Symlink(target, filepath.Join(root, "001_20240101_000000.tif")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(outside, "nested"), filepath.Join(root, "linked")))

	result, err := newTestCounter(testConfig(root)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Directories, 1)
	assert.Equal(t, 2, result.TotalRed)
}

func TestCountOutputDirMode(t *testing.T) {
	root := t.TempDir()
	writeTIFF(t, filepath.Join(root, "001_20240101_000000.tif"), 1)
	writeTIFF(t, filepath.Join(root, "plate", "day1", "001_20240101_000000.tif"), 2)

	cfg := testConfig(root)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out", "csv")

	result, err := newTestCounter(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Directories, 2)

	rootCSV := filepath.Base(result.Directories[0].CSVPath)
	nestedCSV := filepath.Base(result.Directories[1].CSVPath)
	assert.Regexp(t, regexp.MustCompile(`^count_\d{8}_\d{6}\.csv$`), rootCSV)
	assert.Regexp(t, regexp.MustCompile(`^count_\d{8}_\d{6}_plate_day1\.csv$`), nestedCSV)
	assert.True(t, strings.HasPrefix(nestedCSV, strings.TrimSuffix(rootCSV, ".csv")+"_"), "one timestamp per run")

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = os.Stat(filepath.Join(root, schema.SummaryFileName))
	assert.True(t, os.IsNotExist(err), "sources are left untouched in output directory mode")
}

func TestCountOutputDirCreateError(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	cfg := testConfig(root)
	cfg.OutputDir = filepath.Join(blocker, "out")

	_, err := newTestCounter(cfg).Run(context.Background())
	assert.ErrorIs(t, err, contract.ErrWrite)
}

func TestCountSkipCSV(t *testing.T) {
	root := t.TempDir()
	writeTIFF(t, filepath.Join(root, "001_20240101_000000.tif"), 4)

	cfg := testConfig(root)
	cfg.SkipCSV = true

	result, err := newTestCounter(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Directories, 1)
	assert.Empty(t, result.Directories[0].CSVPath)
	assert.Equal(t, 4, result.Directories[0].Rows[0].RedDotCount)

	_, err = os.Stat(filepath.Join(root, schema.SummaryFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestCountCancelled(t *testing.T) {
	root := t.TempDir()
	writeTIFF(t, filepath.Join(root, "001_20240101_000000.tif"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCounter(testConfig(root)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountWritesMetricsFile(t *testing.T) {
	root := t.TempDir()
	writeTIFF(t, filepath.Join(root, "001_20240101_000000.tif"), 3, 4)

	cfg := testConfig(root)
	cfg.MetricsFile = filepath.Join(t.TempDir(), "reddot.prom")

	c := NewCounter(cfg, tiffx.NewDecoder(), outwriter.NewOutWriter(), nil, metrics.NewRecorder())
	c.out = &bytes.Buffer{}
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "reddot_files_processed_total 1")
	assert.Contains(t, string(content), "reddot_frames_processed_total 2")
	assert.Contains(t, string(content), "reddot_red_pixels_total 7")
	assert.Contains(t, string(content), "reddot_csv_written_total 1")
}

func TestGetCountResultsSuppressed(t *testing.T) {
	root := t.TempDir()
	writeTIFF(t, filepath.Join(root, "001_20240101_000000.tif"), 2)

	cfg := testConfig(root)
	cfg.SkipCSV = true

	result, duration, err := GetCountResults(WithSuppressHeader(context.Background()), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRed)
	assert.Positive(t, duration)
}

func TestCSVPath(t *testing.T) {
	cfg := testConfig("/data")
	c := NewCounter(cfg, nil, nil, nil, nil)
	assert.Equal(t, filepath.Join("/data", "sub", schema.SummaryFileName), c.csvPath(filepath.Join("/data", "sub")))

	cfg.OutputDir = "/out"
	c.runStamp = "20240101_120000"
	assert.Equal(t, filepath.Join("/out", "count_20240101_120000.csv"), c.csvPath("/data"))
	assert.Equal(t, filepath.Join("/out", "count_20240101_120000_a_b.csv"), c.csvPath(filepath.Join("/data", "a", "b")))

	// a_b flattens to the same name as a/b
	assert.Equal(t, filepath.Join("/out", "count_20240101_120000_a_b_2.csv"), c.csvPath(filepath.Join("/data", "a_b")))
	assert.Equal(t, filepath.Join("/out", "count_20240101_120000_a_b_3.csv"), c.csvPath(filepath.Join("/data", "a_b")))
}

func TestCountOutputDirFlattenedNamesDoNotOverwrite(t *testing.T) {
	root := t.TempDir()
	writeTIFF(t, filepath.Join(root, "a", "b", "001_20240101_000000.tif"), 1)
	writeTIFF(t, filepath.Join(root, "a_b", "001_20240101_000000.tif"), 2)

	cfg := testConfig(root)
	cfg.OutputDir = t.TempDir()

	result, err := newTestCounter(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Directories, 2)

	first := result.Directories[0].CSVPath
	second := result.Directories[1].CSVPath
	assert.NotEqual(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^count_\d{8}_\d{6}_a_b\.csv$`), filepath.Base(first))
	assert.Regexp(t, regexp.MustCompile(`^count_\d{8}_\d{6}_a_b_2\.csv$`), filepath.Base(second))

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	content, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(content), ",1,2,0.0\n")
}

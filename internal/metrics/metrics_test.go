package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/reddot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveFile(schema.FileRecord{
		FileName:         "a.tif",
		TotalRedDotCount: 17,
		Frames:           []schema.FrameCount{{Index: 0}, {Index: 1}, {Index: 2}},
	}, 20*time.Millisecond)
	r.ObserveFile(schema.FileRecord{FileName: "b.tif", TotalRedDotCount: 3, Frames: []schema.FrameCount{{}}}, time.Second)
	r.CacheLookup(true)
	r.CacheLookup(false)
	r.CacheLookup(false)
	r.CSVWritten()

	path := filepath.Join(t.TempDir(), "reddot.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "reddot_files_processed_total 2")
	assert.Contains(t, text, "reddot_frames_processed_total 4")
	assert.Contains(t, text, "reddot_red_pixels_total 20")
	assert.Contains(t, text, "reddot_csv_written_total 1")
	assert.Contains(t, text, `reddot_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, text, `reddot_cache_lookups_total{result="miss"} 2`)
	assert.Contains(t, text, "reddot_file_processing_seconds_count 2")
}

func TestRecorderGather(t *testing.T) {
	r := NewRecorder()
	r.CSVWritten()

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "reddot_csv_written_total")
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveFile(schema.FileRecord{}, time.Second)
		r.CacheLookup(true)
		r.CSVWritten()
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "unused.prom")))
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	assert.NoError(t, NewRecorder().WriteTextfile(""))
}

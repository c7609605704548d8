package iocache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/reddot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintCacheStatus(t *testing.T) {
	t.Run("disconnected", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
		assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())
	})

	t.Run("connected", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCacheStatus(&buf, schema.CacheStatus{
			Backend:         "sqlite",
			Connected:       true,
			TotalEntries:    2,
			LastEntryTime:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local),
			OldestEntryTime: time.Date(2024, 4, 1, 9, 30, 0, 0, time.Local),
			TableSizeBytes:  4096,
		})
		out := buf.String()
		assert.Contains(t, out, "Total Entries: 2")
		assert.Contains(t, out, "Last Entry: 2024-05-01 10:00:00")
		assert.Contains(t, out, "Oldest Entry: 2024-04-01 09:30:00")
		assert.Contains(t, out, "Table Size: 4096 bytes")
	})
}

func TestPrintHistoryStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend:        "sqlite",
		Connected:      true,
		TotalRuns:      3,
		LastRunID:      3,
		LastRunTime:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		OldestRunTime:  time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		TotalFilesSeen: 12,
		TableSizes:     map[string]int64{summaryRowsTable: 12, runsTable: 3},
	})
	out := buf.String()
	assert.Contains(t, out, "Total Runs: 3")
	assert.Contains(t, out, "Last Run ID: 3")
	assert.Contains(t, out, "Total Files Counted: 12")

	// Tables are listed in name order
	runsAt := bytes.Index(buf.Bytes(), []byte(runsTable+": 3 rows"))
	rowsAt := bytes.Index(buf.Bytes(), []byte(summaryRowsTable+": 12 rows"))
	require.GreaterOrEqual(t, runsAt, 0)
	require.GreaterOrEqual(t, rowsAt, 0)
	assert.Less(t, runsAt, rowsAt)
}

func TestExecuteHistoryExport(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		err := ExecuteHistoryExport(&bytes.Buffer{}, &MockHistoryStore{}, "")
		assert.ErrorContains(t, err, "--output-file is required")
	})

	t.Run("requires store", func(t *testing.T) {
		err := ExecuteHistoryExport(&bytes.Buffer{}, nil, "out")
		assert.ErrorContains(t, err, "history is disabled")
	})

	t.Run("empty history", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true}, nil)

		err := ExecuteHistoryExport(&bytes.Buffer{}, store, "out")
		assert.ErrorContains(t, err, "no history data found")
		store.AssertExpectations(t)
	})

	t.Run("status error", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("boom"))

		err := ExecuteHistoryExport(&bytes.Buffer{}, store, "out")
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("writes parquet files", func(t *testing.T) {
		store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		runID, err := store.BeginRun(start, map[string]any{"root": "/data"})
		require.NoError(t, err)
		require.NoError(t, store.RecordSummaryRows(runID, "/data", sampleSummaryRows()))
		require.NoError(t, store.EndRun(runID, start.Add(time.Second), 3, 1))

		base := filepath.Join(t.TempDir(), "export")
		var buf bytes.Buffer
		require.NoError(t, ExecuteHistoryExport(&buf, store, base))

		assert.Contains(t, buf.String(), "Exported 1 runs to: "+base+".runs.parquet")
		assert.Contains(t, buf.String(), "Exported 3 summary rows to: "+base+".summary_rows.parquet")

		for _, suffix := range []string{".runs.parquet", ".summary_rows.parquet"} {
			info, err := os.Stat(base + suffix)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		}
	})
}

// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/huangsam/reddot/schema"
)

// Fatal error kinds. Each aborts the whole run and is wrapped with file context.
var (
	// ErrDecode means a file could not be read or yielded zero frames.
	ErrDecode = errors.New("decode error")

	// ErrConversion means a frame has a pixel layout that cannot be converted to HSV.
	ErrConversion = errors.New("conversion error")

	// ErrWrite means an output file could not be created or written.
	ErrWrite = errors.New("write error")
)

// FrameVisitor receives each decoded frame in file order.
type FrameVisitor func(index int, frame image.Image) error

// FrameDecoder decodes every frame of a multi-frame image file.
// Frames are handed to the visitor one at a time and are not retained,
// so only a single frame needs to live in memory.
type FrameDecoder interface {
	// DecodeFrames visits all frames of the file at path and returns how many were visited.
	// Implementations return an error wrapping ErrDecode when the file is unreadable.
	DecodeFrames(ctx context.Context, path string, visit FrameVisitor) (int, error)
}

// ResultWriter writes summaries and run results.
// This allows the output layer to be mocked for testing.
type ResultWriter interface {
	// WriteSummary writes the ordered rows of one directory as CSV to path
	WriteSummary(path string, rows []schema.SummaryRow) error

	// WriteRun reports the whole run in the configured output format
	WriteRun(result *schema.RunResult, cfg *Config, duration time.Duration) error
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetCountStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking count runs and their summary rows.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalFiles, totalDirectories int) error

	// RecordSummaryRows stores the ordered rows of one directory
	RecordSummaryRows(runID int64, directory string, rows []schema.SummaryRow) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllSummaryRows returns every recorded row ordered by run, directory and position
	GetAllSummaryRows() ([]schema.SummaryRowRecord, error)

	// Close closes the underlying connection
	Close() error
}

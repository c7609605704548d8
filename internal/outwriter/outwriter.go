// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// Compile-time check that OutWriter implements contract.ResultWriter.
var _ contract.ResultWriter = (*OutWriter)(nil)

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSummary writes the per-directory summary CSV.
func (ow *OutWriter) WriteSummary(path string, rows []schema.SummaryRow) error {
	return WriteSummaryCSV(path, rows)
}

// WriteRun prints the run result using the configured output format.
func (ow *OutWriter) WriteRun(result *schema.RunResult, cfg *contract.Config, duration time.Duration) error {
	return PrintRunResult(result, cfg, duration)
}

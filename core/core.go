// Package core has the counting pipeline: directory traversal, per-file counting and summary output.
package core

import (
	"context"
	"time"

	"github.com/huangsam/reddot/internal"
	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/internal/metrics"
	"github.com/huangsam/reddot/internal/outwriter"
	"github.com/huangsam/reddot/internal/tiffx"
	"github.com/huangsam/reddot/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteCount runs the red-dot count over the configured root and prints the run result.
// It serves as the main entry point for the 'count' command.
func ExecuteCount(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	result, duration, err := GetCountResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRun(result, cfg, duration)
}

// GetCountResults runs the count and returns the result without printing it.
// Summary CSVs are still written unless cfg.SkipCSV is set.
func GetCountResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.RunResult, time.Duration, error) {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		internal.LogRunHeader(cfg)
	}

	counter := NewCounter(cfg, tiffx.NewDecoder(), outwriter.NewOutWriter(), mgr, metrics.NewRecorder())
	result, err := counter.Run(ctx)
	if err != nil {
		return nil, 0, err
	}
	return result, time.Since(start), nil
}

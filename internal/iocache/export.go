package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/internal/parquet"
)

// ExecuteHistoryExport exports all runs and summary rows of the store to two Parquet files
// named after outputFile.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history is disabled. Set --history-backend to export runs")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no history data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total summary rows: %d\n", status.TableSizes[summaryRowsTable])

	// Retrieve all runs
	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	// Retrieve all summary rows
	rows, err := store.GetAllSummaryRows()
	if err != nil {
		return fmt.Errorf("failed to retrieve summary rows: %w", err)
	}

	// Convert to Parquet format
	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetRows := parquet.ConvertSummaryRowRecords(rows)

	// Write runs to Parquet
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteCountRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	// Write summary rows to Parquet
	rowsFile := outputFile + ".summary_rows.parquet"
	if err := parquet.WriteSummaryRowsParquet(parquetRows, rowsFile); err != nil {
		return fmt.Errorf("failed to write summary rows: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d summary rows to: %s\n", len(parquetRows), rowsFile)

	return nil
}

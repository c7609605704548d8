// Package parquet provides data structures and functions for exporting red dot
// count data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/reddot/schema"
	"github.com/parquet-go/parquet-go"
)

// CountRun represents a single count run with metadata.
// This struct maps to the reddot_runs database table.
type CountRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalFiles is the number of TIFF files counted in this run
	TotalFiles int32 `parquet:"total_files,snappy"`

	// TotalDirectories is the number of directories that produced a summary
	TotalDirectories int32 `parquet:"total_directories,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// SummaryRow is one row of a directory summary.
// This struct maps to the reddot_summary_rows database table.
type SummaryRow struct {
	// RunID references the parent run (0 when exported straight from a run result)
	RunID int64 `parquet:"run_id,snappy"`

	// Directory is the absolute directory holding the file
	Directory string `parquet:"directory,snappy"`

	// RowIndex is the position of the row in the sorted summary
	RowIndex int32 `parquet:"row_index,snappy"`

	// FileName is the base name of the TIFF file
	FileName string `parquet:"file_name,snappy"`

	// Datetime is the timestamp parsed from the file name (nullable)
	Datetime *time.Time `parquet:"datetime,optional,snappy"`

	// Number is the sequence number parsed from the file name (nullable)
	Number *int64 `parquet:"number,optional,snappy"`

	// RedDotCount is the total number of red pixels across all frames
	RedDotCount int32 `parquet:"red_dot_count,snappy"`

	// IncubationHour is the elapsed hours since the earliest timestamp (nullable)
	IncubationHour *float64 `parquet:"incubation_hour,optional,snappy"`

	// FrameCount is the number of frames in the file
	FrameCount int32 `parquet:"frame_count,snappy"`
}

// WriteCountRunsParquet writes a slice of CountRun structs to a Parquet file.
func WriteCountRunsParquet(data []CountRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteSummaryRowsParquet writes a slice of SummaryRow structs to a Parquet file.
func WriteSummaryRowsParquet(data []SummaryRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows to a new file; the schema is derived from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	return nil
}

// ConvertRunRecords converts schema.RunRecord to CountRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []CountRun {
	result := make([]CountRun, len(records))
	for i, record := range records {
		result[i] = CountRun{
			RunID:            record.RunID,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			RunDurationMs:    record.RunDurationMs,
			TotalFiles:       record.TotalFiles,
			TotalDirectories: record.TotalDirectories,
			ConfigParams:     record.ConfigParams,
		}
	}
	return result
}

// ConvertSummaryRowRecords converts schema.SummaryRowRecord to SummaryRow for Parquet export.
func ConvertSummaryRowRecords(records []schema.SummaryRowRecord) []SummaryRow {
	result := make([]SummaryRow, len(records))
	for i, record := range records {
		result[i] = SummaryRow{
			RunID:          record.RunID,
			Directory:      record.Directory,
			RowIndex:       record.RowIndex,
			FileName:       record.FileName,
			Datetime:       record.Datetime,
			Number:         record.Number,
			RedDotCount:    record.RedDotCount,
			IncubationHour: record.IncubationHour,
			FrameCount:     record.FrameCount,
		}
	}
	return result
}

// ConvertRunResult flattens the directory summaries of a run into Parquet rows.
func ConvertRunResult(result *schema.RunResult) []SummaryRow {
	var rows []SummaryRow
	for _, dir := range result.Directories {
		for i, row := range dir.Rows {
			rows = append(rows, SummaryRow{
				Directory:      dir.Directory,
				RowIndex:       int32(i),
				FileName:       row.FileName,
				Datetime:       row.Timestamp,
				Number:         row.Number,
				RedDotCount:    int32(row.RedDotCount),
				IncubationHour: row.ElapsedHours,
				FrameCount:     int32(row.FrameCount),
			})
		}
	}
	return rows
}

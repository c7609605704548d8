package schema

import "time"

// RunRecord represents a row from the reddot_runs table.
type RunRecord struct {
	RunID            int64
	StartTime        time.Time
	EndTime          *time.Time
	RunDurationMs    *int32
	TotalFiles       int32
	TotalDirectories int32
	ConfigParams     *string
}

// SummaryRowRecord represents a row from the reddot_summary_rows table.
type SummaryRowRecord struct {
	RunID          int64
	Directory      string
	RowIndex       int32
	FileName       string
	Datetime       *time.Time
	Number         *int64
	RedDotCount    int32
	IncubationHour *float64
	FrameCount     int32
}

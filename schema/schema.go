// Package schema has configs, models and constants shared by all parts of reddot.
package schema

import "time"

// FrameCount is the red-dot tally of a single frame within a file.
type FrameCount struct {
	Index  int    `json:"index"`  // Zero-based page index within the file
	Width  int    `json:"width"`  // Frame width in pixels
	Height int    `json:"height"` // Frame height in pixels
	Layout string `json:"layout"` // Decoded pixel layout, e.g. rgba8
	Count  int    `json:"count"`  // Number of red pixels in the frame
}

// FileRecord is the result of counting every frame of one multi-frame file.
type FileRecord struct {
	FileName         string       `json:"file_name"`
	TotalRedDotCount int          `json:"total_red_dot_count"`
	Frames           []FrameCount `json:"frames"`
}

// ParsedName holds the tokens derived from a file name. Nil means null.
type ParsedName struct {
	SequenceNumber *int64  `json:"sequence_number"`
	Date           *string `json:"date"`
	Time           *string `json:"time"`
}

// SummaryRow is one chronologically ordered row of a directory summary.
type SummaryRow struct {
	FileName     string     `json:"file_name"`
	Timestamp    *time.Time `json:"timestamp"`
	Number       *int64     `json:"number"`
	RedDotCount  int        `json:"red_dot_count"`
	ElapsedHours *float64   `json:"incubation_hour"`
	FrameCount   int        `json:"frame_count"`
}

// DirectorySummary is the summarized batch of one directory with qualifying files.
type DirectorySummary struct {
	Directory      string       `json:"directory"`
	CSVPath        string       `json:"csv_path,omitempty"`
	NameMismatches int          `json:"name_mismatches"`
	Rows           []SummaryRow `json:"rows"`
}

// RunResult aggregates every directory processed by one count run.
type RunResult struct {
	Root        string             `json:"root"`
	StartedAt   time.Time          `json:"started_at"`
	Duration    time.Duration      `json:"duration"`
	TotalFiles  int                `json:"total_files"`
	TotalFrames int                `json:"total_frames"`
	TotalRed    int                `json:"total_red"`
	Directories []DirectorySummary `json:"directories"`
}

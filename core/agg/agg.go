package agg

import (
	"fmt"
	"sort"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
)

// Summarize builds the ordered summary rows for one directory.
// It returns the rows and how many file names lacked the number_date_time shape.
//
// With FileFallback each malformed name only loses its own timestamp.
// With BatchFallback a single malformed name clears the date and time of every row,
// and every row takes its sequence number from the whole stem.
//
// Rows are stably sorted by timestamp, then sequence number, with nil values last.
// Elapsed hours are measured from the earliest timestamp of the batch.
func Summarize(records []schema.FileRecord, fallback schema.NameFallback) ([]schema.SummaryRow, int) {
	parsed := make([]schema.ParsedName, len(records))
	mismatches := 0
	for i, rec := range records {
		name, ok := ParseName(rec.FileName)
		if !ok {
			mismatches++
		}
		parsed[i] = name
	}

	if mismatches > 0 && fallback == schema.BatchFallback {
		for i, rec := range records {
			parsed[i] = schema.ParsedName{SequenceNumber: TryParseInt(Stem(rec.FileName))}
		}
	}

	rows := make([]schema.SummaryRow, len(records))
	for i, rec := range records {
		rows[i] = schema.SummaryRow{
			FileName:    rec.FileName,
			Timestamp:   CombineTimestamp(parsed[i].Date, parsed[i].Time),
			Number:      parsed[i].SequenceNumber,
			RedDotCount: rec.TotalRedDotCount,
			FrameCount:  len(rec.Frames),
		}
	}

	SortRows(rows)
	ApplyElapsedHours(rows)
	return rows, mismatches
}

// LogMismatches warns when some names in dir could not be parsed.
func LogMismatches(dir string, mismatches, total int, fallback schema.NameFallback) {
	if mismatches == 0 {
		return
	}
	effect := "their rows have no timestamp"
	if fallback == schema.BatchFallback {
		effect = "all rows in the directory have no timestamp"
	}
	contract.LogWarn(
		fmt.Sprintf("file names in %s differ from the expected format", dir),
		fmt.Errorf("%d of %d names lack number_date_time tokens, %s", mismatches, total, effect),
	)
}

// SortRows stably orders rows by timestamp then sequence number, placing nil values last.
func SortRows(rows []schema.SummaryRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := compareTime(a, b); c != 0 {
			return c < 0
		}
		return compareNumber(a, b) < 0
	})
}

func compareTime(a, b schema.SummaryRow) int {
	switch {
	case a.Timestamp == nil && b.Timestamp == nil:
		return 0
	case a.Timestamp == nil:
		return 1
	case b.Timestamp == nil:
		return -1
	default:
		return a.Timestamp.Compare(*b.Timestamp)
	}
}

func compareNumber(a, b schema.SummaryRow) int {
	switch {
	case a.Number == nil && b.Number == nil:
		return 0
	case a.Number == nil:
		return 1
	case b.Number == nil:
		return -1
	case *a.Number < *b.Number:
		return -1
	case *a.Number > *b.Number:
		return 1
	default:
		return 0
	}
}

// ApplyElapsedHours sets each row's elapsed hours from the earliest timestamp among rows.
// Rows without a timestamp get nil.
func ApplyElapsedHours(rows []schema.SummaryRow) {
	var epoch *schema.SummaryRow
	for i := range rows {
		if rows[i].Timestamp == nil {
			continue
		}
		if epoch == nil || rows[i].Timestamp.Before(*epoch.Timestamp) {
			epoch = &rows[i]
		}
	}

	if epoch == nil {
		for i := range rows {
			rows[i].ElapsedHours = nil
		}
		return
	}

	start := *epoch.Timestamp
	for i := range rows {
		if rows[i].Timestamp == nil {
			rows[i].ElapsedHours = nil
			continue
		}
		hours := rows[i].Timestamp.Sub(start).Seconds() / 3600
		rows[i].ElapsedHours = &hours
	}
}

package outwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
)

// WriteSummaryCSV writes the ordered rows of one directory to path.
// Any failure is returned wrapped in contract.ErrWrite.
func WriteSummaryCSV(path string, rows []schema.SummaryRow) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", contract.ErrWrite, path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %s: %v", contract.ErrWrite, path, cerr)
		}
	}()

	err = writeCSVWithHeader(file, schema.SummaryHeader, func(w *csv.Writer) error {
		for _, row := range rows {
			if err := w.Write(FormatSummaryRecord(row)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", contract.ErrWrite, path, err)
	}
	return nil
}

// FormatSummaryRecord renders a row as Datetime, Number, Red Dot Count and incubation hour.
// Nil values become empty cells.
func FormatSummaryRecord(row schema.SummaryRow) []string {
	return []string{
		FormatDatetime(row.Timestamp),
		FormatNumber(row.Number),
		strconv.Itoa(row.RedDotCount),
		FormatIncubationHour(row.ElapsedHours),
	}
}

// FormatDatetime renders a timestamp as "YYYY-MM-DD HH:MM:SS".
func FormatDatetime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(schema.CSVTimeLayout)
}

// FormatNumber renders a sequence number as a plain integer.
func FormatNumber(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

// FormatIncubationHour renders hours in their shortest form, always with a decimal point (0.0, 1.5).
func FormatIncubationHour(h *float64) string {
	if h == nil {
		return ""
	}
	s := strconv.FormatFloat(*h, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Package agg turns per-file red dot counts into a chronologically ordered directory summary.
package agg

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/reddot/schema"
)

// nameSeparator splits a file stem into number, date and time tokens.
const nameSeparator = "_"

// Stem returns the base file name without a .tif or .tiff suffix (any case).
func Stem(fileName string) string {
	base := filepath.Base(fileName)
	lower := strings.ToLower(base)
	for _, ext := range []string{".tiff", ".tif"} {
		if strings.HasSuffix(lower, ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}

// ParseName extracts the sequence number, date and time tokens from a file name
// shaped like "003_20240115_083000.tiff". Tokens past the third are ignored.
// ok is false when the stem has fewer than 3 tokens; date and time are then nil
// and the sequence number is the whole stem cast to an integer, if it is one.
func ParseName(fileName string) (schema.ParsedName, bool) {
	stem := Stem(fileName)
	tokens := strings.Split(stem, nameSeparator)
	if len(tokens) < 3 {
		return schema.ParsedName{SequenceNumber: TryParseInt(stem)}, false
	}

	date, tm := tokens[1], tokens[2]
	return schema.ParsedName{
		SequenceNumber: TryParseInt(tokens[0]),
		Date:           &date,
		Time:           &tm,
	}, true
}

// CombineTimestamp joins date (YYYYMMDD) and time (HHMMSS) tokens into a UTC timestamp.
// It returns nil when either token is missing or the result does not parse.
func CombineTimestamp(date, tm *string) *time.Time {
	if date == nil || tm == nil {
		return nil
	}
	ts, err := time.Parse(schema.NameTimeLayout, *date+*tm)
	if err != nil {
		return nil
	}
	return &ts
}

// TryParseInt returns the base-10 integer in s, or nil if s is not one.
func TryParseInt(s string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

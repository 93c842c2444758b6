package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// typeThreshold is the share of non-missing cells that must parse for a
// column to be given a numeric or date type.
const typeThreshold = 0.8

var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"nan":  true,
	"none": true,
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// IsMissing reports whether a raw cell is treated as a missing value.
func IsMissing(raw string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// ParseNumber parses a numeric cell, accepting thousands separators and a
// leading currency sign.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDate parses a cell using the known date layouts.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferType picks the column type for a set of raw cells.
func InferType(cells []string) ColumnType {
	var present, numeric, dates int
	for _, c := range cells {
		if IsMissing(c) {
			continue
		}
		present++
		if _, ok := ParseNumber(c); ok {
			numeric++
			continue
		}
		if _, ok := ParseDate(c); ok {
			dates++
		}
	}
	if present == 0 {
		return TypeText
	}
	if float64(numeric)/float64(present) >= typeThreshold {
		return TypeNumeric
	}
	if float64(dates)/float64(present) >= typeThreshold {
		return TypeDate
	}
	return TypeText
}

// convert turns raw cells into typed values for the given column type.
// Cells that do not parse under a numeric or date type become missing.
func convert(cells []string, typ ColumnType) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		if IsMissing(c) {
			continue
		}
		switch typ {
		case TypeNumeric:
			if f, ok := ParseNumber(c); ok {
				out[i] = f
			}
		case TypeDate:
			if t, ok := ParseDate(c); ok {
				out[i] = t
			}
		default:
			out[i] = c
		}
	}
	return out
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

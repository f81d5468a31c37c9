package engine

import (
	"sort"
	"strings"
	"time"
)

var dateFormats = []string{
	"2006-01-02",          // YYYY-MM-DD
	"2006/01/02",          // YYYY/MM/DD
	"2006-1-2",            // YYYY-M-D
	"2006/1/2",            // YYYY/M/D
	"01/02/2006",          // MM/DD/YYYY
	"1/2/2006",            // M/D/YYYY
	"2006-01-02 15:04:05", // YYYY-MM-DD hh:mm:ss
	time.RFC3339,          // 2006-01-02T15:04:05Z07:00
	"Jan 2, 2006",
	"20060102",
}

// ParseDate reads a date cell in any of the layouts the ads exports use.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareDates orders two date strings by calendar date when both parse,
// otherwise by string. Parseable dates sort before unparseable ones.
func CompareDates(a, b string) int {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		if c := ta.Compare(tb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// compareBound compares a value with a range bound: by calendar when both
// parse as dates, otherwise by string.
func compareBound(v, bound string) int {
	tv, okV := ParseDate(v)
	tb, okB := ParseDate(bound)
	if okV && okB {
		return tv.Compare(tb)
	}
	return strings.Compare(v, bound)
}

func inDateRange(v, start, end string) bool {
	if start != "" && compareBound(v, start) < 0 {
		return false
	}
	if end != "" && compareBound(v, end) > 0 {
		return false
	}
	return true
}

// SortDates sorts date strings in place by CompareDates.
func SortDates(dates []string) {
	sort.SliceStable(dates, func(i, j int) bool {
		return CompareDates(dates[i], dates[j]) < 0
	})
}

package util

import (
	"strings"
	"time"
)

// dateLayouts covers the formats observed in the Brent price archive: old
// day-first abbreviated dates ("20-May-87"), modern month-name dates
// ("Apr 22, 2020"), ISO dates, and full timestamps. A single file may mix
// several of these.
var dateLayouts = []string{
	"2006-01-02",
	"2-Jan-06",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02/01/2006",
	time.RFC3339,
}

// ParseDate parses a date string against the known archive formats.
// Returns (t, true) on the first layout that matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// WeekStart truncates t to the Monday of its ISO week.
func WeekStart(t time.Time) time.Time {
	t = DayStart(t)
	wd := int(t.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return t.AddDate(0, 0, -(wd - 1))
}

// MonthStart truncates t to the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

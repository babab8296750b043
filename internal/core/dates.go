package core

import (
	"strings"
	"time"
)

// Layouts tried by ParseDate, most common first. Day-first dotted dates and
// ISO dates must land on the identical day.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006 15:04:05",
}

// ParseDate parses a date cell on a best-effort basis and truncates it to a
// calendar day in UTC. Returns ErrInvalidDate when no layout matches.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// DateOf drops the time-of-day component, keeping a UTC midnight instant.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar day.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return Date(t.Year(), int(t.Month()), 1)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// DaysBetween returns the whole days from a to b; negative when b precedes a.
// Both arguments are expected to be calendar days (see DateOf).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

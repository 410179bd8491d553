package util

import (
	"strings"
	"time"
)

// dayFirstLayouts are tried in order; mandi exports mix separators and month styles.
var dayFirstLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",
	"2/1/2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"02.01.2006",
	"2006-01-02",
	"02-01-06",
	"02/01/06",
}

// ParseDayFirst parses a calendar date, preferring day-before-month when the
// text is ambiguous. Any time-of-day suffix is ignored. The result is UTC midnight.
func ParseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if i := strings.IndexAny(s, " T"); i > 0 && strings.Contains(s[i:], ":") {
		s = s[:i]
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a calendar date forward by n days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// WeekdayMondayFirst maps Monday..Sunday to 0..6.
func WeekdayMondayFirst(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ISOWeek returns the ISO-8601 week number.
func ISOWeek(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

package utils

import "time"

// Calendar-day helpers for streak accounting. All check-in dates are
// interpreted in UTC so that "today" is unambiguous regardless of the
// client's timezone.

// DateOf truncates a timestamp to its UTC calendar date (midnight UTC).
func DateOf(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is earlier than a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

package types

import (
	"time"
)

const day = 24 * time.Hour

// Date normalises t to a calendar date at 00:00 UTC. The wall-clock date of t
// is kept regardless of its location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate returns the calendar date for the given year, month and day.
func NewDate(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in UTC.
func Today() time.Time {
	return Date(time.Now().UTC())
}

// DaysBetween returns the number of whole calendar days from start to end.
// The result is negative when end precedes start.
func DaysBetween(start, end time.Time) int {
	return int(Date(end).Sub(Date(start)) / day)
}

// AddDays moves a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Date(t).AddDate(0, 0, n)
}

// AddMonthsClamped moves a calendar date by n months. When the day of month
// does not exist in the target month the last day of that month is used,
// so Jan 31 + 1 month is Feb 28 (or Feb 29 in a leap year).
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := Date(t).Date()

	// normalise through the first of the month so time.Date does not overflow
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// MaxDate returns the later of the two dates.
func MaxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

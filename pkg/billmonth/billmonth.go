// Package billmonth works with civil billing months. A bill month is
// represented by the first day of the month at midnight UTC; the calendar
// that decides "today" is the business timezone, not the server's.
package billmonth

import (
	"errors"
	"time"
)

const Layout = "2006-01"

var ErrInvalidMonth = errors.New("invalid_bill_month")

// Parse converts "YYYY-MM" into the first day of that month.
func Parse(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}

// Format renders a first-of-month date back as "YYYY-MM".
func Format(month time.Time) string {
	return month.Format(Layout)
}

// Truncate returns the first day of t's month.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the first day of the month after m.
func Next(m time.Time) time.Time {
	return Truncate(m).AddDate(0, 1, 0)
}

// Prev returns the first day of the month before m.
func Prev(m time.Time) time.Time {
	return Truncate(m).AddDate(0, -1, 0)
}

// LastDay returns the final calendar day of m's month.
func LastDay(m time.Time) time.Time {
	return Next(m).AddDate(0, 0, -1)
}

// IsFirstOfMonth reports whether t falls on the first day of a month.
func IsFirstOfMonth(t time.Time) bool {
	return t.Day() == 1
}

package utils

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format accepted by the API
const DateLayout = "2006-01-02"

// StartOfDay returns 00:00:00.000 of t's calendar day in the server's local time
func StartOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in the server's local time
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// DayWindow returns the first and last instant of t's calendar day
func DayWindow(t time.Time) (time.Time, time.Time) {
	return StartOfDay(t), EndOfDay(t)
}

// MonthWindow returns the first and last instant of the given calendar month
func MonthWindow(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// IsTodayOrLater compares calendar days only; the time of day is ignored
func IsTodayOrLater(target, now time.Time) bool {
	return !StartOfDay(target).Before(StartOfDay(now))
}

// ParseDate accepts a calendar date (2006-01-02, local time) or an RFC 3339 timestamp
func ParseDate(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", value)
}

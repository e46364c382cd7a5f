package dates

import (
	"fmt"
	"time"
)

// Layout is the calendar-day format used for every stored date
const Layout = "2006-01-02"

// Parse parses a calendar day. The result is midnight UTC.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// Format formats a time as a calendar day, ignoring its time-of-day
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the current calendar day in the given reference zone
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format(Layout)
}

// Range returns every calendar day from start to end inclusive.
// It returns an error if either date is malformed or end is before start.
func Range(start, end string) ([]string, error) {
	startDate, err := Parse(start)
	if err != nil {
		return nil, err
	}
	endDate, err := Parse(end)
	if err != nil {
		return nil, err
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end date %s is before start date %s", end, start)
	}

	days := int(endDate.Sub(startDate).Hours()/24) + 1
	result := make([]string, 0, days)
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		result = append(result, d.Format(Layout))
	}
	return result, nil
}

// Within reports whether day lies in [start, end]. All values must use Layout,
// which orders lexically the same as chronologically.
func Within(day, start, end string) bool {
	return day >= start && day <= end
}

// AddDays shifts a calendar day by n days
func AddDays(day string, n int) (string, error) {
	t, err := Parse(day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(Layout), nil
}

package pkg

import "time"

// DayKey is the UTC calendar day used to key daily entitlements.
func DayKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// MonthKey is the UTC calendar month used to key entries, prizes and draws.
// It is always derived from the caller's clock at the boundary, never kept as
// ambient state.
func MonthKey(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// NextUTCMidnight is the instant the daily allowance resets.
func NextUTCMidnight(now time.Time) time.Time {
	u := now.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, 1)
}

// MonthStart returns the first instant of the month identified by a month key.
func MonthStart(month string) (time.Time, error) {
	return time.ParseInLocation("2006-01", month, time.UTC)
}

// ValidMonthKey reports whether s is a well-formed month key.
func ValidMonthKey(s string) bool {
	_, err := MonthStart(s)
	return err == nil
}

package shared

import "time"

// TrackedFiscalYears enumerates fiscal years the tracker reports on.
var TrackedFiscalYears = []int{25, 26}

// FiscalYear returns the two-digit April-start fiscal year for a date.
// May 2025 falls in FY26, February 2025 in FY25.
func FiscalYear(t time.Time) int {
	year := t.Year()
	if t.Month() >= time.April {
		year++
	}
	return year % 100
}

// CalendarYear returns the two-digit calendar year for a date.
func CalendarYear(t time.Time) int {
	return t.Year() % 100
}

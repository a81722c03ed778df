package rules

import (
	"fmt"
	"time"
)

const tenureMonth = 30 * 24 * time.Hour

// TenureMonths returns the elapsed time between start and now in 30-day
// months, rounded up. The difference is absolute, so a start date in the
// future is counted the same as one in the past.
func TenureMonths(start, now time.Time) int {
	elapsed := now.Sub(start)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	months := elapsed / tenureMonth
	if elapsed%tenureMonth != 0 {
		months++
	}
	return int(months)
}

// Age returns the age in whole years on now's calendar date.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// VacationYear returns the label of the July-to-June vacation year containing
// now, e.g. "2025-2026" for any date from 2025-07-01 to 2026-06-30.
func VacationYear(now time.Time) string {
	start := now.Year()
	if now.Month() < time.July {
		start--
	}
	return fmt.Sprintf("%d-%d", start, start+1)
}

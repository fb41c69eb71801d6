// internal/domain/schedule/dates.go
package schedule

import "time"

// NextExecutionDate advances anchor by the interval's number of months and
// places the result on executionDay, clamped to the last valid day of the
// target month (day 31 in a 30-day month lands on the 30th, day 29 in a
// non-leap February on the 28th). The clamp is derived from the target
// month's actual length on every call, so a previously clamped date does not
// stick: advancing from Feb 28 with executionDay 31 yields Mar 31.
//
// Pure calendar arithmetic; the result is midnight in anchor's location.
func NextExecutionDate(anchor time.Time, executionDay int, interval Interval) time.Time {
	// time.Date normalizes month overflow (e.g. month 14 -> February of the
	// next year), which gives us the target month without day spillover.
	firstOfTarget := time.Date(anchor.Year(), anchor.Month()+time.Month(interval.Months()), 1, 0, 0, 0, 0, anchor.Location())

	day := executionDay
	if last := lastDayOfMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, anchor.Location())
}

// lastDayOfMonth returns the number of days in the month containing t:
// the first of the next month minus one day.
func lastDayOfMonth(t time.Time) int {
	firstOfNextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return firstOfNextMonth.AddDate(0, 0, -1).Day()
}

// DateOnly truncates t to midnight in loc. Execution dates are calendar
// dates; storage and the (schedule, date) uniqueness key both operate on the
// normalized form.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	tl := t.In(loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, time.UTC)
}

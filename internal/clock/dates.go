package clock

import (
	"strings"
	"time"
)

// RangeKind selects the size of a reporting day window.
type RangeKind string

const (
	RangeDaily   RangeKind = "daily"
	RangeWeekly  RangeKind = "weekly"
	RangeMonthly RangeKind = "monthly"
)

// StartOfDayUTC truncates t to 00:00:00 UTC of the same calendar date.
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayWindow returns the [from, to] window for a reporting range. Daily covers
// the current calendar day up to now; weekly and monthly reach back 7 and 30
// days from the start of today.
func DayWindow(kind RangeKind, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch normalizeRange(kind) {
	case RangeWeekly:
		return StartOfDayUTC(now.AddDate(0, 0, -7)), now
	case RangeMonthly:
		return StartOfDayUTC(now.AddDate(0, 0, -30)), now
	default:
		return StartOfDayUTC(now), now
	}
}

// AddMonths adds n calendar months to d, clamping the day of month to the last
// valid day of the target month. AddDate is not used here: it normalizes
// Jan 31 + 1 month into March instead of clamping to the end of February.
func AddMonths(d time.Time, n int) time.Time {
	d = d.UTC()
	year, month, day := d.Date()

	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	lastDay := daysIn(firstOfTarget.Year(), firstOfTarget.Month())
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func normalizeRange(kind RangeKind) RangeKind {
	switch RangeKind(strings.ToLower(strings.TrimSpace(string(kind)))) {
	case RangeWeekly:
		return RangeWeekly
	case RangeMonthly:
		return RangeMonthly
	default:
		return RangeDaily
	}
}

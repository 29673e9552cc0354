package types

import (
	"time"

	ierr "github.com/billora/billora/internal/errors"
)

// NextBillingDate calculates the next billing date from the given start time,
// billing interval and interval count (the frequency multiplier).
// For example:
// - If the interval is MONTHLY and count is 2, we add two months.
// - If the interval is YEARLY and count is 1, we add one year.
// - If the interval is WEEKLY and count is 3, we add 21 days (3 weeks).
// For month-based intervals a preferred day-of-month may be given; the result
// lands on that day clamped to the target month's length, so a preferred day
// of 31 starting from Jan 31 advances to Feb 28 (29 in leap years), never
// overflowing into March.
func NextBillingDate(start time.Time, interval BillingInterval, count int, preferredDay int) (time.Time, error) {
	if count <= 0 {
		return start, ierr.NewError("billing interval count must be a positive integer").
			WithHintf("Got interval count %d", count).
			Mark(ierr.ErrValidation)
	}

	switch interval {
	case BillingIntervalDaily:
		return AddClampedDate(start, 0, 0, count, 0), nil
	case BillingIntervalWeekly:
		// 1 week = 7 days
		return AddClampedDate(start, 0, 0, 7*count, 0), nil
	case BillingIntervalMonthly:
		return AddClampedDate(start, 0, count, 0, preferredDay), nil
	case BillingIntervalQuarterly:
		// 1 quarter = 3 months
		return AddClampedDate(start, 0, 3*count, 0, preferredDay), nil
	case BillingIntervalYearly:
		return AddClampedDate(start, count, 0, 0, preferredDay), nil
	default:
		return start, ierr.NewError("invalid billing interval").
			WithHintf("Got billing interval %s", interval).
			Mark(ierr.ErrValidation)
	}
}

// AddClampedDate adds years, months and days to t. Day-only additions roll
// over month boundaries normally, but month and year moves do not use the
// day-overflow normalization of time.AddDate: the resulting day is clamped to
// the last valid day of the target month. A positive preferredDay overrides
// the source day before clamping, so templates anchored to e.g. the 31st stay
// anchored to month-end across short months.
func AddClampedDate(t time.Time, years, months, days, preferredDay int) time.Time {
	if years == 0 && months == 0 {
		return t.AddDate(0, 0, days)
	}

	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	// Normalize the month into [1, 12], carrying into the year,
	// for example adding 2 months to November lands on January next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	newD := d
	if preferredDay > 0 && (years != 0 || months != 0) {
		newD = preferredDay
	}
	newD += days
	if newD > lastDay {
		// Clamp to last valid day
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
}

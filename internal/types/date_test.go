package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextBillingDate(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		interval  BillingInterval
		count     int
		preferred int
		expected  time.Time
		wantErr   bool
	}{
		{
			name:     "daily",
			start:    date(2026, time.June, 28),
			interval: BillingIntervalDaily,
			count:    5,
			expected: date(2026, time.July, 3),
		},
		{
			name:     "daily rolls over the month boundary",
			start:    date(2026, time.June, 30),
			interval: BillingIntervalDaily,
			count:    1,
			expected: date(2026, time.July, 1),
		},
		{
			name:     "weekly multiplies by seven days",
			start:    date(2026, time.June, 1),
			interval: BillingIntervalWeekly,
			count:    3,
			expected: date(2026, time.June, 22),
		},
		{
			name:     "weekly rolls over the month boundary",
			start:    date(2026, time.January, 28),
			interval: BillingIntervalWeekly,
			count:    1,
			expected: date(2026, time.February, 4),
		},
		{
			name:     "monthly",
			start:    date(2026, time.April, 15),
			interval: BillingIntervalMonthly,
			count:    1,
			expected: date(2026, time.May, 15),
		},
		{
			name:     "monthly across year boundary",
			start:    date(2026, time.November, 15),
			interval: BillingIntervalMonthly,
			count:    2,
			expected: date(2027, time.January, 15),
		},
		{
			name:      "monthly clamps jan 31 to feb 28",
			start:     date(2026, time.January, 31),
			interval:  BillingIntervalMonthly,
			count:     1,
			preferred: 31,
			expected:  date(2026, time.February, 28),
		},
		{
			name:      "monthly clamps to feb 29 in leap years",
			start:     date(2028, time.January, 31),
			interval:  BillingIntervalMonthly,
			count:     1,
			preferred: 31,
			expected:  date(2028, time.February, 29),
		},
		{
			name:      "preferred day restores anchor after short month",
			start:     date(2026, time.February, 28),
			interval:  BillingIntervalMonthly,
			count:     1,
			preferred: 31,
			expected:  date(2026, time.March, 31),
		},
		{
			name:     "quarterly",
			start:    date(2026, time.January, 10),
			interval: BillingIntervalQuarterly,
			count:    1,
			expected: date(2026, time.April, 10),
		},
		{
			name:     "yearly from leap day",
			start:    date(2028, time.February, 29),
			interval: BillingIntervalYearly,
			count:    1,
			expected: date(2029, time.February, 28),
		},
		{
			name:     "zero count rejected",
			start:    date(2026, time.January, 1),
			interval: BillingIntervalMonthly,
			count:    0,
			wantErr:  true,
		},
		{
			name:     "unknown interval rejected",
			start:    date(2026, time.January, 1),
			interval: BillingInterval("FORTNIGHTLY"),
			count:    1,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextBillingDate(tt.start, tt.interval, tt.count, tt.preferred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestAddClampedDate(t *testing.T) {
	// the time of day is preserved
	start := time.Date(2026, time.January, 31, 9, 30, 15, 0, time.UTC)
	got := AddClampedDate(start, 0, 1, 0, 0)
	assert.Equal(t, time.Date(2026, time.February, 28, 9, 30, 15, 0, time.UTC), got)

	// negative months borrow from the year
	got = AddClampedDate(date(2026, time.January, 15), 0, -2, 0, 0)
	assert.Equal(t, date(2025, time.November, 15), got)

	// preferred day only kicks in when months or years move
	got = AddClampedDate(date(2026, time.March, 10), 0, 0, 5, 31)
	assert.Equal(t, date(2026, time.March, 15), got)

	// day addition from month-end keeps advancing instead of
	// clamping back to the source month
	got = AddClampedDate(date(2026, time.January, 31), 0, 0, 1, 0)
	assert.Equal(t, date(2026, time.February, 1), got)
	got = AddClampedDate(got, 0, 0, 1, 0)
	assert.Equal(t, date(2026, time.February, 2), got)
}

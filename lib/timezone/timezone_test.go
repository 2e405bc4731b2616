package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	evening := time.Date(2024, time.March, 15, 23, 30, 0, 0, Location)
	require.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), Date(evening))
}

func TestDaysBetween(t *testing.T) {
	testCases := []struct {
		from   time.Time
		to     time.Time
		expect int
	}{
		{
			from:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2024, time.March, 18, 0, 0, 0, 0, time.UTC),
			expect: 3,
		},
		{
			from:   time.Date(2024, time.March, 15, 22, 0, 0, 0, time.UTC),
			to:     time.Date(2024, time.March, 12, 1, 0, 0, 0, time.UTC),
			expect: -3,
		},
		{
			// crosses the spring DST change in the portal's timezone
			from:   time.Date(2024, time.March, 9, 12, 0, 0, 0, Location),
			to:     time.Date(2024, time.March, 11, 12, 0, 0, 0, Location),
			expect: 2,
		},
		{
			from:   time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			expect: 1,
		},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, DaysBetween(test.from, test.to), "%s -> %s", test.from, test.to)
	}
}

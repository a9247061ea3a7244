package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/errors"
)

// Wednesday
var fixedNow = time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC)

func TestParseTimestampAt(t *testing.T) {
	t.Run("empty_returns_now", func(t *testing.T) {
		result := ParseTimestampAt("", fixedNow)
		assert.NoError(t, result.Error)
		assert.Equal(t, fixedNow, result.Time)
	})

	t.Run("now_case_insensitive", func(t *testing.T) {
		result := ParseTimestampAt("  NOW ", fixedNow)
		assert.NoError(t, result.Error)
		assert.Equal(t, fixedNow, result.Time)
	})

	t.Run("iso_date", func(t *testing.T) {
		result := ParseTimestampAt("2024-01-01", fixedNow)
		require.NoError(t, result.Error)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), result.Time)
	})

	t.Run("iso_datetime", func(t *testing.T) {
		result := ParseTimestampAt("2024-01-01 18:45", fixedNow)
		require.NoError(t, result.Error)
		assert.Equal(t, time.Date(2024, 1, 1, 18, 45, 0, 0, time.UTC), result.Time)
	})

	t.Run("rfc3339", func(t *testing.T) {
		result := ParseTimestampAt("2024-01-01T10:00:00+02:00", fixedNow)
		require.NoError(t, result.Error)
		assert.True(t, result.Time.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	})

	t.Run("period_start", func(t *testing.T) {
		result := ParseTimestampAt("this month", fixedNow)
		require.NoError(t, result.Error)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), result.Time)
	})

	t.Run("yesterday", func(t *testing.T) {
		result := ParseTimestampAt("yesterday", fixedNow)
		require.NoError(t, result.Error)
		assert.Equal(t, 12, result.Time.Day())
	})

	t.Run("garbage", func(t *testing.T) {
		result := ParseTimestampAt("not a date at all xyz", fixedNow)
		require.Error(t, result.Error)
		assert.ErrorIs(t, result.Error, errors.ErrInvalidTimestamp)
	})
}

func TestGetPeriodRange(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		period     string
		start, end time.Time
	}{
		{"today", day(3, 13), day(3, 14)},
		{"yesterday", day(3, 12), day(3, 13)},
		{"this week", day(3, 11), day(3, 18)},
		{"last week", day(3, 4), day(3, 11)},
		{"current month", day(3, 1), day(4, 1)},
		{"last month", day(2, 1), day(3, 1)},
		{"this year", day(1, 1), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"previous year", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), day(1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			r, ok := GetPeriodRange(tt.period, fixedNow)
			require.True(t, ok)
			assert.Equal(t, tt.start, r.Start)
			assert.Equal(t, tt.end, r.End)
		})
	}

	t.Run("sunday_belongs_to_previous_week", func(t *testing.T) {
		sunday := time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)
		r, ok := GetPeriodRange("this week", sunday)
		require.True(t, ok)
		assert.Equal(t, day(3, 11), r.Start)
	})

	t.Run("unknown", func(t *testing.T) {
		_, ok := GetPeriodRange("fortnight", fixedNow)
		assert.False(t, ok)
	})
}

func TestTimeRangeContains(t *testing.T) {
	r, _ := GetPeriodRange("today", fixedNow)
	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(fixedNow))
	assert.False(t, r.Contains(r.End))
}

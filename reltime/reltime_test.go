package reltime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinks/apperr"
)

func TestParseMillis(t *testing.T) {
	tests := []struct {
		expr string
		want int64
	}{
		{"5h-30m", 19_800_000},
		{"1d", 86_400_000},
		{"10s", 10_000},
		{"1d 2h", 93_600_000},
		{"1h&15m&30s", 4_530_000},
		{"0s", 0},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseMillis("duration", tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMillisRejects(t *testing.T) {
	for _, expr := range []string{"5x", "", "h5", "5h-abc", "   ", "5h--30m", "5h ", "-5h", "1d&&2h"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseMillis("duration", expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTimeFormat)
			assert.True(t, apperr.IsValidation(err))
		})
	}

	_, err := ParseMillis("duration", "5h-5x")
	assert.Contains(t, err.Error(), "Invalid time format for segment: 5x")
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("duration", "1h-30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)
}

func TestCalculateTimeRangeRelative(t *testing.T) {
	now := time.Now()
	r, err := CalculateTimeRange(now, "5m", "1h")
	require.NoError(t, err)
	assert.Equal(t, int64(3_600_000), r.EndDate-r.StartDate)
	assert.InDelta(t, now.UnixMilli()+300_000, r.StartDate, 1000)
}

func TestCalculateTimeRangeAbsolute(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r, err := CalculateTimeRange(now, "2024-06-01T12:00:00Z", "1d")
	require.NoError(t, err)
	want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, want, r.StartDate)
	assert.Equal(t, want+86_400_000, r.EndDate)

	r, err = CalculateTimeRange(now, "2024-06-01", "2h")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), r.StartDate)
}

func TestCalculateTimeRangeErrors(t *testing.T) {
	now := time.Now()

	_, err := CalculateTimeRange(now, "next tuesday", "1h")
	assert.ErrorIs(t, err, ErrInvalidStartTime)

	_, err = CalculateTimeRange(now, "5m", "soon")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)

	_, err = CalculateTimeRange(now, "5m", "0s")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonPositiveDuration)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "duration", e.Field)
}

func TestParseMillisOverflow(t *testing.T) {
	for _, expr := range []string{"106751991168d", "9223372036854776s", "106751991167d 106751991167d", "99999999999999999999s"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseMillis("duration", expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTimeFormat)
			assert.True(t, apperr.IsValidation(err))
		})
	}

	// largest representable day count still parses
	ms, err := ParseMillis("duration", "106751991167d")
	require.NoError(t, err)
	assert.Equal(t, int64(106751991167)*86_400_000, ms)

	_, err = ParseDuration("duration", "106751991167d")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestCalculateTimeRangeOverflow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := CalculateTimeRange(now, "106751991167d", "1h")
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "startTime", e.Field)

	_, err = CalculateTimeRange(now, "5m", "106751991167d")
	require.Error(t, err)
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "duration", e.Field)

	_, err = CalculateTimeRange(now, "213503982336d", "1h")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

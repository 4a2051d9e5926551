// Package reltime turns compound relative expressions such as "5h-30m" or
// "1d 2h" into durations, and start/duration pairs into millisecond ranges.
package reltime

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"blinks/apperr"
)

var (
	ErrInvalidTimeFormat   = errors.New("invalid time format")
	ErrInvalidStartTime    = errors.New("invalid start time")
	ErrNonPositiveDuration = errors.New("non-positive duration")
)

var (
	separators   = regexp.MustCompile(`[\s&-]`)
	segmentRe    = regexp.MustCompile(`^(\d+)([smhd])$`)
	relativeExpr = regexp.MustCompile(`^(\d+[smhd][\s&-]?)+$`)
)

var unitMillis = map[string]int64{
	"s": 1000,
	"m": 60 * 1000,
	"h": 60 * 60 * 1000,
	"d": 24 * 60 * 60 * 1000,
}

// absoluteLayouts are tried in order for a start time that is not relative.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Range is a challenge window in epoch milliseconds.
type Range struct {
	StartDate int64 `json:"startDate"`
	EndDate   int64 `json:"endDate"`
}

// ParseMillis sums the segments of expr. Segments are separated by a single
// whitespace, '&' or '-'; each must be digits followed by s, m, h or d, so
// doubled or trailing separators are rejected. Sums that do not fit in int64
// milliseconds are rejected too. field names the parameter in the returned
// validation error.
func ParseMillis(field, expr string) (int64, error) {
	var total int64
	for _, seg := range separators.Split(expr, -1) {
		m := segmentRe.FindStringSubmatch(seg)
		if m == nil {
			return 0, apperr.Validationf(field, ErrInvalidTimeFormat, "Invalid time format for segment: %s", seg)
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, apperr.Validationf(field, ErrInvalidTimeFormat, "Invalid time format for segment: %s", seg)
		}
		unit := unitMillis[m[2]]
		if n > (math.MaxInt64-total)/unit {
			return 0, apperr.Validationf(field, ErrInvalidTimeFormat, "Time value out of range: %s", expr)
		}
		total += n * unit
	}
	return total, nil
}

// ParseDuration is ParseMillis as a time.Duration.
func ParseDuration(field, expr string) (time.Duration, error) {
	ms, err := ParseMillis(field, expr)
	if err != nil {
		return 0, err
	}
	if ms > int64(math.MaxInt64/time.Millisecond) {
		return 0, apperr.Validationf(field, ErrInvalidTimeFormat, "Time value out of range: %s", expr)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// IsRelative reports whether s is a compound relative expression.
func IsRelative(s string) bool {
	return relativeExpr.MatchString(s)
}

// CalculateTimeRange resolves startTime (relative to now, or an absolute
// date) and adds duration. Zero-length and negative windows are rejected.
func CalculateTimeRange(now time.Time, startTime, duration string) (Range, error) {
	startTime = strings.TrimSpace(startTime)

	var start int64
	if IsRelative(startTime) {
		offset, err := ParseMillis("startTime", startTime)
		if err != nil {
			return Range{}, err
		}
		base := now.UnixMilli()
		if base > 0 && offset > math.MaxInt64-base {
			return Range{}, apperr.Validationf("startTime", ErrInvalidTimeFormat, "Start time out of range: %s", startTime)
		}
		start = base + offset
	} else {
		t, ok := parseAbsolute(startTime)
		if !ok {
			return Range{}, apperr.Validationf("startTime", ErrInvalidStartTime, "Invalid start time format")
		}
		start = t.UnixMilli()
	}

	d, err := ParseMillis("duration", strings.TrimSpace(duration))
	if err != nil {
		return Range{}, err
	}
	if d <= 0 {
		return Range{}, apperr.Validationf("duration", ErrNonPositiveDuration, "Duration must be greater than zero")
	}

	if start > 0 && d > math.MaxInt64-start {
		return Range{}, apperr.Validationf("duration", ErrInvalidTimeFormat, "End date out of range")
	}
	return Range{StartDate: start, EndDate: start + d}, nil
}

func parseAbsolute(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// bare epoch milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

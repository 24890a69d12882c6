// Package duration parses human-readable duration strings such as "5 mins",
// "200 ms", "1m" or "1.5 hours". A bare number is read as milliseconds.
// Compound Go durations ("1h30m") are accepted as well.
package duration

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
)

// ErrInvalid is returned for strings that are not a recognised duration.
var ErrInvalid = errors.New(errors.CodeInvalidInput, "invalid duration")

const maxInput = 100

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = time.Duration(365.25 * float64(day))
)

var pattern = regexp.MustCompile(`(?i)^(-?(?:\d+)?\.?\d+) *(milliseconds?|msecs?|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w|years?|yrs?|y)?$`)

var units = map[string]time.Duration{
	"years": year, "year": year, "yrs": year, "yr": year, "y": year,
	"weeks": week, "week": week, "w": week,
	"days": day, "day": day, "d": day,
	"hours": time.Hour, "hour": time.Hour, "hrs": time.Hour, "hr": time.Hour, "h": time.Hour,
	"minutes": time.Minute, "minute": time.Minute, "mins": time.Minute, "min": time.Minute, "m": time.Minute,
	"seconds": time.Second, "second": time.Second, "secs": time.Second, "sec": time.Second, "s": time.Second,
	"milliseconds": time.Millisecond, "millisecond": time.Millisecond,
	"msecs": time.Millisecond, "msec": time.Millisecond, "ms": time.Millisecond,
}

// Parse converts s into a time.Duration.
func Parse(s string) (time.Duration, error) {
	in := strings.TrimSpace(s)
	if in == "" || len(in) > maxInput {
		return 0, errors.Wrapf(ErrInvalid, errors.CodeInvalidInput, "parse duration %q", s)
	}

	m := pattern.FindStringSubmatch(in)
	if m == nil {
		if d, err := time.ParseDuration(in); err == nil {
			return d, nil
		}
		return 0, errors.Wrapf(ErrInvalid, errors.CodeInvalidInput, "parse duration %q", s)
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalid, errors.CodeInvalidInput, "parse duration %q", s)
	}

	unit := time.Millisecond
	if m[2] != "" {
		unit = units[strings.ToLower(m[2])]
	}

	d := n * float64(unit)
	if math.Abs(d) > math.MaxInt64 {
		return 0, errors.Wrapf(ErrInvalid, errors.CodeInvalidInput, "duration %q out of range", s)
	}
	return time.Duration(math.Round(d)), nil
}

// Millis converts a millisecond count into a time.Duration, saturating at the
// representable range. NaN is zero.
func Millis(ms float64) time.Duration {
	d := math.Round(ms * float64(time.Millisecond))
	switch {
	case math.IsNaN(d):
		return 0
	case d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(d)
}

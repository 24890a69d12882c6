package expiration

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/krisalay/keshi/duration"
)

// ErrInvalidExpiry is returned when an expiresIn value cannot be turned into a Policy.
var ErrInvalidExpiry = errors.New(errors.CodeInvalidInput, "invalid expiry")

/*
FromValue converts a caller-supplied expiresIn value into a Policy anchored at now.

Accepted values:
- nil, "" and non-positive numbers or durations: no expiration
- time.Duration: now + d
- integers and floats: now + n milliseconds
- string: parsed with duration.Parse, then now + d
- time.Time: absolute deadline (the zero time means no expiration)
- func() bool, func(context.Context) (bool, error), PredicateFunc: predicate policy
- Policy: used as-is
*/
func FromValue(v any, now time.Time) (Policy, error) {
	switch x := v.(type) {
	case nil:
		return Never{}, nil
	case Policy:
		return x, nil
	case time.Duration:
		return TTL(x, now), nil
	case int:
		return ttlMillis(float64(x), now)
	case int32:
		return ttlMillis(float64(x), now)
	case int64:
		return ttlMillis(float64(x), now)
	case uint:
		return ttlMillis(float64(x), now)
	case uint32:
		return ttlMillis(float64(x), now)
	case uint64:
		return ttlMillis(float64(x), now)
	case float32:
		return ttlMillis(float64(x), now)
	case float64:
		return ttlMillis(x, now)
	case string:
		if x == "" {
			return Never{}, nil
		}
		d, err := duration.Parse(x)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidExpiry, errors.CodeInvalidInput, "expiresIn %q: %v", x, err)
		}
		return TTL(d, now), nil
	case time.Time:
		if x.IsZero() {
			return Never{}, nil
		}
		return Deadline{At: x}, nil
	case PredicateFunc:
		return Predicate{Fn: x}, nil
	case func(context.Context) (bool, error):
		return Predicate{Fn: x}, nil
	case func() bool:
		return Predicate{Fn: func(context.Context) (bool, error) { return x(), nil }}, nil
	default:
		return nil, errors.Wrap(ErrInvalidExpiry, errors.CodeInvalidInput, fmt.Sprintf("unsupported expiresIn type %T", v))
	}
}

// ttlMillis rejects millisecond counts no time.Duration can hold.
func ttlMillis(ms float64, now time.Time) (Policy, error) {
	if math.IsNaN(ms) || math.Abs(ms*float64(time.Millisecond)) > math.MaxInt64 {
		return nil, errors.Wrapf(ErrInvalidExpiry, errors.CodeInvalidInput, "expiresIn %v ms out of range", ms)
	}
	return TTL(duration.Millis(ms), now), nil
}

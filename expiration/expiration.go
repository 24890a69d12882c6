// This file defines how cache entries expire over time.

package expiration

import (
	"context"
	"time"
)

/*
Policy is the rule that decides whether a cached entry is stale. Instead of hard-coding
expiration logic into the cache, every entry carries its own policy, chosen when the entry is written.

Variants:
- Never: the entry never expires
- Deadline: the entry expires once the clock passes a fixed instant (TTLs are resolved into deadlines at write time)
- Predicate: a callable asked on every access whether the entry has expired
*/
type Policy interface {

	// Expired reports whether the entry is stale at the given instant.
	// Predicate policies may block and may fail.
	Expired(ctx context.Context, now time.Time) (bool, error)
}

// Never is the no-expiry policy.
type Never struct{}

func (Never) Expired(context.Context, time.Time) (bool, error) { return false, nil }

// Deadline expires strictly after At.
type Deadline struct {
	At time.Time
}

func (d Deadline) Expired(_ context.Context, now time.Time) (bool, error) {
	return now.After(d.At), nil
}

// PredicateFunc reports whether an entry has expired.
type PredicateFunc func(ctx context.Context) (bool, error)

// Predicate is re-evaluated lazily on every access rather than converted into a deadline.
type Predicate struct {
	Fn PredicateFunc
}

func (p Predicate) Expired(ctx context.Context, _ time.Time) (bool, error) {
	if p.Fn == nil {
		return false, nil
	}
	return p.Fn(ctx)
}

// TTL resolves a relative duration into a Deadline policy. A non-positive ttl means no expiration.
func TTL(ttl time.Duration, now time.Time) Policy {
	if ttl <= 0 {
		return Never{}
	}
	return Deadline{At: now.Add(ttl)}
}

// Persistable reports whether p can be stored outside the process.
// Predicates are closures and only live in memory.
func Persistable(p Policy) bool {
	switch p.(type) {
	case nil, Never, *Never, Deadline, *Deadline:
		return true
	default:
		return false
	}
}

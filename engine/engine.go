package engine

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/krisalay/keshi/expiration"
	"github.com/krisalay/keshi/types"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- Which expiry policy a write gets from the caller's expiresIn value
- Whether an entry is expired right now
- What time it is (so tests can simulate the clock)
- How events are recorded (metrics) and reported (logger)

It does NOT:
- Store data
- Deduplicate computations
- Schedule the background sweep
*/
type CacheEngine struct {

	// Metrics is how we keep track of what the cache is doing.
	// Hits, misses, expirations, shared computations, failures and sweeps.
	Metrics types.Metrics

	// Logger receives structured debug output. Never nil.
	Logger *log.Logger

	// Clock returns the current instant. Defaults to time.Now.
	Clock func() time.Time
}

/*
NewCacheEngine creates a CacheEngine. Every argument may be nil.
*/
func NewCacheEngine(metrics types.Metrics, logger *log.Logger, clock func() time.Time) *CacheEngine {

	// Ensure metrics and logger are always non-nil
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if clock == nil {
		clock = time.Now
	}

	return &CacheEngine{
		Metrics: metrics,
		Logger:  logger,
		Clock:   clock,
	}
}

// Now returns the engine's notion of the current time.
func (e *CacheEngine) Now() time.Time {
	return e.Clock()
}

/*
Policy turns an expiresIn value into the policy stored with a new entry.
TTLs are resolved against now; predicates are kept lazy.
*/
func (e *CacheEngine) Policy(expiresIn any, now time.Time) (expiration.Policy, error) {
	return expiration.FromValue(expiresIn, now)
}

/*
IsExpired checks whether a cache entry is expired.

BEHAVIOR:
---------
- Delegates the decision to the entry's own policy
- Uses the engine clock
- A predicate may block or fail; the error is returned to the caller
*/
func (e *CacheEngine) IsExpired(ctx context.Context, ent *types.Entry) (bool, error) {
	return ent.Expired(ctx, e.Now())
}

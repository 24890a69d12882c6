package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when resolve finds a live entry.
	Hit()

	// Miss is called when resolve finds no entry, or only an expired one.
	Miss()

	// Expire is called when an expired entry is removed on access.
	Expire()

	// Shared is called when a caller gets its result from a computation other callers share.
	Shared()

	// Failure is called when a producer fails. Failures are never cached.
	Failure()

	// Sweep is called after every background sweep pass with the number of entries it removed.
	Sweep(removed int)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics, so the cache works
without nil checks when nobody cares about metrics.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Expire()   {}
func (NoopMetrics) Shared()   {}
func (NoopMetrics) Failure()  {}
func (NoopMetrics) Sweep(int) {}

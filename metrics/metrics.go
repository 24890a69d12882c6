// Package metrics provides types.Metrics implementations: plain atomic
// counters for tests and tools, and a Prometheus exporter.
package metrics

import (
	"sync/atomic"

	"github.com/krisalay/keshi/types"
)

// Counting records every cache event in atomic counters.
type Counting struct {
	Hits     atomic.Int64
	Misses   atomic.Int64
	Expired  atomic.Int64
	Shares   atomic.Int64
	Failures atomic.Int64
	Sweeps   atomic.Int64
	Swept    atomic.Int64
}

var _ types.Metrics = (*Counting)(nil)

func (c *Counting) Hit()     { c.Hits.Add(1) }
func (c *Counting) Miss()    { c.Misses.Add(1) }
func (c *Counting) Expire()  { c.Expired.Add(1) }
func (c *Counting) Shared()  { c.Shares.Add(1) }
func (c *Counting) Failure() { c.Failures.Add(1) }

func (c *Counting) Sweep(removed int) {
	c.Sweeps.Add(1)
	c.Swept.Add(int64(removed))
}

// Snapshot is a point-in-time copy of a Counting.
type Snapshot struct {
	Hits, Misses, Expired, Shares, Failures, Sweeps, Swept int64
}

func (c *Counting) Snapshot() Snapshot {
	return Snapshot{
		Hits:     c.Hits.Load(),
		Misses:   c.Misses.Load(),
		Expired:  c.Expired.Load(),
		Shares:   c.Shares.Load(),
		Failures: c.Failures.Load(),
		Sweeps:   c.Sweeps.Load(),
		Swept:    c.Swept.Load(),
	}
}

// HitRatio is hits over hits plus misses, or zero before any lookup.
func (s Snapshot) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

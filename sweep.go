package cache

import (
	"context"
	"time"
)

// sweepLoop re-arms its timer only after a pass completes, so a slow backend
// stretches the period instead of stacking passes.
func (c *Cache) sweepLoop(ctx context.Context) {
	defer c.wg.Done()

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			c.sweep(ctx)
			timer.Reset(c.interval)
		}
	}
}

// sweep removes every expired entry it can find. Failures are isolated per
// key: one bad entry never aborts the pass.
func (c *Cache) sweep(ctx context.Context) int {
	logger := c.engine.Logger

	keys, err := c.store.Keys(ctx)
	if err != nil {
		logger.Debug("sweep: list keys", "error", err)
		return 0
	}

	removed := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}

		ent, ok, err := c.store.Get(ctx, key)
		if err != nil {
			logger.Debug("sweep: get", "key", key, "error", err)
			continue
		}
		if !ok || ent == nil {
			continue
		}

		expired, err := c.engine.IsExpired(ctx, ent)
		if err != nil {
			logger.Debug("sweep: evaluate expiry", "key", key, "error", err)
			continue
		}
		if !expired {
			continue
		}

		ok, err = c.remove(ctx, key, ent)
		if err != nil {
			logger.Debug("sweep: delete", "key", key, "error", err)
			continue
		}
		if ok {
			removed++
		}
	}

	c.engine.Metrics.Sweep(removed)
	logger.Debug("sweep complete", "keys", len(keys), "removed", removed)
	return removed
}

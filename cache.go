package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/jmgilman/go/errors"
	"github.com/krisalay/keshi/engine"
	"github.com/krisalay/keshi/storage"
	"github.com/krisalay/keshi/types"
	"golang.org/x/sync/singleflight"
)

// Producer computes the value for a key on a miss. It may block; its
// cancellation and timeouts are its own business and surface as errors.
type Producer func(ctx context.Context) (any, error)

/*
Cache is the main cache implementation.
This struct is the orchestrator that connects:
- storage (the single source of truth for entries)
- the engine (expiry policies, clock, metrics, logging)
- per-key single flights (deduplication of concurrent producers)
- the background sweep
*/
type Cache struct {
	store  storage.Storage
	engine *engine.CacheEngine

	// flights makes sure that, per key, only one goroutine at a time runs the
	// re-check / publish / produce / settle sequence. Goroutines arriving
	// meanwhile wait for and share its result.
	flights singleflight.Group

	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stop     sync.Once
}

// New constructs a cache and starts the background sweep (unless disabled).
//
// New never returns a nil Cache.
func New(opts Options) *Cache {
	opts = opts.withDefaults()

	c := &Cache{
		store:    opts.Storage,
		engine:   engine.NewCacheEngine(opts.Metrics, opts.Logger, opts.Now),
		interval: opts.CleanupInterval,
	}

	if c.interval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.wg.Add(1)
		go c.sweepLoop(ctx)
	}

	return c
}

type state int

const (
	absent state = iota
	live
	stale
)

// lookup fetches key and classifies it against its expiry policy.
func (c *Cache) lookup(ctx context.Context, key string) (*types.Entry, state, error) {
	ent, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, absent, storageErr(err, fmt.Sprintf("get %q", key))
	}
	if !ok || ent == nil {
		return nil, absent, nil
	}

	expired, err := c.engine.IsExpired(ctx, ent)
	if err != nil {
		return nil, absent, errors.Wrapf(err, errors.CodeExecutionFailed, "evaluate expiry of %q", key)
	}
	if expired {
		return ent, stale, nil
	}
	return ent, live, nil
}

/*
Resolve is the get-or-compute operation.

BEHAVIOR:
---------
1. If key holds a live entry, its value is returned. A pending entry (a
   computation still in flight) is waited for, so every concurrent caller
   shares the same result.
2. If key is missing or expired and producer is nil, the stale entry is
   removed and found is false.
3. Otherwise the producer runs once per key: a pending entry carrying the
   expiry derived from expiresIn is stored before the producer is awaited,
   then replaced with the settled value. A failed producer leaves nothing
   behind, so the next call retries.

A malformed expiresIn fails before the producer is invoked.

ctx bounds how long this caller waits. It is not propagated as a cancellation
to the producer, which runs on behalf of every caller sharing it and receives
only ctx's values.
*/
func (c *Cache) Resolve(ctx context.Context, key string, producer Producer, expiresIn any) (value any, found bool, err error) {
	ent, st, err := c.lookup(ctx, key)
	if err != nil {
		return nil, false, err
	}

	if st == live {
		if ent.Pending() && !ent.Call.Settled() {
			c.engine.Metrics.Shared()
		} else {
			c.engine.Metrics.Hit()
		}
		v, err := ent.Load(ctx)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}

	c.engine.Metrics.Miss()
	if st == stale {
		c.engine.Metrics.Expire()
	}

	if producer == nil {
		if st == stale {
			if _, err := c.remove(ctx, key, ent); err != nil {
				return nil, false, err
			}
		}
		return nil, false, nil
	}

	flight := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		return c.compute(flight, key, producer, expiresIn)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.engine.Metrics.Shared()
		}
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// compute runs inside the key's single flight, under a context that no
// caller's cancellation reaches.
func (c *Cache) compute(ctx context.Context, key string, producer Producer, expiresIn any) (any, error) {
	// A flight that finished just before this one started may have stored a fresh entry.
	ent, st, err := c.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if st == live {
		return ent.Load(ctx)
	}

	now := c.engine.Now()
	policy, err := c.engine.Policy(expiresIn, now)
	if err != nil {
		return nil, err
	}

	call := types.NewCall()
	pending := &types.Entry{Key: key, Call: call, Policy: policy, CreatedAt: now}
	if err := c.store.Set(ctx, key, pending); err != nil {
		return nil, storageErr(err, fmt.Sprintf("publish pending %q", key))
	}

	val, err := invoke(ctx, producer)
	if err != nil {
		call.Settle(nil, err)
		c.engine.Metrics.Failure()
		c.engine.Logger.Debug("producer failed", "key", key, "error", err)
		if rerr := c.replace(ctx, key, pending, nil); rerr != nil {
			c.engine.Logger.Warn("discard failed entry", "key", key, "error", rerr)
		}
		return nil, err
	}

	// Waiters on the pending handle are released only once the outcome of the
	// write is known, so one computation never ends up both failed and cached.
	settled := &types.Entry{Key: key, Value: val, Policy: policy, CreatedAt: now}
	if err := c.replace(ctx, key, pending, settled); err != nil {
		call.Settle(nil, err)
		if rerr := c.replace(ctx, key, pending, nil); rerr != nil {
			c.engine.Logger.Warn("discard unsettled entry", "key", key, "error", rerr)
		}
		return nil, err
	}
	call.Settle(val, nil)
	return val, nil
}

func invoke(ctx context.Context, producer Producer) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			val = nil
			err = errors.Wrapf(ErrProducerPanic, errors.CodeInternal, "producer panicked: %v", r)
		}
	}()
	return producer(ctx)
}

// replace swaps the pending entry for next (nil deletes it). Nothing happens
// when key no longer holds pending: a delete, clear or newer write won.
func (c *Cache) replace(ctx context.Context, key string, pending, next *types.Entry) error {
	if sw, ok := c.store.(storage.Swapper); ok {
		_, err := sw.CompareAndSwap(ctx, key, pending, next)
		return storageErr(err, fmt.Sprintf("settle %q", key))
	}

	cur, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return storageErr(err, fmt.Sprintf("settle %q", key))
	}
	if !ok || cur == nil || cur.Call != pending.Call {
		return nil
	}
	if next == nil {
		return storageErr(c.store.Delete(ctx, key), fmt.Sprintf("discard %q", key))
	}
	return storageErr(c.store.Set(ctx, key, next), fmt.Sprintf("settle %q", key))
}

// remove deletes an entry found stale, leaving any newer write in place when
// the adapter can tell the difference.
func (c *Cache) remove(ctx context.Context, key string, stale *types.Entry) (bool, error) {
	if sw, ok := c.store.(storage.Swapper); ok {
		swapped, err := sw.CompareAndSwap(ctx, key, stale, nil)
		return swapped, storageErr(err, fmt.Sprintf("delete %q", key))
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return false, storageErr(err, fmt.Sprintf("delete %q", key))
	}
	return true, nil
}

/*
Set stores a settled value under key, replacing whatever was there.
expiresIn accepts the same values as Resolve.
*/
func (c *Cache) Set(ctx context.Context, key string, value any, expiresIn any) error {
	now := c.engine.Now()
	policy, err := c.engine.Policy(expiresIn, now)
	if err != nil {
		return err
	}
	ent := &types.Entry{Key: key, Value: value, Policy: policy, CreatedAt: now}
	return storageErr(c.store.Set(ctx, key, ent), fmt.Sprintf("set %q", key))
}

/*
Delete removes key. With matchStart, key is a prefix and every entry whose key
starts with it is removed, the prefix itself included. Prefix deletion lists
the whole key set, so it costs O(number of keys).

Deleting missing keys is not an error. Every matching key is attempted; the
failures are joined.
*/
func (c *Cache) Delete(ctx context.Context, key string, matchStart bool) error {
	if !matchStart {
		return storageErr(c.store.Delete(ctx, key), fmt.Sprintf("delete %q", key))
	}

	keys, err := c.store.Keys(ctx)
	if err != nil {
		return storageErr(err, "list keys")
	}

	var errs []error
	for _, k := range keys {
		if !strings.HasPrefix(k, key) {
			continue
		}
		if err := c.store.Delete(ctx, k); err != nil {
			errs = append(errs, storageErr(err, fmt.Sprintf("delete %q", k)))
		}
	}
	return stderrors.Join(errs...)
}

/*
DeleteMatching removes every entry whose key matches a glob pattern and
returns how many were removed. '.' and ':' separate key segments: '*' stays
within a segment, '**' crosses them.

	c.DeleteMatching(ctx, "user:*.profile")
*/
func (c *Cache) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	g, err := glob.Compile(pattern, '.', ':')
	if err != nil {
		return 0, errors.Wrapf(err, errors.CodeInvalidInput, "compile pattern %q", pattern)
	}

	keys, err := c.store.Keys(ctx)
	if err != nil {
		return 0, storageErr(err, "list keys")
	}

	removed := 0
	var errs []error
	for _, k := range keys {
		if !g.Match(k) {
			continue
		}
		if err := c.store.Delete(ctx, k); err != nil {
			errs = append(errs, storageErr(err, fmt.Sprintf("delete %q", k)))
			continue
		}
		removed++
	}
	return removed, stderrors.Join(errs...)
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	return storageErr(c.store.Clear(ctx), "clear")
}

/*
Teardown stops the background sweep and waits for a running pass to finish.
It does not clear entries and does not cancel in-flight resolves.

Teardown is safe to call multiple times, and on a cache without a sweep.
*/
func (c *Cache) Teardown() {
	c.stop.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
	})
	c.wg.Wait()
}

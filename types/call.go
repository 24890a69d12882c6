package types

import (
	"context"
	"sync"
)

// Call is a pending handle: the shared result of one producer invocation.
// Every caller that observes the same Call waits for the same result.
type Call struct {
	once sync.Once
	done chan struct{}
	val  any
	err  error
}

func NewCall() *Call {
	return &Call{done: make(chan struct{})}
}

// Settle records the result and releases waiters. Only the first call has an effect.
func (c *Call) Settle(val any, err error) {
	c.once.Do(func() {
		c.val, c.err = val, err
		close(c.done)
	})
}

// Done is closed once the call has settled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

func (c *Call) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the call settles or ctx is done. Cancelling ctx only
// abandons this waiter; the computation keeps running for the others.
func (c *Call) Wait(ctx context.Context) (any, error) {
	select {
	case <-c.done:
		return c.val, c.err
	default:
	}

	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

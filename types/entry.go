package types

import (
	"context"
	"time"

	"github.com/krisalay/keshi/expiration"
)

// Entry is the unit of cached state: a value (or the pending computation that will
// produce it) plus the policy deciding when it goes stale.
//
// Entries are treated as immutable once handed to a storage adapter; replacing a
// value means writing a new Entry under the same key.
type Entry struct {
	Key string

	// Value holds the settled payload. It is meaningless while Call is non-nil.
	Value any

	// Call is the in-flight computation. Nil once the entry has settled.
	Call *Call

	Policy    expiration.Policy
	CreatedAt time.Time
}

// Pending reports whether the entry is a pending handle.
func (e *Entry) Pending() bool {
	return e.Call != nil
}

// Load returns the entry's value, waiting for an in-flight computation if needed.
func (e *Entry) Load(ctx context.Context) (any, error) {
	if e.Call != nil {
		return e.Call.Wait(ctx)
	}
	return e.Value, nil
}

// Expired evaluates the entry's policy. Entries without a policy never expire.
func (e *Entry) Expired(ctx context.Context, now time.Time) (bool, error) {
	if e.Policy == nil {
		return false, nil
	}
	return e.Policy.Expired(ctx, now)
}

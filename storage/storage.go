// Package storage defines the backing store the cache delegates raw
// persistence to, plus the adapters that ship with it.
//
// The cache never keeps entries outside its Storage, so an adapter is the
// single source of truth for what is cached. Adapters must be safe for
// concurrent use; a Set replaces the previous entry for the key atomically
// from the caller's point of view. Every method takes a context because an
// adapter may be slow (a remote store, a disk).
package storage

import (
	"context"

	"github.com/krisalay/keshi/types"
)

// Storage is the five-operation capability set every backend must provide.
type Storage interface {

	// Get returns the entry stored under key. A missing key is reported as
	// (nil, false, nil), never as an error.
	Get(ctx context.Context, key string) (*types.Entry, bool, error)

	// Set inserts or replaces the entry stored under key.
	Set(ctx context.Context, key string, ent *types.Entry) error

	// Keys returns every stored key, in no particular order.
	Keys(ctx context.Context) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// Swapper is an optional capability: an atomic compare-and-swap on one key.
// When an adapter provides it, the cache uses it so that settling a
// computation or sweeping an expired entry never clobbers a newer write.
//
// Adapters without it get a get-compare-set fallback, which is only as
// atomic as the adapter itself.
type Swapper interface {

	// CompareAndSwap stores next under key only if the stored entry is old
	// (pointer identity). A nil next deletes the key. It reports whether
	// the swap happened.
	CompareAndSwap(ctx context.Context, key string, old, next *types.Entry) (bool, error)
}

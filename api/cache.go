package cache

import (
	"context"

	keshi "github.com/krisalay/keshi"
)

/*
Cache defines the PUBLIC API of the memoizing cache.
This is a contract that guarantees certain behaviors, without exposing internals.
Storage, expiry policies, deduplication of in-flight computations and the
background sweep are hidden behind this interface.
*/
type Cache interface {

	/*
		Resolve returns the value cached under key, computing it with producer on a miss.

		BEHAVIOR:
		-------------------
		1. If the key holds a live entry:
		   - Return its value (waiting for it if it is still being computed)

		2. If the key is missing or expired:
		   - Without a producer, report found = false
		   - Otherwise run the producer once, store the value with the expiry
		     derived from expiresIn, return it
	*/
	Resolve(ctx context.Context, key string, producer keshi.Producer, expiresIn any) (any, bool, error)

	/*
		Set stores a settled value, replacing any existing entry.
	*/
	Set(ctx context.Context, key string, value any, expiresIn any) error

	/*
		Delete removes one key, or every key starting with key when matchStart is true.

		This operation is idempotent:
		- Removing a non-existing key is safe
	*/
	Delete(ctx context.Context, key string, matchStart bool) error

	/*
		DeleteMatching removes every key matching a glob pattern and reports how many went.
	*/
	DeleteMatching(ctx context.Context, pattern string) (int, error)

	/*
		Clear removes every entry.
	*/
	Clear(ctx context.Context) error

	/*
		Teardown stops the background sweep.

		BEHAVIOR:
		---------
		- Idempotent
		- Keeps existing entries
		- Does not cancel in-flight resolves
	*/
	Teardown()
}

var _ Cache = (*keshi.Cache)(nil)

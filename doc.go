/*
Package cache is an in-process memoizing cache.

It maps string keys to values that are computed lazily on demand, each entry
carrying its own expiry policy: none, an absolute deadline, a TTL resolved to a
deadline at write time, or a predicate asked on every access.

	c := cache.New(cache.Options{CleanupInterval: time.Minute})
	defer c.Teardown()

	user, _, err := cache.Resolve(ctx, c, "user:42", fetchUser, "5 mins")

Concurrent resolves of the same key share one computation: a pending entry is
stored before the producer is awaited and every caller waits on it. Failed
computations are never cached.

Entries live in a pluggable storage.Storage (in memory by default). A
background sweep, re-armed after every pass, removes expired entries nobody
reads again; reads always re-check expiry themselves.
*/
package cache

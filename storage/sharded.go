package storage

import (
	"context"
	"hash/fnv"

	"github.com/krisalay/keshi/types"
)

/*
Sharded splits the key space across independent Memory shards.
Instead of one big map behind one big lock, every shard has its own lock,
so writers for different keys rarely contend.
*/
type Sharded struct {
	shards   []*Memory
	selector Selector
}

/*
Selector decides which shard a key belongs to.
The adapter does not care HOW this decision is made. Different strategies can be plugged in.
*/
type Selector interface {
	Select(key string, n int) int
}

// HashSelector assigns keys by FNV-1a hash, a fast non-cryptographic hash.
type HashSelector struct{}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (HashSelector) Select(key string, n int) int {
	return int(hash(key) % uint32(n))
}

// NewSharded creates an adapter with n shards (at least one).
func NewSharded(n int) *Sharded {
	if n < 1 {
		n = 1
	}
	s := make([]*Memory, n)
	for i := range s {
		s[i] = NewMemory()
	}
	return &Sharded{shards: s, selector: HashSelector{}}
}

func (s *Sharded) shard(key string) *Memory {
	return s.shards[s.selector.Select(key, len(s.shards))]
}

func (s *Sharded) Get(ctx context.Context, key string) (*types.Entry, bool, error) {
	return s.shard(key).Get(ctx, key)
}

func (s *Sharded) Set(ctx context.Context, key string, ent *types.Entry) error {
	return s.shard(key).Set(ctx, key, ent)
}

func (s *Sharded) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	for _, sh := range s.shards {
		k, err := sh.Keys(ctx)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
	}
	return keys, nil
}

func (s *Sharded) Delete(ctx context.Context, key string) error {
	return s.shard(key).Delete(ctx, key)
}

func (s *Sharded) Clear(ctx context.Context) error {
	for _, sh := range s.shards {
		if err := sh.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the total number of entries across shards.
func (s *Sharded) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

func (s *Sharded) CompareAndSwap(ctx context.Context, key string, old, next *types.Entry) (bool, error) {
	return s.shard(key).CompareAndSwap(ctx, key, old, next)
}

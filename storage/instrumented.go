package storage

import (
	"context"
	"sync/atomic"

	"github.com/krisalay/keshi/types"
)

// Instrumented wraps a Storage and counts the calls made through it.
type Instrumented struct {
	Storage

	Gets    atomic.Int64
	Sets    atomic.Int64
	Listing atomic.Int64
	Deletes atomic.Int64
	Clears  atomic.Int64
}

func NewInstrumented(s Storage) *Instrumented {
	return &Instrumented{Storage: s}
}

func (i *Instrumented) Get(ctx context.Context, key string) (*types.Entry, bool, error) {
	i.Gets.Add(1)
	return i.Storage.Get(ctx, key)
}

func (i *Instrumented) Set(ctx context.Context, key string, ent *types.Entry) error {
	i.Sets.Add(1)
	return i.Storage.Set(ctx, key, ent)
}

func (i *Instrumented) Keys(ctx context.Context) ([]string, error) {
	i.Listing.Add(1)
	return i.Storage.Keys(ctx)
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	i.Deletes.Add(1)
	return i.Storage.Delete(ctx, key)
}

func (i *Instrumented) Clear(ctx context.Context) error {
	i.Clears.Add(1)
	return i.Storage.Clear(ctx)
}

package cache

import (
	"context"
	"fmt"

	"github.com/jmgilman/go/errors"
)

// Resolve is the typed form of (*Cache).Resolve. A nil producer only reads.
func Resolve[T any](ctx context.Context, c *Cache, key string, producer func(context.Context) (T, error), expiresIn any) (T, bool, error) {
	var p Producer
	if producer != nil {
		p = func(ctx context.Context) (any, error) {
			v, err := producer(ctx)
			return v, err
		}
	}

	v, found, err := c.Resolve(ctx, key, p, expiresIn)
	return cast[T](key, v, found, err)
}

// Get returns the live value cached under key without computing anything.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	return Resolve[T](ctx, c, key, nil, nil)
}

func cast[T any](key string, v any, found bool, err error) (T, bool, error) {
	var zero T
	if err != nil || !found {
		return zero, found, err
	}
	if v == nil {
		return zero, true, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, false, errors.Wrap(ErrTypeMismatch, errors.CodeConflict,
			fmt.Sprintf("key %q holds %T, want %T", key, v, zero))
	}
	return t, true, nil
}

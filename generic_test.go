package cache_test

import (
	"context"
	"testing"

	"github.com/jmgilman/go/errors"
	cache "github.com/krisalay/keshi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   int
	Name string
}

func TestGenericResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NoCleanup)

	calls := 0
	fetch := func(context.Context) (user, error) {
		calls++
		return user{ID: 42, Name: "ada"}, nil
	}

	u, found, err := cache.Resolve(ctx, f.c, "user:42", fetch, "5 mins")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, user{ID: 42, Name: "ada"}, u)

	u, found, err = cache.Get[user](ctx, f.c, "user:42")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, u.ID)
	assert.Equal(t, 1, calls)
}

func TestGenericGetMissing(t *testing.T) {
	f := newFixture(t, cache.NoCleanup)

	n, found, err := cache.Get[int](context.Background(), f.c, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, n)
}

func TestGenericTypeMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NoCleanup)
	require.NoError(t, f.c.Set(ctx, "n", 5, nil))

	s, found, err := cache.Get[string](ctx, f.c, "n")
	require.Error(t, err)
	assert.ErrorIs(t, err, cache.ErrTypeMismatch)
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))
	assert.False(t, found)
	assert.Empty(t, s)
}

func TestGenericNilValue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NoCleanup)
	require.NoError(t, f.c.Set(ctx, "nil", nil, nil))

	p, found, err := cache.Get[*user](ctx, f.c, "nil")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, p)
}

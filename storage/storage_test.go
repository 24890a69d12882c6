package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/krisalay/keshi/expiration"
	"github.com/krisalay/keshi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adapters(t *testing.T) map[string]Storage {
	t.Helper()
	disk, err := OpenDisk(DiskOptions{Path: t.TempDir(), CompressionLevel: 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = disk.Close() })

	return map[string]Storage{
		"memory":       NewMemory(),
		"sharded":      NewSharded(4),
		"disk":         disk,
		"instrumented": NewInstrumented(NewMemory()),
	}
}

func sortedKeys(t *testing.T, s Storage) []string {
	t.Helper()
	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	sort.Strings(keys)
	return keys
}

func TestStorageContract(t *testing.T) {
	ctx := context.Background()
	deadline := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, s := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ent, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, ent)

			require.NoError(t, s.Set(ctx, "a.x", &types.Entry{Key: "a.x", Value: "one", Policy: expiration.Never{}}))
			require.NoError(t, s.Set(ctx, "a.y", &types.Entry{Key: "a.y", Value: 2, Policy: expiration.Deadline{At: deadline}}))
			require.NoError(t, s.Set(ctx, "b.x", &types.Entry{Key: "b.x", Value: "three"}))

			got, ok, err := s.Get(ctx, "a.y")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2, got.Value)
			assert.Equal(t, expiration.Deadline{At: deadline}, got.Policy)

			assert.Equal(t, []string{"a.x", "a.y", "b.x"}, sortedKeys(t, s))

			require.NoError(t, s.Set(ctx, "a.x", &types.Entry{Key: "a.x", Value: "replaced"}))
			got, ok, err = s.Get(ctx, "a.x")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "replaced", got.Value)
			assert.Len(t, sortedKeys(t, s), 3, "one entry per key")

			require.NoError(t, s.Delete(ctx, "a.x"))
			require.NoError(t, s.Delete(ctx, "a.x"), "deleting a missing key is not an error")
			assert.Equal(t, []string{"a.y", "b.x"}, sortedKeys(t, s))

			require.NoError(t, s.Clear(ctx))
			assert.Empty(t, sortedKeys(t, s))
		})
	}
}

func TestStoragePendingEntries(t *testing.T) {
	ctx := context.Background()

	for name, s := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			call := types.NewCall()
			require.NoError(t, s.Set(ctx, "k", &types.Entry{Key: "k", Call: call, Policy: expiration.Never{}}))

			got, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Same(t, call, got.Call, "pending handle must be shared, not copied")

			require.NoError(t, s.Set(ctx, "k", &types.Entry{Key: "k", Value: "done", Policy: expiration.Never{}}))
			got, ok, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, got.Pending())
			assert.Equal(t, "done", got.Value)
			assert.Equal(t, []string{"k"}, sortedKeys(t, s))
		})
	}
}

func TestDisk_ReopenRestoresSettledEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	d, err := OpenDisk(DiskOptions{Path: dir, CompressionLevel: 3})
	require.NoError(t, err)
	require.NoError(t, d.Set(ctx, "persisted", &types.Entry{Key: "persisted", Value: "hello", Policy: expiration.Never{}}))
	require.NoError(t, d.Set(ctx, "predicate", &types.Entry{
		Key:    "predicate",
		Value:  "memory only",
		Policy: expiration.Predicate{Fn: func(context.Context) (bool, error) { return false, nil }},
	}))
	require.NoError(t, d.Close())

	reopened, err := OpenDisk(DiskOptions{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []string{"persisted"}, sortedKeys(t, reopened))
	got, ok, err := reopened.Get(ctx, "persisted")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Value)
}

func TestDisk_CorruptFileIsAMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	d, err := OpenDisk(DiskOptions{Path: dir})
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Set(ctx, "k", &types.Entry{Key: "k", Value: "v", Policy: expiration.Never{}}))
	require.NoError(t, os.WriteFile(d.filePath("k"), []byte("garbage"), 0o644))

	_, ok, err := d.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	_, statErr := os.Stat(filepath.Join(dir, filepath.Base(d.filePath("k"))))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenDisk_RequiresPath(t *testing.T) {
	_, err := OpenDisk(DiskOptions{})
	assert.Error(t, err)
}

func TestSharded_SpreadsKeys(t *testing.T) {
	ctx := context.Background()
	s := NewSharded(8)
	for i := 0; i < 200; i++ {
		require.NoError(t, s.Set(ctx, string(rune('a'+i%26))+time.Duration(i).String(), &types.Entry{}))
	}
	assert.Equal(t, 200, s.Len())

	used := 0
	for _, sh := range s.shards {
		if sh.Len() > 0 {
			used++
		}
	}
	assert.Greater(t, used, 1)
}

func TestInstrumented_Counts(t *testing.T) {
	ctx := context.Background()
	s := NewInstrumented(NewMemory())

	_ = s.Set(ctx, "k", &types.Entry{})
	_, _, _ = s.Get(ctx, "k")
	_, _ = s.Keys(ctx)
	_ = s.Delete(ctx, "k")
	_ = s.Clear(ctx)

	assert.EqualValues(t, 1, s.Sets.Load())
	assert.EqualValues(t, 1, s.Gets.Load())
	assert.EqualValues(t, 1, s.Listing.Load())
	assert.EqualValues(t, 1, s.Deletes.Load())
	assert.EqualValues(t, 1, s.Clears.Load())
}

func TestCompareAndSwap(t *testing.T) {
	ctx := context.Background()

	for name, s := range map[string]Swapper{"memory": NewMemory(), "sharded": NewSharded(3)} {
		t.Run(name, func(t *testing.T) {
			st := s.(Storage)
			old := &types.Entry{Key: "k", Value: 1}
			next := &types.Entry{Key: "k", Value: 2}

			swapped, err := s.CompareAndSwap(ctx, "k", old, next)
			require.NoError(t, err)
			assert.False(t, swapped, "missing key never swaps")

			require.NoError(t, st.Set(ctx, "k", old))
			swapped, err = s.CompareAndSwap(ctx, "k", &types.Entry{Key: "k", Value: 1}, next)
			require.NoError(t, err)
			assert.False(t, swapped, "identity, not equality")

			swapped, err = s.CompareAndSwap(ctx, "k", old, next)
			require.NoError(t, err)
			assert.True(t, swapped)
			got, _, _ := st.Get(ctx, "k")
			assert.Same(t, next, got)

			swapped, err = s.CompareAndSwap(ctx, "k", next, nil)
			require.NoError(t, err)
			assert.True(t, swapped)
			_, ok, _ := st.Get(ctx, "k")
			assert.False(t, ok)
		})
	}
}

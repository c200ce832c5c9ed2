package kvcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	err = store.Set(ctx, "key", []byte("value"), 0)
	require.NoError(t, err)

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)

	err = store.Delete(ctx, "key")
	require.NoError(t, err)

	_, err = store.Get(ctx, "key")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Set(ctx, "key", []byte("value"), time.Millisecond*10)
	require.NoError(t, err)

	time.Sleep(time.Millisecond * 30)

	_, err = store.Get(ctx, "key")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBadger(t *testing.T) {
	store, err := NewBadger(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	testStore(t, store)
}

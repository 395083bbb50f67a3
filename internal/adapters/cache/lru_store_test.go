package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUStore_GetPut(t *testing.T) {
	ctx := context.Background()
	store, err := NewLRUStore[string](10)
	require.NoError(t, err)

	_, ok := store.Get(ctx, "missing")
	assert.False(t, ok)

	store.Put(ctx, "place-1", "first")
	store.Put(ctx, "place-1", "second")

	value, ok := store.Get(ctx, "place-1")
	assert.True(t, ok)
	assert.Equal(t, "second", value)
	assert.Equal(t, 1, store.Len())
}

func TestLRUStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store, err := NewLRUStore[int](2)
	require.NoError(t, err)

	store.Put(ctx, "a", 1)
	store.Put(ctx, "b", 2)
	_, _ = store.Get(ctx, "a")
	store.Put(ctx, "c", 3)

	_, ok := store.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used and should be evicted")
	_, ok = store.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = store.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 2, store.Len())
}

func TestLRUStore_DefaultCapacity(t *testing.T) {
	store, err := NewLRUStore[int](0)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < DefaultCapacity+5; i++ {
		store.Put(ctx, fmt.Sprintf("place-%d", i), i)
	}
	assert.Equal(t, DefaultCapacity, store.Len())
}

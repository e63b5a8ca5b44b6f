package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadingCacheMissThenHit(t *testing.T) {
	calls := 0
	c := newLoadingCache(4, func(_ context.Context, key string) (string, error) {
		calls++
		return "loaded:" + key, nil
	})

	v, err := c.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "loaded:a", v)
	assert.Equal(t, 1, calls)

	v, err = c.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "loaded:a", v)
	assert.Equal(t, 1, calls, "second Get for the same key must not call the loader again")
}

func TestLoadingCacheEviction(t *testing.T) {
	c := newLoadingCache(2, func(_ context.Context, key string) (string, error) {
		return key, nil
	})
	ctx := context.Background()

	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "b")
	_, _ = c.Get(ctx, "c") // evicts "a", the least recently used

	_, ok := c.cache.Peek("a")
	assert.False(t, ok, "oldest entry should have been evicted once the cache is full")

	_, ok = c.cache.Peek("c")
	assert.True(t, ok)
}

func TestLoadingCacheSeed(t *testing.T) {
	calls := 0
	c := newLoadingCache(4, func(_ context.Context, key string) (struct{}, error) {
		calls++
		return struct{}{}, nil
	})
	c.Seed("12345", struct{}{})

	_, err := c.Get(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, 0, calls, "a seeded key must not invoke the loader")
}

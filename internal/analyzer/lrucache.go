package analyzer

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// loadingCache is a strict LRU with a caller-supplied loader: on hit the
// entry moves to the front, on miss the loader runs and the result is
// inserted, evicting the oldest entry if the cache is already full. One
// generic primitive replaces the source's mix of functools.lru_cache
// decorators and a hand-rolled seeded cache.
type loadingCache[V any] struct {
	cache  *lru.Cache[string, V]
	loader func(ctx context.Context, key string) (V, error)
}

func newLoadingCache[V any](size int, loader func(context.Context, string) (V, error)) *loadingCache[V] {
	c, err := lru.New[string, V](size)
	if err != nil {
		// size is always a positive compile-time constant from this package;
		// the only failure mode of lru.New is size <= 0.
		panic(err)
	}
	return &loadingCache[V]{cache: c, loader: loader}
}

func (c *loadingCache[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.loader(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.cache.Add(key, v)
	return v, nil
}

// Seed pre-populates an entry without going through the loader, used for
// the postcode cache's construction-time seed from existing word rows.
func (c *loadingCache[V]) Seed(key string, value V) {
	c.cache.Add(key, value)
}

// Package cache provides an in-memory caching layer for the HTTP server.
// It uses patrickmn/go-cache for TTL-based caching and collapses concurrent
// loads of the same key with singleflight.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cache wraps go-cache with load-through and hit accounting.
type Cache struct {
	store  *gocache.Cache
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a new cache with the given TTL and cleanup interval.
// defaultTTL is the default expiration time for cache entries.
// cleanupInterval is how often expired items are removed from memory.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.store.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores a value in the cache with default TTL.
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value in the cache with custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Delete removes a value from the cache.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items in the cache.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}

// Load returns the cached value for key, calling load on a miss. Concurrent
// misses for the same key share one load. Failed loads are not cached.
func Load[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Stats returns cache statistics.
type Stats struct {
	ItemCount int   `json:"item_count"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	return Stats{
		ItemCount: c.store.ItemCount(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
	}
}

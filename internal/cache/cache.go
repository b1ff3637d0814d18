// Package cache provides TTL caches for fetch results. The fetch clients are
// cache-agnostic and idempotent, so memoization lives entirely here, layered
// on by the service. The cache is generic: one implementation serves weather
// snapshots and news article lists.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a TTL key-value store. Get returns present=false on miss or
// expiry; Set stores a value that expires after ttl.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
}

// InMemory implements Cache with a map and TTL-based expiration. Expired
// entries are removed on access. Safe for concurrent use; the refresh worker
// and HTTP handlers share one instance.
type InMemory[T any] struct {
	mu   sync.Mutex
	data map[string]entry[T]
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// NewInMemory creates an empty in-memory cache.
func NewInMemory[T any]() *InMemory[T] {
	return &InMemory[T]{
		data: make(map[string]entry[T]),
	}
}

// Get retrieves the cached value for key if present and not expired.
func (c *InMemory[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return zero, false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(c.data, key)
		return zero, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key; it expires after ttl and is removed on the
// next Get.
func (c *InMemory[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

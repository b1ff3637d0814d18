package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Memcached implements Cache backed by memcached, storing values as JSON.
// A key prefix separates value types sharing one memcached deployment
// (e.g. "weather:", "news:").
type Memcached[T any] struct {
	client *memcache.Client
	prefix string
}

// NewMemcached creates a Memcached cache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns configure the client; both use package defaults if zero.
func NewMemcached[T any](addrs, prefix string, timeout time.Duration, maxIdleConns int) (*Memcached[T], error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &Memcached[T]{client: client, prefix: prefix}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *Memcached[T]) key(k string) string {
	return c.prefix + k
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on
// backend error.
func (c *Memcached[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if ctx.Err() != nil {
		return zero, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return zero, false, nil
		}
		return zero, false, err
	}
	var value T
	if err := json.Unmarshal(item.Value, &value); err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Set implements Cache.Set.
func (c *Memcached[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	expSec := int32(ttl.Seconds())
	const maxRelativeExp = 30 * 24 * 60 * 60 // 30 days
	if expSec <= 0 || expSec > maxRelativeExp {
		expSec = 3600 // fallback 1h if invalid
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: expSec,
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *Memcached[T]) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *Memcached[T]) Close() error {
	return c.client.Close()
}

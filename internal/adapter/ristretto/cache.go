// Package ristretto implements the cache port in-process with dgraph-io/ristretto.
// It is the L1 of the list cache and the sole store for delete confirmations.
package ristretto

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// avgEntryBytes is the assumed size of a cached list page, used to size the admission counters.
const avgEntryBytes = 2048

// Cache is a size-bounded in-process cache.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache holding at most maxSizeMB megabytes of values.
func New(maxSizeMB int64) (*Cache, error) {
	maxCost := max(maxSizeMB, 1) << 20
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCost/avgEntryBytes*10, 1000),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &Cache{c: c}, nil
}

// Get returns a copy of the cached value so callers cannot mutate the entry.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return append([]byte(nil), val...), true, nil
}

// Set stores value until ttl elapses. A zero ttl keeps it until evicted.
// Writes are buffered; call Wait when a following Get must observe them.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.c.SetWithTTL(key, append([]byte(nil), value...), int64(len(value)), ttl)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied.
func (c *Cache) Wait() {
	c.c.Wait()
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}

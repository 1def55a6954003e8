// Package tiered implements a two-level (L1 + L2) cache adapter.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/rentalmanager/internal/port/cache"
)

// Cache combines an in-process L1 with a shared L2.
//
// The L2 is an optimisation shared between replicas: when it fails, reads
// fall back to a miss and writes are logged, so an L2 outage never fails a
// request. Deletes are attempted on both levels even if one of them fails,
// because a surviving stale entry would outlive a write.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
}

// New creates a tiered cache. l1Expire bounds how long L2 backfills live in L1.
// A nil l2 makes the cache L1-only.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

// Get checks L1, then L2. On L2 hit, backfills L1.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found || c.l2 == nil {
		return val, found, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "l2 cache get failed", "key", key, "error", err)
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	_ = c.l1.Set(ctx, key, val, c.backfillTTL())
	return val, true, nil
}

func (c *Cache) backfillTTL() time.Duration {
	return c.l1Expire
}

// Set writes to L1, then best-effort to L2.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if c.l2 == nil {
		return nil
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "l2 cache set failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes key from both levels and reports the first failure.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err1 := c.l1.Delete(ctx, key)
	if c.l2 == nil {
		return err1
	}
	err2 := c.l2.Delete(ctx, key)
	if err1 != nil {
		return err1
	}
	return err2
}

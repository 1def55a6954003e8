// Package cache defines the byte cache behind list views, delete
// confirmations and idempotent replays. Keys are owner-scoped by callers.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values with a per-entry TTL. A zero TTL leaves expiry
// to the implementation. Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

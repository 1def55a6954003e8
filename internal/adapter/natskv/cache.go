// Package natskv implements the cache port on a NATS JetStream KV bucket (shared L2).
package natskv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Cache wraps a JetStream KeyValue bucket.
type Cache struct {
	kv jetstream.KeyValue
}

// New wraps an existing bucket.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// Open creates or updates the bucket and wraps it. Entry lifetime is the
// bucket TTL; per-key TTLs passed to Set are ignored.
func Open(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (*Cache, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("natskv bucket %s: %w", bucket, err)
	}
	return New(kv), nil
}

// keyReplacer maps cache keys ("<user>:<collection>") onto the KV key alphabet.
var keyReplacer = strings.NewReplacer(":", ".", " ", "_")

func kvKey(key string) string {
	return keyReplacer.Replace(key)
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, kvKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("natskv get: %w", err)
	}
	return entry.Value(), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if _, err := c.kv.Put(ctx, kvKey(key), value); err != nil {
		return fmt.Errorf("natskv put: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, kvKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("natskv delete: %w", err)
	}
	return nil
}

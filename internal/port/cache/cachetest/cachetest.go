// Package cachetest holds the behaviour every cache.Cache adapter must share.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/rentalmanager/internal/port/cache"
)

// Settler lets eventually-consistent caches (ristretto buffers writes) apply
// pending sets before they are read back. Pass nil for synchronous caches.
type Settler func()

// Run executes the compliance suite against c.
func Run(t *testing.T, c cache.Cache, settle Settler) {
	t.Helper()
	ctx := context.Background()
	if settle == nil {
		settle = func() {}
	}

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "u1:properties", []byte(`[{"id":"p1"}]`), time.Minute); err != nil {
			t.Fatal(err)
		}
		settle()
		val, found, err := c.Get(ctx, "u1:properties")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `[{"id":"p1"}]` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "nobody:tenants")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "u2:documents", []byte("x"), time.Minute)
		settle()
		if err := c.Delete(ctx, "u2:documents"); err != nil {
			t.Fatal(err)
		}
		settle()
		_, found, err := c.Get(ctx, "u2:documents")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "u3:tenants", []byte("v1"), time.Minute)
		settle()
		_ = c.Set(ctx, "u3:tenants", []byte("v2"), time.Minute)
		settle()
		val, found, err := c.Get(ctx, "u3:tenants")
		if err != nil {
			t.Fatal(err)
		}
		if !found || string(val) != "v2" {
			t.Fatalf("expected v2 after overwrite, got %q (found=%v)", val, found)
		}
	})
}

package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/cache"
)

// ListCache memoizes whole collection reads per user under "<user>:<collection>".
// Every write invalidates the affected keys before the service refetches, so a
// view returned after a save never comes from the cache. A nil *ListCache or a
// nil backing cache disables caching.
type ListCache struct {
	c   cache.Cache
	ttl time.Duration
}

// NewListCache wraps c. ttl bounds staleness for writes made outside this service.
func NewListCache(c cache.Cache, ttl time.Duration) *ListCache {
	return &ListCache{c: c, ttl: ttl}
}

func listKey(userID string, collection event.Collection) string {
	return userID + ":" + string(collection)
}

func (lc *ListCache) enabled() bool {
	return lc != nil && lc.c != nil
}

// Invalidate drops the cached lists of the context's user.
func (lc *ListCache) Invalidate(ctx context.Context, collections ...event.Collection) {
	if !lc.enabled() {
		return
	}
	u := user.FromContext(ctx)
	if u == nil {
		return
	}
	for _, coll := range collections {
		if err := lc.c.Delete(ctx, listKey(u.ID, coll)); err != nil {
			slog.WarnContext(ctx, "list cache invalidate failed", "collection", coll, "error", err)
		}
	}
}

// cachedList returns the cached list for collection or calls fetch and
// caches its result. Cache failures degrade to a plain fetch.
func cachedList[T any](ctx context.Context, lc *ListCache, collection event.Collection, fetch func(context.Context) ([]T, error)) ([]T, error) {
	u := user.FromContext(ctx)
	if !lc.enabled() || u == nil {
		return fetch(ctx)
	}
	key := listKey(u.ID, collection)

	if data, ok, err := lc.c.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "list cache get failed", "key", key, "error", err)
	} else if ok {
		var items []T
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		slog.WarnContext(ctx, "list cache entry corrupt", "key", key)
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return items, nil
	}
	if data, err := json.Marshal(items); err == nil {
		if err := lc.c.Set(ctx, key, data, lc.ttl); err != nil {
			slog.WarnContext(ctx, "list cache set failed", "key", key, "error", err)
		}
	}
	return items, nil
}

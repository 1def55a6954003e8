package resilience

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter caps how many calls to a slow dependency run at once. Callers past
// the cap wait for a slot until their context ends.
type Limiter struct {
	name     string
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// NewLimiter returns a Limiter admitting at most limit concurrent calls.
// Limits below one are raised to one.
func NewLimiter(name string, limit int) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{name: name, sem: semaphore.NewWeighted(int64(limit))}
}

// Run waits for a slot, then calls fn. A nil Limiter calls fn directly.
func (l *Limiter) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if l == nil {
		return fn(ctx)
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%s: waiting for slot: %w", l.name, err)
	}
	l.inFlight.Add(1)
	defer func() {
		l.inFlight.Add(-1)
		l.sem.Release(1)
	}()
	return fn(ctx)
}

// InFlight returns the number of calls currently holding a slot.
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

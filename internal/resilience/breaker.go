// Package resilience provides reliability patterns for external service calls.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
// It wraps domain.ErrUnavailable.
var ErrCircuitOpen = fmt.Errorf("circuit breaker is open: %w", domain.ErrUnavailable)

// State is the position of a breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker guards calls to one external dependency. It opens after
// maxFailures consecutive failures and, once timeout has passed, lets a
// single trial call through (half-open) to decide whether to close again.
//
// A call that fails only because its own context was cancelled, or with an
// error marked by CallerFault, is not counted: the dependency did not fail.
type Breaker struct {
	name        string
	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	trial       bool
	now         func() time.Time
}

// NewBreaker creates a named breaker. The name appears in state change logs.
func NewBreaker(name string, maxFailures int, timeout time.Duration) *Breaker {
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		timeout:     timeout,
		now:         time.Now,
	}
}

// callerFault marks an error caused by the caller's own input.
type callerFault struct{ err error }

func (e *callerFault) Error() string { return e.err.Error() }
func (e *callerFault) Unwrap() error { return e.err }

// CallerFault marks err as the caller's own, such as a failed read of the
// request body, so Execute returns it without counting a failure.
// A nil err stays nil.
func CallerFault(err error) error {
	if err == nil {
		return nil
	}
	return &callerFault{err: err}
}

// Execute runs fn unless the circuit is open.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.trial = false

	var cf *callerFault
	switch {
	case err == nil:
		b.setState(StateClosed)
		b.failures = 0
	case errors.As(err, &cf):
		return cf.err
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// caller cancellation; leave the counters alone
	default:
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.openedAt = b.now()
			b.setState(StateOpen)
		}
	}
	return err
}

// State reports the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.timeout {
			return false
		}
		b.setState(StateHalfOpen)
		b.trial = true
		return true
	case StateHalfOpen:
		// one trial call at a time
		if b.trial {
			return false
		}
		b.trial = true
		return true
	}
	return false
}

// setState must be called with b.mu held.
func (b *Breaker) setState(s State) {
	if b.state == s {
		return
	}
	slog.Warn("circuit breaker state change", "breaker", b.name, "from", b.state.String(), "to", s.String())
	b.state = s
}

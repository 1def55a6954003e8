package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/backend"
	"github.com/Strob0t/rentalmanager/internal/port/database"
)

// SessionState is the outcome of resolving a caller's session.
type SessionState string

const (
	StateLoading         SessionState = "loading"
	StateConnectionError SessionState = "connection_error"
	StateAuthenticated   SessionState = "authenticated"
	StateAnonymous       SessionState = "anonymous"
)

// Notices shown when the gate cannot resolve a session.
const (
	NoticeConnection      = "Unable to connect to the server. Please try again later."
	NoticeAuthUnavailable = "Authentication service unavailable"
)

// SessionSnapshot is a point-in-time view of a gate.
type SessionSnapshot struct {
	State  SessionState `json:"state"`
	User   *user.User   `json:"user,omitempty"`
	Notice string       `json:"notice,omitempty"`
}

// SessionGate resolves one caller's session and follows auth state changes
// for as long as it is open. Create one per request (or per connection) and
// Close it when done; events arriving after Close are ignored.
type SessionGate struct {
	auth  backend.Auth
	probe database.Pinger

	mu          sync.Mutex
	snap        SessionSnapshot
	unsubscribe func()
	closed      bool
}

// NewSessionGate returns a gate in the loading state.
func NewSessionGate(auth backend.Auth, probe database.Pinger) *SessionGate {
	return &SessionGate{
		auth:  auth,
		probe: probe,
		snap:  SessionSnapshot{State: StateLoading},
	}
}

// Init probes the backend, then resolves token to a user. An unreachable
// backend or failing session lookup leaves the gate in connection_error;
// a missing or invalid token leaves it anonymous.
func (g *SessionGate) Init(ctx context.Context, token string) SessionSnapshot {
	if err := g.probe.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "backend connectivity probe failed", "error", err)
		return g.settle(SessionSnapshot{State: StateConnectionError, Notice: NoticeConnection})
	}

	u, err := g.auth.GetSession(ctx, token)
	switch {
	case err == nil:
		g.settle(SessionSnapshot{State: StateAuthenticated, User: u})
	case errors.Is(err, domain.ErrUnauthenticated):
		g.settle(SessionSnapshot{State: StateAnonymous})
	default:
		slog.ErrorContext(ctx, "session lookup failed", "error", err)
		return g.settle(SessionSnapshot{State: StateConnectionError, Notice: NoticeAuthUnavailable})
	}

	unsubscribe := g.auth.OnAuthStateChange(g.onAuthState)
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		unsubscribe()
	} else {
		g.unsubscribe = unsubscribe
		g.mu.Unlock()
	}
	return g.Snapshot()
}

func (g *SessionGate) settle(s SessionSnapshot) SessionSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.snap = s
	}
	return g.snap
}

// onAuthState applies transitions that concern the gate's user.
func (g *SessionGate) onAuthState(ev event.AuthState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.snap.User == nil || g.snap.User.ID != ev.UserID {
		return
	}
	if ev.Change == event.AuthSignedOut {
		g.snap = SessionSnapshot{State: StateAnonymous}
	}
}

// Snapshot returns the current state.
func (g *SessionGate) Snapshot() SessionSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

// Close stops following auth state changes.
func (g *SessionGate) Close() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.closed = true
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

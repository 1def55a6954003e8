// Package backend defines the single backend client every screen talks to:
// authentication, relational tables and file storage behind one value.
package backend

import (
	"context"

	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/database"
	"github.com/Strob0t/rentalmanager/internal/port/storage"
)

// AuthListener receives session transitions.
type AuthListener func(ev event.AuthState)

// Auth is the authentication half of the backend.
type Auth interface {
	// GetSession resolves an access token to its user. An empty or
	// invalid token yields domain.ErrUnauthenticated.
	GetSession(ctx context.Context, accessToken string) (*user.User, error)

	// OnAuthStateChange registers fn for every session transition.
	// The returned function removes the registration.
	OnAuthStateChange(fn AuthListener) (unsubscribe func())

	SignIn(ctx context.Context, req user.LoginRequest) (*user.Session, error)
	SignUp(ctx context.Context, req user.SignUpRequest) (*user.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Client bundles the backend capabilities. It is built once at startup and
// shared by all request goroutines.
type Client struct {
	Auth    Auth
	Store   database.Store
	Storage storage.ObjectStore
}

// Package database defines the database store port (interface).
//
// Every method that touches owned records reads the authenticated user from
// the context (user.FromContext) and scopes its query to that user.
package database

import (
	"context"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/document"
	"github.com/Strob0t/rentalmanager/internal/domain/maintenance"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
)

// PropertyStore persists properties and their maintenance requests.
type PropertyStore interface {
	// ListProperties returns the caller's properties, newest first, each with its maintenance requests.
	ListProperties(ctx context.Context) ([]property.Property, error)
	ListPropertyRefs(ctx context.Context) ([]property.Ref, error)
	GetProperty(ctx context.Context, id string) (*property.Property, error)
	CreateProperty(ctx context.Context, p *property.Property) (*property.Property, error)
	UpdateProperty(ctx context.Context, p *property.Property) error

	ListMaintenance(ctx context.Context, propertyID string) ([]maintenance.Request, error)
	CreateMaintenance(ctx context.Context, r *maintenance.Request) (*maintenance.Request, error)
	UpdateMaintenance(ctx context.Context, r *maintenance.Request) error
}

// TenantStore persists tenants. Tenants are the only hard-deleted records.
type TenantStore interface {
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	CreateTenant(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
	DeleteTenant(ctx context.Context, id string) error
}

// DocumentStore persists document metadata.
type DocumentStore interface {
	ListDocuments(ctx context.Context) ([]document.Document, error)
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	CreateDocument(ctx context.Context, d *document.Document) (*document.Document, error)
	UpdateDocument(ctx context.Context, d *document.Document) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	// InitializeUserData runs the per-account setup hook after sign-up.
	InitializeUserData(ctx context.Context, userID string) error
}

// TokenStore persists refresh tokens and the access-token revocation list.
type TokenStore interface {
	CreateRefreshToken(ctx context.Context, rt *user.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*user.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldTokenHash string, newRT *user.RefreshToken) error
	DeleteRefreshTokensByUser(ctx context.Context, userID string) error
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)

	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// Pinger is the lightweight connectivity probe used by the session gate.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is the port interface for all database operations.
type Store interface {
	PropertyStore
	TenantStore
	DocumentStore
	UserStore
	TokenStore
	Pinger
}

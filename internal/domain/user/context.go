package user

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the authenticated user.
// Stores scope every owned-record query to this user.
func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the authenticated user, or nil.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}

package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/cache"
)

// Confirmations issues one-time tokens that authorize a destructive action
// on one record of one user.
type Confirmations struct {
	c   cache.Cache
	ttl time.Duration
}

// NewConfirmations stores tokens in c for ttl.
func NewConfirmations(c cache.Cache, ttl time.Duration) *Confirmations {
	return &Confirmations{c: c, ttl: ttl}
}

func confirmKey(userID string, collection event.Collection, id string) string {
	return userID + ":confirm:" + string(collection) + ":" + id
}

// Issue returns a fresh token for (user, collection, id), replacing any earlier one.
func (cf *Confirmations) Issue(ctx context.Context, collection event.Collection, id string) (string, error) {
	u := user.FromContext(ctx)
	if u == nil {
		return "", domain.ErrUnauthenticated
	}
	token := uuid.NewString()
	if err := cf.c.Set(ctx, confirmKey(u.ID, collection, id), []byte(token), cf.ttl); err != nil {
		return "", fmt.Errorf("store confirmation: %w", err)
	}
	return token, nil
}

// Consume checks token and, on a match, invalidates it. A missing, expired or
// mismatching token yields domain.ErrConfirmation.
func (cf *Confirmations) Consume(ctx context.Context, collection event.Collection, id, token string) error {
	if token == "" {
		return domain.ErrConfirmation
	}
	u := user.FromContext(ctx)
	if u == nil {
		return domain.ErrUnauthenticated
	}
	key := confirmKey(u.ID, collection, id)
	stored, ok, err := cf.c.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load confirmation: %w", err)
	}
	if !ok || subtle.ConstantTimeCompare(stored, []byte(token)) != 1 {
		return domain.ErrConfirmation
	}
	if err := cf.c.Delete(ctx, key); err != nil {
		return fmt.Errorf("consume confirmation: %w", err)
	}
	return nil
}

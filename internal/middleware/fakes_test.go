package middleware_test

import (
	"context"
	"sync"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/backend"
)

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// fakeAuth resolves tokens from a fixed table.
type fakeAuth struct {
	users      map[string]*user.User
	sessionErr error
}

var _ backend.Auth = (*fakeAuth)(nil)

func (a *fakeAuth) GetSession(_ context.Context, token string) (*user.User, error) {
	if a.sessionErr != nil {
		return nil, a.sessionErr
	}
	if u, ok := a.users[token]; ok {
		return u, nil
	}
	return nil, domain.ErrUnauthenticated
}

func (a *fakeAuth) OnAuthStateChange(backend.AuthListener) func() { return func() {} }

func (a *fakeAuth) SignIn(context.Context, user.LoginRequest) (*user.Session, error) {
	return nil, domain.ErrUnauthenticated
}

func (a *fakeAuth) SignUp(context.Context, user.SignUpRequest) (*user.Session, error) {
	return nil, domain.ErrUnauthenticated
}

func (a *fakeAuth) SignOut(context.Context, string) error { return nil }

// pinger reports err on every probe.
type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

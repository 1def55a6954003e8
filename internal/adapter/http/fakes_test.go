package http_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/document"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/maintenance"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/database"
)

// mockStore is an in-memory database.Store. Records are scoped to the
// context's user the same way the postgres store scopes its queries.
type mockStore struct {
	mu sync.Mutex

	properties    []property.Property
	maintenance   []maintenance.Request
	tenants       []tenant.Tenant
	documents     []document.Document
	users         []user.User
	refreshTokens []user.RefreshToken
	revoked       map[string]time.Time
	initialized   []string

	// calls counts store method invocations by name.
	calls map[string]int

	pingErr       error
	listErr       error
	createDocErr  error
	deleteErr     error
	revocationErr error
}

var _ database.Store = (*mockStore)(nil)

func (m *mockStore) hit(name string) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *mockStore) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func owner(ctx context.Context) (string, error) {
	u := user.FromContext(ctx)
	if u == nil {
		return "", domain.ErrUnauthenticated
	}
	return u.ID, nil
}

// --- PropertyStore ---

func (m *mockStore) ListProperties(ctx context.Context) ([]property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("ListProperties")
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []property.Property{}
	for i := len(m.properties) - 1; i >= 0; i-- {
		p := m.properties[i]
		if p.UserID != uid {
			continue
		}
		p.MaintenanceRequests = m.requestsOf(p.ID)
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) requestsOf(propertyID string) []maintenance.Request {
	out := []maintenance.Request{}
	for i := len(m.maintenance) - 1; i >= 0; i-- {
		if m.maintenance[i].PropertyID == propertyID {
			out = append(out, m.maintenance[i])
		}
	}
	return out
}

func (m *mockStore) ListPropertyRefs(ctx context.Context) ([]property.Ref, error) {
	props, err := m.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	return property.Refs(props), nil
}

func (m *mockStore) GetProperty(ctx context.Context, id string) (*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	for i := range m.properties {
		if m.properties[i].ID == id && m.properties[i].UserID == uid {
			p := m.properties[i]
			p.MaintenanceRequests = m.requestsOf(id)
			return &p, nil
		}
	}
	return nil, fmt.Errorf("property %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) CreateProperty(ctx context.Context, p *property.Property) (*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("CreateProperty")
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	c := *p
	c.ID = uuid.NewString()
	c.UserID = uid
	c.MaintenanceRequests = []maintenance.Request{}
	m.properties = append(m.properties, c)
	return &c, nil
}

func (m *mockStore) UpdateProperty(ctx context.Context, p *property.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("UpdateProperty")
	uid, err := owner(ctx)
	if err != nil {
		return err
	}
	for i := range m.properties {
		if m.properties[i].ID == p.ID && m.properties[i].UserID == uid {
			c := *p
			c.UserID = uid
			c.MaintenanceRequests = nil
			m.properties[i] = c
			return nil
		}
	}
	return fmt.Errorf("property %s: %w", p.ID, domain.ErrNotFound)
}

func (m *mockStore) ownsProperty(uid, id string) bool {
	for i := range m.properties {
		if m.properties[i].ID == id && m.properties[i].UserID == uid {
			return true
		}
	}
	return false
}

func (m *mockStore) ListMaintenance(ctx context.Context, propertyID string) ([]maintenance.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if !m.ownsProperty(uid, propertyID) {
		return []maintenance.Request{}, nil
	}
	return m.requestsOf(propertyID), nil
}

func (m *mockStore) CreateMaintenance(ctx context.Context, r *maintenance.Request) (*maintenance.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if !m.ownsProperty(uid, r.PropertyID) {
		return nil, fmt.Errorf("property %s: %w", r.PropertyID, domain.ErrNotFound)
	}
	c := *r
	c.ID = uuid.NewString()
	c.UserID = uid
	m.maintenance = append(m.maintenance, c)
	return &c, nil
}

func (m *mockStore) UpdateMaintenance(ctx context.Context, r *maintenance.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := owner(ctx)
	if err != nil {
		return err
	}
	for i := range m.maintenance {
		if m.maintenance[i].ID == r.ID && m.maintenance[i].UserID == uid {
			c := *r
			c.UserID = uid
			m.maintenance[i] = c
			return nil
		}
	}
	return fmt.Errorf("maintenance request %s: %w", r.ID, domain.ErrNotFound)
}

// --- TenantStore ---

func (m *mockStore) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("ListTenants")
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []tenant.Tenant{}
	for i := len(m.tenants) - 1; i >= 0; i-- {
		if m.tenants[i].UserID == uid {
			out = append(out, m.tenants[i])
		}
	}
	return out, nil
}

func (m *mockStore) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	for i := range m.tenants {
		if m.tenants[i].ID == id && m.tenants[i].UserID == uid {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, fmt.Errorf("tenant %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) CreateTenant(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("CreateTenant")
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	c := *t
	c.ID = uuid.NewString()
	c.UserID = uid
	m.tenants = append(m.tenants, c)
	return &c, nil
}

func (m *mockStore) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("UpdateTenant")
	uid, err := owner(ctx)
	if err != nil {
		return err
	}
	for i := range m.tenants {
		if m.tenants[i].ID == t.ID && m.tenants[i].UserID == uid {
			c := *t
			c.UserID = uid
			m.tenants[i] = c
			return nil
		}
	}
	return fmt.Errorf("tenant %s: %w", t.ID, domain.ErrNotFound)
}

func (m *mockStore) DeleteTenant(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("DeleteTenant")
	uid, err := owner(ctx)
	if err != nil {
		return err
	}
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i := range m.tenants {
		if m.tenants[i].ID == id && m.tenants[i].UserID == uid {
			m.tenants = append(m.tenants[:i], m.tenants[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("tenant %s: %w", id, domain.ErrNotFound)
}

// --- DocumentStore ---

func (m *mockStore) ListDocuments(ctx context.Context) ([]document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("ListDocuments")
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	out := []document.Document{}
	for i := len(m.documents) - 1; i >= 0; i-- {
		if m.documents[i].UserID == uid {
			out = append(out, m.documents[i])
		}
	}
	return out, nil
}

func (m *mockStore) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	for i := range m.documents {
		if m.documents[i].ID == id && m.documents[i].UserID == uid {
			d := m.documents[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) CreateDocument(ctx context.Context, d *document.Document) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("CreateDocument")
	uid, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if m.createDocErr != nil {
		return nil, m.createDocErr
	}
	c := *d
	c.ID = uuid.NewString()
	c.UserID = uid
	m.documents = append(m.documents, c)
	return &c, nil
}

func (m *mockStore) UpdateDocument(ctx context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("UpdateDocument")
	uid, err := owner(ctx)
	if err != nil {
		return err
	}
	for i := range m.documents {
		if m.documents[i].ID == d.ID && m.documents[i].UserID == uid {
			c := *d
			c.UserID = uid
			m.documents[i] = c
			return nil
		}
	}
	return fmt.Errorf("document %s: %w", d.ID, domain.ErrNotFound)
}

// --- UserStore ---

func (m *mockStore) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == u.Email {
			return fmt.Errorf("user %s: %w", u.Email, domain.ErrConflict)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

func (m *mockStore) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]user.User{}, m.users...), nil
}

func (m *mockStore) UpdateUserPassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].PasswordHash = passwordHash
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) InitializeUserData(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = append(m.initialized, userID)
	return nil
}

// --- TokenStore ---

func (m *mockStore) CreateRefreshToken(_ context.Context, rt *user.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshTokens = append(m.refreshTokens, *rt)
	return nil
}

func (m *mockStore) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*user.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.refreshTokens {
		if m.refreshTokens[i].TokenHash == tokenHash {
			rt := m.refreshTokens[i]
			return &rt, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) RotateRefreshToken(_ context.Context, oldTokenHash string, newRT *user.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.refreshTokens {
		if m.refreshTokens[i].TokenHash == oldTokenHash {
			m.refreshTokens[i] = *newRT
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeleteRefreshTokensByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.refreshTokens[:0]
	for _, rt := range m.refreshTokens {
		if rt.UserID != userID {
			kept = append(kept, rt)
		}
	}
	m.refreshTokens = kept
	return nil
}

func (m *mockStore) DeleteExpiredRefreshTokens(_ context.Context) (int64, error) {
	return 0, nil
}

func (m *mockStore) RevokeToken(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = make(map[string]time.Time)
	}
	m.revoked[jti] = expiresAt
	return nil
}

func (m *mockStore) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revocationErr != nil {
		return false, m.revocationErr
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *mockStore) PurgeExpiredTokens(_ context.Context) (int64, error) {
	return 0, nil
}

func (m *mockStore) Ping(_ context.Context) error {
	return m.pingErr
}

// --- other fakes ---

// memCache is a synchronous in-memory cache.Cache that ignores TTLs.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// memStorage records uploads. gate, when set, blocks Upload until closed.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
	gate    chan struct{}
	started chan struct{}
}

func newMemStorage() *memStorage { return &memStorage{objects: make(map[string][]byte)} }

func (s *memStorage) Upload(ctx context.Context, path, _ string, r io.Reader, _ int64) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[path] = data
	s.mu.Unlock()
	return nil
}

func (s *memStorage) PublicURL(path string) string {
	return "https://files.test/documents/" + path
}

// recordingNotifier captures RecordChanged calls.
type recordingNotifier struct {
	mu     sync.Mutex
	events []event.RecordChanged
}

func (n *recordingNotifier) RecordChanged(ctx context.Context, collection event.Collection, op event.Op, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ev := event.RecordChanged{Collection: collection, Op: op, ID: id}
	if u := user.FromContext(ctx); u != nil {
		ev.UserID = u.ID
	}
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) snapshot() []event.RecordChanged {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]event.RecordChanged(nil), n.events...)
}

func ctxFor(id string) context.Context {
	return user.NewContext(context.Background(), &user.User{ID: id, Email: id + "@example.com"})
}

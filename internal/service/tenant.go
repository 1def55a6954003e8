package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/fieldmap"
	"github.com/Strob0t/rentalmanager/internal/domain/listing"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
	"github.com/Strob0t/rentalmanager/internal/port/database"
)

// TenantsView is everything the tenants screen renders.
type TenantsView struct {
	Tenants    []tenant.Row   `json:"tenants"`
	Properties []property.Ref `json:"properties"`
}

// TenantService backs the tenants screen.
type TenantService struct {
	tenants  database.TenantStore
	props    database.PropertyStore
	cache    *ListCache
	confirms *Confirmations
	events   RecordNotifier
	now      func() time.Time
}

// NewTenantService creates a TenantService. cache and events may be nil;
// confirms is required for deletes.
func NewTenantService(tenants database.TenantStore, props database.PropertyStore, cache *ListCache, confirms *Confirmations, events RecordNotifier) *TenantService {
	return &TenantService{
		tenants:  tenants,
		props:    props,
		cache:    cache,
		confirms: confirms,
		events:   events,
		now:      time.Now,
	}
}

func tenantSearchFields(r tenant.Row) []string { return []string{r.Name, r.Email} }

// List returns the tenants matching q (search on name or email) labelled with
// property names, plus the property choices for the edit form. The tenants
// screen has no category filter, so q.Filter is ignored.
func (s *TenantService) List(ctx context.Context, q listing.Query) (*TenantsView, error) {
	view, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	view.Tenants = listing.Search(view.Tenants, q.Search, tenantSearchFields)
	return view, nil
}

func (s *TenantService) view(ctx context.Context) (*TenantsView, error) {
	tenants, err := cachedList(ctx, s.cache, event.CollectionTenants, s.tenants.ListTenants)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	refs, err := s.props.ListPropertyRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list property refs: %w", err)
	}
	return &TenantsView{Tenants: tenant.Label(tenants, refs), Properties: refs}, nil
}

// NewDraft returns the pre-filled "Add Tenant" form.
func (s *TenantService) NewDraft() tenant.Tenant {
	return tenant.NewDraft(s.now())
}

// Save creates t when it has no ID and updates it otherwise, then returns the
// refetched view. created reports which of the two happened.
func (s *TenantService) Save(ctx context.Context, t *tenant.Tenant) (view *TenantsView, created bool, err error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if t.ID == "" {
		c, err := s.tenants.CreateTenant(ctx, t)
		if err != nil {
			return nil, false, fmt.Errorf("create tenant: %w", err)
		}
		s.changed(ctx, event.OpCreated, c.ID)
		created = true
	} else if err := s.update(ctx, *t); err != nil {
		return nil, false, err
	}
	view, err = s.view(ctx)
	if err != nil {
		return nil, created, err
	}
	return view, created, nil
}

// Edit applies a form submission to an existing tenant.
func (s *TenantService) Edit(ctx context.Context, id string, req EditRequest) (*TenantsView, error) {
	t, err := s.tenants.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := edit(ctx, *t, fieldmap.Tenant, req, s.update); err != nil {
		return nil, err
	}
	return s.view(ctx)
}

func (s *TenantService) update(ctx context.Context, t tenant.Tenant) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.tenants.UpdateTenant(ctx, &t); err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	s.changed(ctx, event.OpUpdated, t.ID)
	return nil
}

// RequestDelete issues the confirmation token the caller must echo back to Delete.
func (s *TenantService) RequestDelete(ctx context.Context, id string) (string, error) {
	if _, err := s.tenants.GetTenant(ctx, id); err != nil {
		return "", err
	}
	if s.confirms == nil {
		return "", errors.New("tenant deletion is not configured")
	}
	return s.confirms.Issue(ctx, event.CollectionTenants, id)
}

// Delete removes a tenant once token confirms the request. Without a valid
// token nothing is deleted.
func (s *TenantService) Delete(ctx context.Context, id, token string) (*TenantsView, error) {
	if s.confirms == nil {
		return nil, domain.ErrConfirmation
	}
	if err := s.confirms.Consume(ctx, event.CollectionTenants, id, token); err != nil {
		return nil, err
	}
	if err := s.tenants.DeleteTenant(ctx, id); err != nil {
		return nil, fmt.Errorf("delete tenant: %w", err)
	}
	s.changed(ctx, event.OpDeleted, id)
	slog.InfoContext(ctx, "tenant deleted", "tenant_id", id)
	return s.view(ctx)
}

// Refs returns the (id, name) pairs of the caller's tenants.
func (s *TenantService) Refs(ctx context.Context) ([]tenant.Ref, error) {
	tenants, err := cachedList(ctx, s.cache, event.CollectionTenants, s.tenants.ListTenants)
	if err != nil {
		return nil, err
	}
	return tenant.Refs(tenants), nil
}

func (s *TenantService) changed(ctx context.Context, op event.Op, id string) {
	s.cache.Invalidate(ctx, event.CollectionTenants)
	if s.events != nil {
		s.events.RecordChanged(ctx, event.CollectionTenants, op, id)
	}
}

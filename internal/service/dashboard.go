package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/rentalmanager/internal/domain/dashboard"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
	"github.com/Strob0t/rentalmanager/internal/port/database"
)

// DashboardService computes the overview screen.
type DashboardService struct {
	props   database.PropertyStore
	tenants database.TenantStore
	cache   *ListCache
}

// NewDashboardService creates a DashboardService. cache may be nil.
func NewDashboardService(props database.PropertyStore, tenants database.TenantStore, cache *ListCache) *DashboardService {
	return &DashboardService{props: props, tenants: tenants, cache: cache}
}

// Summary fetches properties and tenants concurrently and aggregates them.
// Either fetch failing fails the whole summary.
func (s *DashboardService) Summary(ctx context.Context) (*dashboard.Summary, error) {
	var (
		props   []property.Property
		tenants []tenant.Tenant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		props, err = cachedList(gctx, s.cache, event.CollectionProperties, s.props.ListProperties)
		if err != nil {
			return fmt.Errorf("list properties: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tenants, err = cachedList(gctx, s.cache, event.CollectionTenants, s.tenants.ListTenants)
		if err != nil {
			return fmt.Errorf("list tenants: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sum := dashboard.Compute(props, tenants)
	return &sum, nil
}

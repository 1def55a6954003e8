package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/fieldmap"
	"github.com/Strob0t/rentalmanager/internal/domain/listing"
	"github.com/Strob0t/rentalmanager/internal/domain/maintenance"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/port/database"
)

// PropertyService backs the properties screen.
type PropertyService struct {
	store  database.PropertyStore
	cache  *ListCache
	events RecordNotifier
}

// NewPropertyService creates a PropertyService. cache and events may be nil.
func NewPropertyService(store database.PropertyStore, cache *ListCache, events RecordNotifier) *PropertyService {
	return &PropertyService{store: store, cache: cache, events: events}
}

func propertySearchFields(p property.Property) []string { return []string{p.Name, p.Address} }
func propertyStatus(p property.Property) string         { return string(p.Status) }

// all returns every property of the caller with its maintenance requests.
func (s *PropertyService) all(ctx context.Context) ([]property.Property, error) {
	return cachedList(ctx, s.cache, event.CollectionProperties, s.store.ListProperties)
}

// List returns the properties matching q: search on name or address, filter on status.
func (s *PropertyService) List(ctx context.Context, q listing.Query) ([]property.Property, error) {
	props, err := s.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return listing.Apply(props, q, propertySearchFields, propertyStatus), nil
}

// Get returns one property with its maintenance requests.
func (s *PropertyService) Get(ctx context.Context, id string) (*property.Property, error) {
	return s.store.GetProperty(ctx, id)
}

// Create inserts a default "New Property" and returns it for editing.
func (s *PropertyService) Create(ctx context.Context) (*property.Property, error) {
	draft := property.New()
	created, err := s.store.CreateProperty(ctx, &draft)
	if err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}
	s.changed(ctx, event.OpCreated, created.ID)
	slog.InfoContext(ctx, "property created", "property_id", created.ID)
	return created, nil
}

// Save writes p and returns the refetched list.
func (s *PropertyService) Save(ctx context.Context, p *property.Property) ([]property.Property, error) {
	if err := s.update(ctx, *p); err != nil {
		return nil, err
	}
	return s.refetch(ctx)
}

// Edit applies a form submission to property id and returns the refetched list.
func (s *PropertyService) Edit(ctx context.Context, id string, req EditRequest) ([]property.Property, error) {
	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := edit(ctx, *p, fieldmap.Property, req, s.update); err != nil {
		return nil, err
	}
	return s.refetch(ctx)
}

func (s *PropertyService) update(ctx context.Context, p property.Property) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.store.UpdateProperty(ctx, &p); err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	s.changed(ctx, event.OpUpdated, p.ID)
	return nil
}

func (s *PropertyService) refetch(ctx context.Context) ([]property.Property, error) {
	props, err := s.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("refetch properties: %w", err)
	}
	return props, nil
}

func (s *PropertyService) changed(ctx context.Context, op event.Op, id string) {
	s.cache.Invalidate(ctx, event.CollectionProperties)
	if s.events != nil {
		s.events.RecordChanged(ctx, event.CollectionProperties, op, id)
	}
}

// --- Maintenance requests ---

// ListMaintenance returns the requests of one property, newest first.
func (s *PropertyService) ListMaintenance(ctx context.Context, propertyID string) ([]maintenance.Request, error) {
	return s.store.ListMaintenance(ctx, propertyID)
}

// CreateMaintenance files a request against a property and returns the
// property's refetched request list. Status and priority default to
// pending and medium.
func (s *PropertyService) CreateMaintenance(ctx context.Context, r *maintenance.Request) ([]maintenance.Request, error) {
	if r.Status == "" {
		r.Status = maintenance.StatusPending
	}
	if r.Priority == "" {
		r.Priority = maintenance.PriorityMedium
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	created, err := s.store.CreateMaintenance(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("create maintenance request: %w", err)
	}
	s.maintenanceChanged(ctx, event.OpCreated, created.ID)
	return s.store.ListMaintenance(ctx, r.PropertyID)
}

// EditMaintenance applies a form submission to one request of a property.
func (s *PropertyService) EditMaintenance(ctx context.Context, propertyID, id string, req EditRequest) ([]maintenance.Request, error) {
	reqs, err := s.store.ListMaintenance(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	var current *maintenance.Request
	for i := range reqs {
		if reqs[i].ID == id {
			current = &reqs[i]
			break
		}
	}
	if current == nil {
		return nil, fmt.Errorf("maintenance request %s: %w", id, domain.ErrNotFound)
	}

	save := func(ctx context.Context, r maintenance.Request) error {
		if r.PropertyID != propertyID {
			return fmt.Errorf("%w: a request cannot move to another property", domain.ErrValidation)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if err := s.store.UpdateMaintenance(ctx, &r); err != nil {
			return fmt.Errorf("update maintenance request: %w", err)
		}
		s.maintenanceChanged(ctx, event.OpUpdated, r.ID)
		return nil
	}
	if _, err := edit(ctx, *current, fieldmap.Maintenance, req, save); err != nil {
		return nil, err
	}
	return s.store.ListMaintenance(ctx, propertyID)
}

// maintenanceChanged also drops the property list, which embeds the requests.
func (s *PropertyService) maintenanceChanged(ctx context.Context, op event.Op, id string) {
	s.cache.Invalidate(ctx, event.CollectionProperties)
	if s.events != nil {
		s.events.RecordChanged(ctx, event.CollectionMaintenance, op, id)
	}
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/maintenance"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
)

const propertyColumns = `id, name, address, type, bedrooms, bathrooms, rent, status, image_url,
	last_payment_date::text, user_id, created_at, updated_at`

const maintenanceColumns = `id, property_id, description, status, priority, user_id, created_at, updated_at`

func scanProperty(row scannable) (property.Property, error) {
	var p property.Property
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Type, &p.Bedrooms, &p.Bathrooms, &p.Rent, &p.Status,
		&p.ImageURL, &p.LastPaymentDate, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	p.MaintenanceRequests = []maintenance.Request{}
	return p, err
}

func scanMaintenance(row scannable) (maintenance.Request, error) {
	var r maintenance.Request
	err := row.Scan(&r.ID, &r.PropertyID, &r.Description, &r.Status, &r.Priority, &r.UserID, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// ListProperties returns the owner's properties newest first, each carrying
// its maintenance requests. The requests are loaded with a second query and
// stitched in memory.
func (s *Store) ListProperties(ctx context.Context) ([]property.Property, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	props, err := collect(rows, scanProperty)
	if err != nil {
		return nil, fmt.Errorf("scan property: %w", err)
	}
	if len(props) == 0 {
		return props, nil
	}

	rows, err = s.pool.Query(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list maintenance: %w", err)
	}
	reqs, err := collect(rows, scanMaintenance)
	if err != nil {
		return nil, fmt.Errorf("scan maintenance: %w", err)
	}

	byProperty := make(map[string][]maintenance.Request, len(props))
	for _, r := range reqs {
		byProperty[r.PropertyID] = append(byProperty[r.PropertyID], r)
	}
	for i := range props {
		if mr, ok := byProperty[props[i].ID]; ok {
			props[i].MaintenanceRequests = mr
		}
	}
	return props, nil
}

// ListPropertyRefs returns only (id, name) pairs, used to label tenants and documents.
func (s *Store) ListPropertyRefs(ctx context.Context) ([]property.Ref, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name FROM properties WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list property refs: %w", err)
	}
	refs, err := collect(rows, func(row scannable) (property.Ref, error) {
		var r property.Ref
		err := row.Scan(&r.ID, &r.Name)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan property ref: %w", err)
	}
	return refs, nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*property.Property, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	p, err := scanProperty(s.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1 AND user_id = $2`, id, owner))
	if err != nil {
		return nil, notFoundWrap(err, "get property %s", id)
	}
	reqs, err := s.ListMaintenance(ctx, id)
	if err != nil {
		return nil, err
	}
	p.MaintenanceRequests = reqs
	return &p, nil
}

// CreateProperty inserts p for the authenticated owner. The store assigns
// id and timestamps; p.ID and p.UserID are ignored.
func (s *Store) CreateProperty(ctx context.Context, p *property.Property) (*property.Property, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	created, err := scanProperty(s.pool.QueryRow(ctx, `
		INSERT INTO properties (name, address, type, bedrooms, bathrooms, rent, status, image_url, last_payment_date, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::date, $10)
		RETURNING `+propertyColumns,
		p.Name, p.Address, p.Type, p.Bedrooms, p.Bathrooms, p.Rent, p.Status, p.ImageURL, nullIfEmpty(p.LastPaymentDate), owner))
	if err != nil {
		return nil, fmt.Errorf("create property: %w", mapPgError(err))
	}
	return &created, nil
}

func (s *Store) UpdateProperty(ctx context.Context, p *property.Property) error {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE properties
		SET name = $3, address = $4, type = $5, bedrooms = $6, bathrooms = $7, rent = $8, status = $9,
		    image_url = $10, last_payment_date = $11::date, updated_at = $12
		WHERE id = $1 AND user_id = $2`,
		p.ID, owner, p.Name, p.Address, p.Type, p.Bedrooms, p.Bathrooms, p.Rent, p.Status,
		p.ImageURL, nullIfEmpty(p.LastPaymentDate), p.UpdatedAt)
	return execExpectOne(tag, err, "update property %s", p.ID)
}

// --- Maintenance requests ---

func (s *Store) ListMaintenance(ctx context.Context, propertyID string) ([]maintenance.Request, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_requests
		 WHERE property_id = $1 AND user_id = $2 ORDER BY created_at DESC`, propertyID, owner)
	if err != nil {
		return nil, fmt.Errorf("list maintenance: %w", err)
	}
	reqs, err := collect(rows, scanMaintenance)
	if err != nil {
		return nil, fmt.Errorf("scan maintenance: %w", err)
	}
	return reqs, nil
}

// CreateMaintenance inserts r under a property the owner holds. A property
// belonging to someone else reads as not found.
func (s *Store) CreateMaintenance(ctx context.Context, r *maintenance.Request) (*maintenance.Request, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	created, err := scanMaintenance(s.pool.QueryRow(ctx, `
		INSERT INTO maintenance_requests (property_id, description, status, priority, user_id)
		SELECT p.id, $2, $3, $4, $5 FROM properties p WHERE p.id = $1 AND p.user_id = $5
		RETURNING `+maintenanceColumns,
		r.PropertyID, r.Description, r.Status, r.Priority, owner))
	if err != nil {
		return nil, notFoundWrap(err, "create maintenance for property %s", r.PropertyID)
	}
	return &created, nil
}

func (s *Store) UpdateMaintenance(ctx context.Context, r *maintenance.Request) error {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return err
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE maintenance_requests SET description = $3, status = $4, priority = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2`,
		r.ID, owner, r.Description, r.Status, r.Priority, r.UpdatedAt)
	return execExpectOne(tag, err, "update maintenance %s", r.ID)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
)

const tenantColumns = `id, name, email, phone, lease_start::text, lease_end::text, property_id, user_id, created_at, updated_at`

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.LeaseStart, &t.LeaseEnd, &t.PropertyID,
		&t.UserID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	tenants, err := collect(rows, scanTenant)
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return tenants, nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1 AND user_id = $2`, id, owner))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return &t, nil
}

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	created, err := scanTenant(s.pool.QueryRow(ctx, `
		INSERT INTO tenants (name, email, phone, lease_start, lease_end, property_id, user_id)
		VALUES ($1, $2, $3, $4::date, $5::date, $6, $7)
		RETURNING `+tenantColumns,
		t.Name, t.Email, t.Phone, t.LeaseStart, t.LeaseEnd, nullIfEmpty(t.PropertyID), owner))
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", mapPgError(err))
	}
	return &created, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return err
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenants
		SET name = $3, email = $4, phone = $5, lease_start = $6::date, lease_end = $7::date, property_id = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2`,
		t.ID, owner, t.Name, t.Email, t.Phone, t.LeaseStart, t.LeaseEnd, nullIfEmpty(t.PropertyID), t.UpdatedAt)
	return execExpectOne(tag, err, "update tenant %s", t.ID)
}

func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1 AND user_id = $2`, id, owner)
	return execExpectOne(tag, err, "delete tenant %s", id)
}

// Package tenant defines the Tenant domain entity: a person leasing a property.
package tenant

import (
	"errors"
	"net/mail"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
)

// DefaultLeaseLength is the lease span pre-filled for a new tenant.
const DefaultLeaseLength = 365 * 24 * time.Hour

// Tenant is a lease holder owned by a user.
type Tenant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	LeaseStart string    `json:"lease_start"`
	LeaseEnd   string    `json:"lease_end"`
	PropertyID *string   `json:"property_id"`
	UserID     string    `json:"user_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// NewDraft returns the pre-filled form for the "Add Tenant" action.
// The lease runs from today for one year.
func NewDraft(now time.Time) Tenant {
	return Tenant{
		LeaseStart: now.Format(domain.DateLayout),
		LeaseEnd:   now.Add(DefaultLeaseLength).Format(domain.DateLayout),
	}
}

// Normalize turns an empty property reference into "no property".
func (t *Tenant) Normalize() {
	if t.PropertyID != nil && *t.PropertyID == "" {
		t.PropertyID = nil
	}
}

// Validate checks that the tenant fields hold acceptable values.
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return errors.New("name is required")
	}
	if t.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(t.Email); err != nil {
		return errors.New("invalid email format")
	}
	if !domain.ValidDate(t.LeaseStart) || !domain.ValidDate(t.LeaseEnd) {
		return errors.New("lease dates must be YYYY-MM-DD")
	}
	if t.LeaseEnd < t.LeaseStart {
		return errors.New("lease_end must not be before lease_start")
	}
	return nil
}

// Row is a tenant as shown on the tenants screen, labelled with its property name.
type Row struct {
	Tenant
	PropertyName string `json:"property_name"`
}

// Label resolves each tenant's property name against the fetched properties.
// A reference that matches nothing yields an empty name.
func Label(tenants []Tenant, props []property.Ref) []Row {
	names := make(map[string]string, len(props))
	for _, p := range props {
		names[p.ID] = p.Name
	}
	rows := make([]Row, 0, len(tenants))
	for i := range tenants {
		row := Row{Tenant: tenants[i]}
		if pid := tenants[i].PropertyID; pid != nil {
			row.PropertyName = names[*pid]
		}
		rows = append(rows, row)
	}
	return rows
}

// Ref is the (id, name) pair the documents screen uses to label tenant references.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Refs projects tenants to their id/name pairs.
func Refs(tenants []Tenant) []Ref {
	out := make([]Ref, 0, len(tenants))
	for i := range tenants {
		out = append(out, Ref{ID: tenants[i].ID, Name: tenants[i].Name})
	}
	return out
}

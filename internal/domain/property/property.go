// Package property defines the Property domain entity.
package property

import (
	"errors"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/maintenance"
)

// Type is the kind of dwelling.
type Type string

const (
	TypeApartment Type = "apartment"
	TypeHouse     Type = "house"
	TypeCondo     Type = "condo"
)

// Status is the occupancy state of a property.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusRented      Status = "rented"
	StatusMaintenance Status = "maintenance"
)

// ValidTypes is the set of accepted property types.
var ValidTypes = map[Type]bool{
	TypeApartment: true,
	TypeHouse:     true,
	TypeCondo:     true,
}

// ValidStatuses is the set of accepted property statuses.
var ValidStatuses = map[Status]bool{
	StatusAvailable:   true,
	StatusRented:      true,
	StatusMaintenance: true,
}

// DefaultImageURL is the stock photo shown for newly added properties.
const DefaultImageURL = "https://images.unsplash.com/photo-1518780664697-55e3ad937233?auto=format&fit=crop&w=800"

// Property is a rentable unit owned by a user.
type Property struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	Type            Type      `json:"type"`
	Bedrooms        int       `json:"bedrooms"`
	Bathrooms       int       `json:"bathrooms"`
	Rent            float64   `json:"rent"`
	Status          Status    `json:"status"`
	ImageURL        string    `json:"image_url"`
	LastPaymentDate *string   `json:"last_payment_date"`
	UserID          string    `json:"user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`

	MaintenanceRequests []maintenance.Request `json:"maintenance_requests"`
}

// New returns the record created by the "Add Property" action.
func New() Property {
	return Property{
		Name:                "New Property",
		Address:             "",
		Type:                TypeApartment,
		Bedrooms:            1,
		Bathrooms:           1,
		Rent:                0,
		Status:              StatusAvailable,
		ImageURL:            DefaultImageURL,
		MaintenanceRequests: []maintenance.Request{},
	}
}

// Occupied reports whether the property currently has a tenant.
func (p *Property) Occupied() bool {
	return p.Status == StatusRented
}

// Normalize turns a cleared payment date into no date.
func (p *Property) Normalize() {
	if p.LastPaymentDate != nil && *p.LastPaymentDate == "" {
		p.LastPaymentDate = nil
	}
}

// Validate checks that the property fields hold acceptable values.
func (p *Property) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if !ValidTypes[p.Type] {
		return errors.New("invalid type: must be apartment, house, or condo")
	}
	if !ValidStatuses[p.Status] {
		return errors.New("invalid status: must be available, rented, or maintenance")
	}
	if p.Bedrooms < 0 || p.Bathrooms < 0 {
		return errors.New("bedrooms and bathrooms must not be negative")
	}
	if p.Rent < 0 {
		return errors.New("rent must not be negative")
	}
	if p.LastPaymentDate != nil && !domain.ValidDate(*p.LastPaymentDate) {
		return errors.New("last_payment_date must be YYYY-MM-DD")
	}
	return nil
}

// Ref is the (id, name) pair other screens use to label property references.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Refs projects properties to their id/name pairs.
func Refs(props []Property) []Ref {
	out := make([]Ref, 0, len(props))
	for i := range props {
		out = append(out, Ref{ID: props[i].ID, Name: props[i].Name})
	}
	return out
}

// Package fieldmap translates between the form field names clients edit
// (camelCase) and the storage column names records are persisted under.
package fieldmap

import (
	"fmt"
	"sort"
)

// Pair binds one UI field name to one storage column.
type Pair struct {
	UI     string
	Column string
}

// Table is a bidirectional, per-entity field name mapping.
type Table struct {
	entity   string
	toColumn map[string]string
	toUI     map[string]string
}

// New builds a Table. It panics on a duplicate name on either side, since
// tables are package-level literals and a duplicate is a programming error.
func New(entity string, pairs ...Pair) Table {
	t := Table{
		entity:   entity,
		toColumn: make(map[string]string, len(pairs)),
		toUI:     make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		if _, dup := t.toColumn[p.UI]; dup {
			panic(fmt.Sprintf("fieldmap %s: duplicate ui field %q", entity, p.UI))
		}
		if _, dup := t.toUI[p.Column]; dup {
			panic(fmt.Sprintf("fieldmap %s: duplicate column %q", entity, p.Column))
		}
		t.toColumn[p.UI] = p.Column
		t.toUI[p.Column] = p.UI
	}
	return t
}

// Entity names the record kind this table maps.
func (t Table) Entity() string { return t.entity }

// Column returns the storage column for a UI field.
func (t Table) Column(ui string) (string, bool) {
	c, ok := t.toColumn[ui]
	return c, ok
}

// UI returns the UI field for a storage column.
func (t Table) UI(column string) (string, bool) {
	u, ok := t.toUI[column]
	return u, ok
}

// HasColumn reports whether column is editable through this table.
func (t Table) HasColumn(column string) bool {
	_, ok := t.toUI[column]
	return ok
}

// Fields lists the UI field names in sorted order.
func (t Table) Fields() []string {
	out := make([]string, 0, len(t.toColumn))
	for ui := range t.toColumn {
		out = append(out, ui)
	}
	sort.Strings(out)
	return out
}

// ToStorage renames UI-keyed values to their columns. Unknown fields are an error.
func (t Table) ToStorage(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		col, ok := t.toColumn[k]
		if !ok {
			return nil, fmt.Errorf("%s: unknown field %q", t.entity, k)
		}
		out[col] = v
	}
	return out, nil
}

// ToUI renames column-keyed values to UI field names. Columns without a
// UI field (ids, owner, timestamps) are dropped.
func (t Table) ToUI(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if ui, ok := t.toUI[k]; ok {
			out[ui] = v
		}
	}
	return out
}

// Property maps the property edit form.
var Property = New("property",
	Pair{"name", "name"},
	Pair{"address", "address"},
	Pair{"type", "type"},
	Pair{"bedrooms", "bedrooms"},
	Pair{"bathrooms", "bathrooms"},
	Pair{"rent", "rent"},
	Pair{"status", "status"},
	Pair{"imageUrl", "image_url"},
	Pair{"lastPaymentDate", "last_payment_date"},
)

// Maintenance maps the maintenance request form.
var Maintenance = New("maintenance_request",
	Pair{"propertyId", "property_id"},
	Pair{"description", "description"},
	Pair{"status", "status"},
	Pair{"priority", "priority"},
)

// Tenant maps the tenant edit form.
var Tenant = New("tenant",
	Pair{"name", "name"},
	Pair{"email", "email"},
	Pair{"phone", "phone"},
	Pair{"leaseStart", "lease_start"},
	Pair{"leaseEnd", "lease_end"},
	Pair{"propertyId", "property_id"},
)

// Document maps the document edit form.
var Document = New("document",
	Pair{"title", "title"},
	Pair{"type", "type"},
	Pair{"propertyId", "property_id"},
	Pair{"tenantId", "tenant_id"},
	Pair{"fileUrl", "file_url"},
	Pair{"status", "status"},
	Pair{"tags", "tags"},
	Pair{"uploadedAt", "uploaded_at"},
)

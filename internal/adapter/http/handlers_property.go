package http

import (
	"net/http"

	rmotel "github.com/Strob0t/rentalmanager/internal/adapter/otel"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/maintenance"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/service"
)

// ListProperties handles GET /api/v1/properties?search=&status=
func (h *Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.Properties.List(r.Context(), listQuery(r, "status"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load properties")
		return
	}
	writeJSON(w, http.StatusOK, props)
}

// GetProperty handles GET /api/v1/properties/{id}
func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.Properties.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load property")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProperty handles POST /api/v1/properties. It inserts the default
// record and returns it for editing.
func (h *Handlers) CreateProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.Properties.Create(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "Failed to add property")
		return
	}
	writeSaved(w, http.StatusCreated, p, "Property added successfully")
}

// UpdateProperty handles PUT /api/v1/properties/{id}
func (h *Handlers) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	p, ok := readJSON[property.Property](w, r)
	if !ok {
		return
	}
	p.ID = urlParam(r, "id")

	ctx, span := rmotel.StartSaveSpan(r.Context(), string(event.CollectionProperties), p.ID)
	defer span.End()
	props, err := h.Properties.Save(ctx, &p)
	if err != nil {
		span.RecordError(err)
		writeDomainError(w, r, err, "Failed to update property")
		return
	}
	writeSaved(w, http.StatusOK, props, "Property updated successfully")
}

// EditProperty handles PATCH /api/v1/properties/{id}
func (h *Handlers) EditProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.EditRequest](w, r)
	if !ok {
		return
	}
	id := urlParam(r, "id")

	ctx, span := rmotel.StartSaveSpan(r.Context(), string(event.CollectionProperties), id)
	defer span.End()
	props, err := h.Properties.Edit(ctx, id, req)
	if err != nil {
		span.RecordError(err)
		writeDomainError(w, r, err, "Failed to update property")
		return
	}
	writeSaved(w, http.StatusOK, props, "Property updated successfully")
}

// ListMaintenance handles GET /api/v1/properties/{id}/maintenance
func (h *Handlers) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Properties.ListMaintenance(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load maintenance requests")
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// CreateMaintenance handles POST /api/v1/properties/{id}/maintenance
func (h *Handlers) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[maintenance.Request](w, r)
	if !ok {
		return
	}
	req.PropertyID = urlParam(r, "id")

	reqs, err := h.Properties.CreateMaintenance(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err, "Failed to add maintenance request")
		return
	}
	writeSaved(w, http.StatusCreated, reqs, "Maintenance request added successfully")
}

// EditMaintenance handles PATCH /api/v1/properties/{id}/maintenance/{rid}
func (h *Handlers) EditMaintenance(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.EditRequest](w, r)
	if !ok {
		return
	}
	reqs, err := h.Properties.EditMaintenance(r.Context(), urlParam(r, "id"), urlParam(r, "rid"), req)
	if err != nil {
		writeDomainError(w, r, err, "Failed to update maintenance request")
		return
	}
	writeSaved(w, http.StatusOK, reqs, "Maintenance request updated successfully")
}

package http

import (
	"net/http"

	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
	"github.com/Strob0t/rentalmanager/internal/service"
)

// ListTenants handles GET /api/v1/tenants?search=
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	view, err := h.Tenants.List(r.Context(), listQuery(r, "filter"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load tenants")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// NewTenant handles GET /api/v1/tenants/new and returns the blank form.
func (h *Handlers) NewTenant(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Tenants.NewDraft())
}

// CreateTenant handles POST /api/v1/tenants
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := readJSON[tenant.Tenant](w, r)
	if !ok {
		return
	}
	t.ID = ""
	h.saveTenant(w, r, &t)
}

// UpdateTenant handles PUT /api/v1/tenants/{id}
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := readJSON[tenant.Tenant](w, r)
	if !ok {
		return
	}
	t.ID = urlParam(r, "id")
	h.saveTenant(w, r, &t)
}

func (h *Handlers) saveTenant(w http.ResponseWriter, r *http.Request, t *tenant.Tenant) {
	view, created, err := h.Tenants.Save(r.Context(), t)
	if err != nil {
		writeDomainError(w, r, err, "Failed to save tenant")
		return
	}
	if created {
		writeSaved(w, http.StatusCreated, view, "Tenant added successfully")
		return
	}
	writeSaved(w, http.StatusOK, view, "Tenant updated successfully")
}

// EditTenant handles PATCH /api/v1/tenants/{id}
func (h *Handlers) EditTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.EditRequest](w, r)
	if !ok {
		return
	}
	view, err := h.Tenants.Edit(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, r, err, "Failed to save tenant")
		return
	}
	writeSaved(w, http.StatusOK, view, "Tenant updated successfully")
}

type deleteRequestResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// RequestTenantDelete handles POST /api/v1/tenants/{id}/delete-request
func (h *Handlers) RequestTenantDelete(w http.ResponseWriter, r *http.Request) {
	token, err := h.Tenants.RequestDelete(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to delete tenant")
		return
	}
	writeJSON(w, http.StatusOK, deleteRequestResponse{
		Token:   token,
		Message: "Are you sure you want to delete this tenant?",
	})
}

// DeleteTenant handles DELETE /api/v1/tenants/{id}?confirm=<token>
func (h *Handlers) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	view, err := h.Tenants.Delete(r.Context(), urlParam(r, "id"), r.URL.Query().Get("confirm"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to delete tenant")
		return
	}
	writeSaved(w, http.StatusOK, view, "Tenant deleted successfully")
}

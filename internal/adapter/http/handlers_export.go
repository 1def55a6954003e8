package http

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/Strob0t/rentalmanager/internal/adapter/xlsx"
)

// ExportProperties handles GET /api/v1/export/properties.xlsx. The list
// screen's search and status filter apply.
func (h *Handlers) ExportProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.Properties.List(r.Context(), listQuery(r, "status"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load properties")
		return
	}
	var buf bytes.Buffer
	if err := xlsx.WriteProperties(&buf, props); err != nil {
		writeDomainError(w, r, err, "Failed to export properties")
		return
	}
	writeWorkbook(w, "properties.xlsx", &buf)
}

// ExportTenants handles GET /api/v1/export/tenants.xlsx
func (h *Handlers) ExportTenants(w http.ResponseWriter, r *http.Request) {
	view, err := h.Tenants.List(r.Context(), listQuery(r, "filter"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load tenants")
		return
	}
	var buf bytes.Buffer
	if err := xlsx.WriteTenants(&buf, view.Tenants); err != nil {
		writeDomainError(w, r, err, "Failed to export tenants")
		return
	}
	writeWorkbook(w, "tenants.xlsx", &buf)
}

// writeWorkbook sends a fully rendered workbook so a failed render never
// leaves a truncated download.
func writeWorkbook(w http.ResponseWriter, name string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

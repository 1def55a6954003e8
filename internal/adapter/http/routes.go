package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mounts are endpoints served by other adapters. Nil entries are skipped.
type Mounts struct {
	WS      http.HandlerFunc // /ws
	MCP     http.Handler     // /mcp
	Storage http.Handler     // /storage/*, local object store only
}

// MountRoutes registers the screens, the JSON API and the extra mounts.
// Session, API key, rate and idempotency middleware are applied by the caller.
func MountRoutes(r chi.Router, h *Handlers, m Mounts) {
	r.Get("/health", h.Health)

	// Public screens
	r.Get("/login", h.LoginScreen)
	r.Post("/login", h.Login)
	r.Get("/signup", h.SignupScreen)
	r.Post("/signup", h.Signup)

	// Gated screens
	r.Get("/", h.DashboardScreen)
	r.Get("/properties", h.PropertiesScreen)
	r.Get("/tenants", h.TenantsScreen)
	r.Get("/documents", h.DocumentsScreen)
	r.Get("/settings", h.SettingsScreen)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": "1", "app": h.AppName})
		})

		// Auth
		r.Post("/auth/login", h.Login)
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)
		r.Get("/session", h.Session)

		r.Get("/dashboard", h.GetDashboard)

		// Properties and their maintenance requests
		r.Get("/properties", h.ListProperties)
		r.Post("/properties", h.CreateProperty)
		r.Get("/properties/{id}", h.GetProperty)
		r.Put("/properties/{id}", h.UpdateProperty)
		r.Patch("/properties/{id}", h.EditProperty)
		r.Get("/properties/{id}/maintenance", h.ListMaintenance)
		r.Post("/properties/{id}/maintenance", h.CreateMaintenance)
		r.Patch("/properties/{id}/maintenance/{rid}", h.EditMaintenance)

		// Tenants
		r.Get("/tenants", h.ListTenants)
		r.Post("/tenants", h.CreateTenant)
		r.Get("/tenants/new", h.NewTenant)
		r.Put("/tenants/{id}", h.UpdateTenant)
		r.Patch("/tenants/{id}", h.EditTenant)
		r.Post("/tenants/{id}/delete-request", h.RequestTenantDelete)
		r.Delete("/tenants/{id}", h.DeleteTenant)

		// Documents
		r.Get("/documents", h.ListDocuments)
		r.Get("/documents/upload", h.UploadStatus)
		r.Post("/documents/upload", h.UploadDocument)
		r.Get("/documents/{id}", h.GetDocument)
		r.Put("/documents/{id}", h.UpdateDocument)
		r.Patch("/documents/{id}", h.EditDocument)

		// Spreadsheet export
		r.Get("/export/properties.xlsx", h.ExportProperties)
		r.Get("/export/tenants.xlsx", h.ExportTenants)
	})

	if m.WS != nil {
		r.Get("/ws", m.WS)
	}
	if m.MCP != nil {
		r.Handle("/mcp", m.MCP)
		r.Handle("/mcp/*", m.MCP)
	}
	if m.Storage != nil {
		r.Handle("/storage/*", http.StripPrefix("/storage", m.Storage))
	}
}

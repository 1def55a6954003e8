package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/database"
	"github.com/Strob0t/rentalmanager/internal/service"
)

// UploadRecorder counts finished uploads.
type UploadRecorder interface {
	CountUpload(ctx context.Context, size int64, err error)
}

// Handlers holds the services the HTTP layer talks to.
type Handlers struct {
	AppName    string
	Auth       *service.AuthService
	Probe      database.Pinger
	Properties *service.PropertyService
	Tenants    *service.TenantService
	Documents  *service.DocumentService
	Dashboard  *service.DashboardService
	Uploads    UploadRecorder // optional

	MaxUploadBytes     int64
	RefreshTokenExpiry time.Duration
}

// screenView is the JSON rendering of a navigable screen.
type screenView struct {
	Screen string     `json:"screen"`
	App    string     `json:"app"`
	User   *user.User `json:"user,omitempty"`
	Data   any        `json:"data,omitempty"`
}

func (h *Handlers) writeScreen(w http.ResponseWriter, r *http.Request, name string, data any) {
	writeJSON(w, http.StatusOK, screenView{
		Screen: name,
		App:    h.AppName,
		User:   user.FromContext(r.Context()),
		Data:   data,
	})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type healthStatus struct {
		Status   string `json:"status"`
		App      string `json:"app"`
		Database string `json:"database"`
	}
	status := healthStatus{Status: "ok", App: h.AppName, Database: "ok"}
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.Probe.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// DashboardScreen handles GET /.
func (h *Handlers) DashboardScreen(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Dashboard.Summary(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "Failed to load dashboard data")
		return
	}
	h.writeScreen(w, r, "dashboard", summary)
}

// PropertiesScreen handles GET /properties.
func (h *Handlers) PropertiesScreen(w http.ResponseWriter, r *http.Request) {
	props, err := h.Properties.List(r.Context(), listQuery(r, "status"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load properties")
		return
	}
	h.writeScreen(w, r, "properties", props)
}

// TenantsScreen handles GET /tenants.
func (h *Handlers) TenantsScreen(w http.ResponseWriter, r *http.Request) {
	view, err := h.Tenants.List(r.Context(), listQuery(r, "filter"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load tenants")
		return
	}
	h.writeScreen(w, r, "tenants", view)
}

// DocumentsScreen handles GET /documents.
func (h *Handlers) DocumentsScreen(w http.ResponseWriter, r *http.Request) {
	view, err := h.Documents.List(r.Context(), listQuery(r, "type"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load documents")
		return
	}
	h.writeScreen(w, r, "documents", view)
}

// SettingsScreen handles GET /settings. It only shows the account.
func (h *Handlers) SettingsScreen(w http.ResponseWriter, r *http.Request) {
	h.writeScreen(w, r, "settings", nil)
}

// LoginScreen handles GET /login.
func (h *Handlers) LoginScreen(w http.ResponseWriter, r *http.Request) {
	h.writeScreen(w, r, "login", map[string]string{"submit": "/login", "signup": "/signup"})
}

// SignupScreen handles GET /signup.
func (h *Handlers) SignupScreen(w http.ResponseWriter, r *http.Request) {
	h.writeScreen(w, r, "signup", map[string]string{"submit": "/signup", "login": "/login"})
}

// GetDashboard handles GET /api/v1/dashboard.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Dashboard.Summary(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "Failed to load dashboard data")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

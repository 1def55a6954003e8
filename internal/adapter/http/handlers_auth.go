package http

import (
	"net/http"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/middleware"
	"github.com/Strob0t/rentalmanager/internal/service"
)

const (
	refreshCookieName = "rental_refresh"
	refreshCookiePath = "/api/v1/auth"
)

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	age := int(maxAge / time.Second)
	if value == "" {
		age = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   age,
	})
}

func (h *Handlers) writeSession(w http.ResponseWriter, status int, sess *user.Session) {
	h.setRefreshCookie(w, sess.RefreshToken, h.RefreshTokenExpiry)
	writeJSON(w, status, sess)
}

// Login handles POST /api/v1/auth/login and POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}
	sess, err := h.Auth.SignIn(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, "Invalid login credentials")
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

// Signup handles POST /api/v1/auth/signup and POST /signup.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.SignUpRequest](w, r)
	if !ok {
		return
	}
	sess, err := h.Auth.SignUp(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, "Failed to create account")
		return
	}
	h.writeSession(w, http.StatusCreated, sess)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"` //nolint:gosec // request field, not a hardcoded secret
}

// Refresh handles POST /api/v1/auth/refresh. The token comes from the
// request body or, for browsers, the refresh cookie.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var raw string
	if r.ContentLength > 0 {
		req, ok := readJSON[refreshRequest](w, r)
		if !ok {
			return
		}
		raw = req.RefreshToken
	}
	if raw == "" {
		if c, err := r.Cookie(refreshCookieName); err == nil {
			raw = c.Value
		}
	}

	sess, err := h.Auth.Refresh(r.Context(), raw)
	if err != nil {
		h.setRefreshCookie(w, "", 0)
		writeDomainError(w, r, err, "Your session has expired. Please sign in again.")
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.SignOut(r.Context(), middleware.BearerToken(r)); err != nil {
		writeDomainError(w, r, err, "Failed to sign out")
		return
	}
	h.setRefreshCookie(w, "", 0)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Me handles GET /api/v1/auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u := user.FromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Session handles GET /api/v1/session. It is reachable without a session
// and reports the gate's state for the presented token.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	gate := service.NewSessionGate(h.Auth, h.Probe)
	defer gate.Close()
	writeJSON(w, http.StatusOK, gate.Init(r.Context(), middleware.BearerToken(r)))
}

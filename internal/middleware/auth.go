package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/logger"
	"github.com/Strob0t/rentalmanager/internal/port/backend"
	"github.com/Strob0t/rentalmanager/internal/port/database"
	"github.com/Strob0t/rentalmanager/internal/service"
)

type sessionCtxKey struct{}

// publicPaths are reachable without a session.
var publicPaths = map[string]bool{
	"/health":              true,
	"/login":               true,
	"/signup":              true,
	"/api/v1/auth/login":   true,
	"/api/v1/auth/signup":  true,
	"/api/v1/auth/refresh": true,
	"/api/v1/session":      true,
}

// publicPrefixes cover uploaded files, which are served under public URLs.
var publicPrefixes = []string{"/storage/"}

// IsPublic reports whether path skips the session gate.
func IsPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// isAPI reports whether unauthenticated callers get 401 instead of a redirect.
func isAPI(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/ws" || strings.HasPrefix(path, "/mcp")
}

// Gate resolves the caller's session once per request through a
// service.SessionGate and decides what the request may see:
//
//   - backend unreachable or session lookup failing: 503 with the notice
//   - no valid session: 401 for API calls, 302 to /login for screens
//   - authenticated: the user is placed in the context
//
// The gate is closed when the request ends.
func Gate(auth backend.Auth, probe database.Pinger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			gate := service.NewSessionGate(auth, probe)
			defer gate.Close()
			snap := gate.Init(r.Context(), BearerToken(r))

			switch snap.State {
			case service.StateConnectionError:
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"error":  "service unavailable",
					"state":  string(snap.State),
					"notice": snap.Notice,
				})
				return
			case service.StateAuthenticated:
				ctx := user.NewContext(r.Context(), snap.User)
				ctx = logger.WithUserID(ctx, snap.User.ID)
				ctx = context.WithValue(ctx, sessionCtxKey{}, gate)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if isAPI(r.URL.Path) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "authorization required",
					"state": string(service.StateAnonymous),
				})
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
		})
	}
}

// BearerToken returns the access token of r: the Authorization bearer
// token, or the ?token= query parameter on the WebSocket endpoint
// (browsers cannot set headers on a WebSocket handshake).
func BearerToken(r *http.Request) string {
	if r.URL.Path == "/ws" {
		if t := r.URL.Query().Get("token"); t != "" {
			return t
		}
	}
	h := r.Header.Get("Authorization")
	token := strings.TrimPrefix(h, "Bearer ")
	if token == h {
		return ""
	}
	return strings.TrimSpace(token)
}

// SessionFromContext returns the gate's current snapshot for the request.
// ok is false outside the gate.
func SessionFromContext(ctx context.Context) (snap service.SessionSnapshot, ok bool) {
	g, _ := ctx.Value(sessionCtxKey{}).(*service.SessionGate)
	if g == nil {
		return service.SessionSnapshot{}, false
	}
	return g.Snapshot(), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

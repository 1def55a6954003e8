package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// HeaderAPIKey is the header carrying the public API key.
const HeaderAPIKey = "apikey"

// APIKey requires every /api/ and /ws request to present the public API
// key, in the apikey header or (for the WebSocket handshake) the ?apikey=
// query parameter. key is read per request so a secrets reload applies
// immediately.
func APIKey(key func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") && r.URL.Path != "/ws" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(HeaderAPIKey)
			if got == "" && r.URL.Path == "/ws" {
				got = r.URL.Query().Get(HeaderAPIKey)
			}
			if got == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no API key found in request"})
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key())) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

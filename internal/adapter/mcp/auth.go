package mcp

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the assistant integration key.
const APIKeyHeader = "X-MCP-Key"

// AuthMiddleware rejects requests whose X-MCP-Key header does not match the
// key returned by apiKey. The key is read per request so a secrets reload
// takes effect immediately. An empty key disables the endpoint entirely.
func AuthMiddleware(apiKey func() string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := apiKey()
		if want == "" {
			http.Error(w, "assistant tools are disabled", http.StatusNotFound)
			return
		}
		got := r.Header.Get(APIKeyHeader)
		if got == "" {
			http.Error(w, "missing "+APIKeyHeader+" header", http.StatusUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/listing"
)

const (
	maxRequestBodySize = 1 << 20 // 1 MB
	maxQueryLength     = 200
)

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// listQuery reads the search box and category filter of a list screen.
// filterParam names the category (status or type).
func listQuery(r *http.Request, filterParam string) listing.Query {
	q := r.URL.Query()
	search := q.Get("search")
	if len(search) > maxQueryLength {
		search = search[:maxQueryLength]
	}
	return listing.Query{Search: search, Filter: q.Get(filterParam)}
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error  string `json:"error"`
	Notice string `json:"notice,omitempty"`
}

// savedResponse is returned by every write: the refetched view plus the
// notice to show.
type savedResponse struct {
	Data   any    `json:"data"`
	Notice string `json:"notice"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeSaved(w http.ResponseWriter, status int, data any, notice string) {
	writeJSON(w, status, savedResponse{Data: data, Notice: notice})
}

// writeDomainError logs err and maps it to a status with notice as the
// message the screen shows.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, notice string) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), notice, "error", err)
	} else {
		slog.WarnContext(r.Context(), notice, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: msg, Notice: notice})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "resource was modified by another request"
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, domain.ErrBusy.Error()
	case errors.Is(err, domain.ErrConfirmation):
		return http.StatusPreconditionRequired, domain.ErrConfirmation.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "authorization required"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	case strings.Contains(err.Error(), "invalid input syntax"):
		return http.StatusBadRequest, "invalid identifier format"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

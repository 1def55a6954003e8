// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a write collided with existing state.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates the request carried invalid field values.
var ErrValidation = errors.New("validation failed")

// ErrUnauthenticated indicates there is no valid session for the caller.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrUnavailable indicates the backend could not be reached.
var ErrUnavailable = errors.New("backend unavailable")

// ErrBusy indicates the caller already has an operation of the same kind in flight.
var ErrBusy = errors.New("operation already in progress")

// ErrConfirmation indicates a destructive action was requested without a valid confirmation.
var ErrConfirmation = errors.New("confirmation required")

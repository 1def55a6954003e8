// Package maintenance defines the maintenance request attached to a property.
package maintenance

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a maintenance request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Priority ranks how urgently a request must be handled.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidStatuses is the set of accepted status values.
var ValidStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// ValidPriorities is the set of accepted priority values.
var ValidPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
}

// Request is a maintenance request filed against a property.
type Request struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Urgent reports whether the request counts towards the dashboard's urgent total.
func (r *Request) Urgent() bool {
	return r.Priority == PriorityHigh
}

// Validate checks the request fields that the store does not enforce.
func (r *Request) Validate() error {
	if r.PropertyID == "" {
		return errors.New("property_id is required")
	}
	if r.Description == "" {
		return errors.New("description is required")
	}
	if !ValidStatuses[r.Status] {
		return errors.New("invalid status: must be pending, in-progress, or completed")
	}
	if !ValidPriorities[r.Priority] {
		return errors.New("invalid priority: must be low, medium, or high")
	}
	return nil
}

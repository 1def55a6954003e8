// Package broadcast defines the port for pushing real-time events to connected browsers.
package broadcast

import "context"

// Broadcaster sends events to connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to every client of the given user.
	BroadcastEvent(ctx context.Context, userID, eventType string, payload any)
}

// Event types pushed to browsers.
const (
	EventAuthState     = "auth.state"
	EventRecordChanged = "records.changed"
)

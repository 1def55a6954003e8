// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects published by Rental Manager.
const (
	SubjectAuthState      = "auth.state"      // event.AuthState
	SubjectRecordsChanged = "records.changed" // event.RecordChanged, suffixed with the collection
)

// RecordsSubject returns the per-collection subject, e.g. "records.changed.tenants".
func RecordsSubject(collection string) string {
	return SubjectRecordsChanged + "." + collection
}

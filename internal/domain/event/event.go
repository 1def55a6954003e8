// Package event defines the notifications fanned out when sessions or records change.
package event

import "time"

// AuthChange identifies a session transition.
type AuthChange string

const (
	AuthSignedIn  AuthChange = "SIGNED_IN"
	AuthSignedOut AuthChange = "SIGNED_OUT"
	AuthRefreshed AuthChange = "TOKEN_REFRESHED"
	AuthSignedUp  AuthChange = "SIGNED_UP"
)

// AuthState is published whenever a user's session changes.
type AuthState struct {
	Change    AuthChange `json:"change"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Collection names a record table.
type Collection string

const (
	CollectionProperties  Collection = "properties"
	CollectionMaintenance Collection = "maintenance_requests"
	CollectionTenants     Collection = "tenants"
	CollectionDocuments   Collection = "documents"
)

// Op is the kind of write applied to a record.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// RecordChanged is published after a write to any owned record.
type RecordChanged struct {
	Collection Collection `json:"collection"`
	Op         Op         `json:"op"`
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Timestamp  time.Time  `json:"timestamp"`
}

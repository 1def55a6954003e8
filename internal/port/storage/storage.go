// Package storage defines the object storage port (interface).
package storage

import (
	"context"
	"io"
)

// ObjectStore stores uploaded files in a single bucket.
type ObjectStore interface {
	// Upload writes the object at path. size may be -1 when unknown.
	Upload(ctx context.Context, path, contentType string, r io.Reader, size int64) error

	// PublicURL returns the URL under which path can be downloaded.
	PublicURL(path string) string
}

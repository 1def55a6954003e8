// Package document defines the Document domain entity and its tag rules.
package document

import (
	"errors"
	"path"
	"strings"
	"time"
)

// Type classifies a document.
type Type string

const (
	TypeLease       Type = "lease"
	TypeContract    Type = "contract"
	TypeMaintenance Type = "maintenance"
	TypeInvoice     Type = "invoice"
	TypeOther       Type = "other"
)

// Status is the archival state of a document.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// ValidTypes is the set of accepted document types.
var ValidTypes = map[Type]bool{
	TypeLease:       true,
	TypeContract:    true,
	TypeMaintenance: true,
	TypeInvoice:     true,
	TypeOther:       true,
}

// ValidStatuses is the set of accepted document statuses.
var ValidStatuses = map[Status]bool{
	StatusActive:   true,
	StatusArchived: true,
}

// AllowedExtensions lists the file extensions accepted for upload.
var AllowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// Document is a stored file with metadata, owned by a user.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Type       Type      `json:"type"`
	PropertyID *string   `json:"property_id"`
	TenantID   *string   `json:"tenant_id"`
	FileURL    string    `json:"file_url"`
	Status     Status    `json:"status"`
	Tags       []string  `json:"tags"`
	UploadedAt time.Time `json:"uploaded_at,omitzero"`
	UserID     string    `json:"user_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// NewUploaded returns the record inserted after a file reached storage.
func NewUploaded(fileName, fileURL string, now time.Time) Document {
	return Document{
		Title:      fileName,
		Type:       TypeOther,
		FileURL:    fileURL,
		Status:     StatusActive,
		Tags:       []string{},
		UploadedAt: now,
	}
}

// Normalize clears empty references and guarantees a non-nil tag list.
func (d *Document) Normalize() {
	if d.PropertyID != nil && *d.PropertyID == "" {
		d.PropertyID = nil
	}
	if d.TenantID != nil && *d.TenantID == "" {
		d.TenantID = nil
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
}

// Validate checks that the document fields hold acceptable values.
func (d *Document) Validate() error {
	if d.Title == "" {
		return errors.New("title is required")
	}
	if !ValidTypes[d.Type] {
		return errors.New("invalid type: must be lease, contract, maintenance, invoice, or other")
	}
	if !ValidStatuses[d.Status] {
		return errors.New("invalid status: must be active or archived")
	}
	if d.FileURL == "" {
		return errors.New("file_url is required")
	}
	return nil
}

// Extension returns the lower-cased extension of name, including the dot.
func Extension(name string) string {
	return strings.ToLower(path.Ext(name))
}

// ValidateUpload checks that a file name carries an accepted extension.
func ValidateUpload(name string) error {
	if name == "" {
		return errors.New("file name is required")
	}
	if !AllowedExtensions[Extension(name)] {
		return errors.New("unsupported file type: must be .pdf, .doc, .docx, or .txt")
	}
	return nil
}

// StoragePath builds the object path "<userID>/<key><ext>" under which an upload is stored.
func StoragePath(userID, key, ext string) string {
	return userID + "/" + key + ext
}

// AddTag appends the trimmed tag unless it is empty or already present.
// It reports whether the tag list changed.
func AddTag(tags []string, raw string) ([]string, bool) {
	tag := strings.TrimSpace(raw)
	if tag == "" {
		return tags, false
	}
	for _, t := range tags {
		if t == tag {
			return tags, false
		}
	}
	return append(tags, tag), true
}

// RemoveTag removes the first occurrence of tag, keeping the order of the rest.
func RemoveTag(tags []string, tag string) ([]string, bool) {
	for i, t := range tags {
		if t == tag {
			out := make([]string, 0, len(tags)-1)
			out = append(out, tags[:i]...)
			return append(out, tags[i+1:]...), true
		}
	}
	return tags, false
}

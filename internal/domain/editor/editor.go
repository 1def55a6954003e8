// Package editor implements the edit-a-copy workflow shared by all record forms:
// open a private draft of a record, change fields by their UI names, then
// submit the draft back to the caller's save function.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/document"
	"github.com/Strob0t/rentalmanager/internal/domain/fieldmap"
)

// ErrClosed is returned when an editor is used after it was submitted or cancelled.
var ErrClosed = errors.New("editor is closed")

const (
	colTags       = "tags"
	colUploadedAt = "uploaded_at"
	colUpdatedAt  = "updated_at"
)

// SaveFunc persists a submitted record.
type SaveFunc[T any] func(ctx context.Context, rec T) error

// Editor holds a column-keyed draft of one record.
type Editor[T any] struct {
	draft   map[string]any
	table   fieldmap.Table
	onClose func()
	onSave  SaveFunc[T]
	now     func() time.Time
	closed  bool
}

// Open copies record into a new draft. The caller's value is never modified.
// onClose may be nil.
func Open[T any](record T, table fieldmap.Table, onClose func(), onSave SaveFunc[T]) (*Editor[T], error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("open %s editor: %w", table.Entity(), err)
	}
	draft := make(map[string]any)
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("open %s editor: %w", table.Entity(), err)
	}
	if onClose == nil {
		onClose = func() {}
	}
	return &Editor[T]{
		draft:   draft,
		table:   table,
		onClose: onClose,
		onSave:  onSave,
		now:     time.Now,
	}, nil
}

// WithClock replaces the time source used for submit defaults.
func (e *Editor[T]) WithClock(now func() time.Time) *Editor[T] {
	e.now = now
	return e
}

// Set writes value to the column mapped from the UI field name.
func (e *Editor[T]) Set(uiField string, value any) error {
	if e.closed {
		return ErrClosed
	}
	col, ok := e.table.Column(uiField)
	if !ok {
		return fmt.Errorf("%w: %s has no field %q", domain.ErrValidation, e.table.Entity(), uiField)
	}
	e.draft[col] = value
	return nil
}

// Get returns the draft value for a UI field name.
func (e *Editor[T]) Get(uiField string) (any, bool) {
	col, ok := e.table.Column(uiField)
	if !ok {
		return nil, false
	}
	v, ok := e.draft[col]
	return v, ok
}

// Apply sets every UI-keyed value in fields, stopping at the first unknown field.
func (e *Editor[T]) Apply(fields map[string]any) error {
	for k, v := range fields {
		if err := e.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Tags returns a copy of the draft's tag list.
func (e *Editor[T]) Tags() []string {
	raw, _ := e.draft[colTags].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	if ss, ok := e.draft[colTags].([]string); ok {
		out = append(out, ss...)
	}
	return out
}

// AddTag trims raw and appends it unless it is empty or already present.
func (e *Editor[T]) AddTag(raw string) (bool, error) {
	if err := e.tagsEditable(); err != nil {
		return false, err
	}
	tags, changed := document.AddTag(e.Tags(), raw)
	e.draft[colTags] = tags
	return changed, nil
}

// RemoveTag removes exactly one occurrence of tag.
func (e *Editor[T]) RemoveTag(tag string) (bool, error) {
	if err := e.tagsEditable(); err != nil {
		return false, err
	}
	tags, changed := document.RemoveTag(e.Tags(), tag)
	e.draft[colTags] = tags
	return changed, nil
}

func (e *Editor[T]) tagsEditable() error {
	if e.closed {
		return ErrClosed
	}
	if !e.table.HasColumn(colTags) {
		return fmt.Errorf("%w: %s has no tags", domain.ErrValidation, e.table.Entity())
	}
	return nil
}

// Draft decodes the current draft into a record without submitting it.
func (e *Editor[T]) Draft() (T, error) {
	return e.decode()
}

// Submit fills timestamp defaults, decodes the draft and hands it to the save
// function. On success the editor closes; on failure it stays open so the
// caller can correct the draft and retry.
func (e *Editor[T]) Submit(ctx context.Context) (T, error) {
	var zero T
	if e.closed {
		return zero, ErrClosed
	}

	now := e.now().UTC()
	if e.table.HasColumn(colUploadedAt) && unset(e.draft[colUploadedAt]) {
		e.draft[colUploadedAt] = now.Format(time.RFC3339Nano)
	}
	e.draft[colUpdatedAt] = now.Format(time.RFC3339Nano)

	rec, err := e.decode()
	if err != nil {
		return zero, err
	}
	if err := e.onSave(ctx, rec); err != nil {
		return zero, err
	}
	e.Close()
	return rec, nil
}

// Cancel discards the draft and closes the editor.
func (e *Editor[T]) Cancel() {
	e.Close()
}

// Close calls onClose once.
func (e *Editor[T]) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.draft = nil
	e.onClose()
}

// Closed reports whether the editor was submitted or cancelled.
func (e *Editor[T]) Closed() bool { return e.closed }

func (e *Editor[T]) decode() (T, error) {
	var rec T
	raw, err := json.Marshal(e.draft)
	if err != nil {
		return rec, fmt.Errorf("encode %s draft: %w", e.table.Entity(), err)
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %s draft: %v", domain.ErrValidation, e.table.Entity(), err)
	}
	return rec, nil
}

func unset(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		if x == "" {
			return true
		}
		t, err := time.Parse(time.RFC3339Nano, x)
		return err == nil && t.IsZero()
	}
	return false
}

package service

import (
	"context"

	"github.com/Strob0t/rentalmanager/internal/domain/editor"
	"github.com/Strob0t/rentalmanager/internal/domain/fieldmap"
)

// EditRequest is a form submission: UI-named field values plus tag operations.
// Tags are added before they are removed.
type EditRequest struct {
	Fields     map[string]any `json:"fields"`
	AddTags    []string       `json:"add_tags,omitempty"`
	RemoveTags []string       `json:"remove_tags,omitempty"`
}

// edit runs req through an editor session on a copy of rec and submits it to save.
func edit[T any](ctx context.Context, rec T, table fieldmap.Table, req EditRequest, save editor.SaveFunc[T]) (T, error) {
	var zero T
	ed, err := editor.Open(rec, table, nil, save)
	if err != nil {
		return zero, err
	}
	defer ed.Cancel()

	if err := ed.Apply(req.Fields); err != nil {
		return zero, err
	}
	for _, tag := range req.AddTags {
		if _, err := ed.AddTag(tag); err != nil {
			return zero, err
		}
	}
	for _, tag := range req.RemoveTags {
		if _, err := ed.RemoveTag(tag); err != nil {
			return zero, err
		}
	}
	return ed.Submit(ctx)
}

package editor

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/document"
	"github.com/Strob0t/rentalmanager/internal/domain/fieldmap"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleDoc() document.Document {
	return document.Document{
		ID:      "d1",
		Title:   "Lease",
		Type:    document.TypeLease,
		FileURL: "https://files/u1/a.pdf",
		Status:  document.StatusActive,
		Tags:    []string{"2024", "unit-4"},
	}
}

func TestOpen_DoesNotMutateOriginal(t *testing.T) {
	orig := sampleDoc()
	ed, err := Open(orig, fieldmap.Document, nil, func(context.Context, document.Document) error { return nil })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := ed.Set("title", "Changed"); err != nil {
		t.Fatal(err)
	}
	if _, err := ed.AddTag("new"); err != nil {
		t.Fatal(err)
	}

	if orig.Title != "Lease" {
		t.Errorf("original title mutated: %q", orig.Title)
	}
	if !slices.Equal(orig.Tags, []string{"2024", "unit-4"}) {
		t.Errorf("original tags mutated: %v", orig.Tags)
	}
}

func TestSet_TranslatesUIFieldNames(t *testing.T) {
	var saved document.Document
	ed, _ := Open(sampleDoc(), fieldmap.Document, nil, func(_ context.Context, d document.Document) error {
		saved = d
		return nil
	})
	ed.WithClock(func() time.Time { return fixedNow })

	for field, v := range map[string]any{"propertyId": "p9", "tenantId": "t3", "fileUrl": "https://files/new.pdf"} {
		if err := ed.Set(field, v); err != nil {
			t.Fatalf("Set(%s): %v", field, err)
		}
	}
	if _, err := ed.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if saved.PropertyID == nil || *saved.PropertyID != "p9" {
		t.Errorf("property_id = %v, want p9", saved.PropertyID)
	}
	if saved.TenantID == nil || *saved.TenantID != "t3" {
		t.Errorf("tenant_id = %v, want t3", saved.TenantID)
	}
	if saved.FileURL != "https://files/new.pdf" {
		t.Errorf("file_url = %q", saved.FileURL)
	}
}

func TestSet_UnknownFieldRejected(t *testing.T) {
	ed, _ := Open(sampleDoc(), fieldmap.Document, nil, func(context.Context, document.Document) error { return nil })
	err := ed.Set("userId", "someone-else")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTags_DuplicateNotAddedAndRemoveOne(t *testing.T) {
	ed, _ := Open(sampleDoc(), fieldmap.Document, nil, func(context.Context, document.Document) error { return nil })

	changed, err := ed.AddTag(" 2024 ")
	if err != nil || changed {
		t.Fatalf("duplicate AddTag = %v, %v; want false, nil", changed, err)
	}
	if got := ed.Tags(); len(got) != 2 {
		t.Fatalf("tags = %v, want 2 entries", got)
	}

	changed, _ = ed.RemoveTag("2024")
	if !changed {
		t.Fatal("RemoveTag should report a change")
	}
	if got := ed.Tags(); !slices.Equal(got, []string{"unit-4"}) {
		t.Fatalf("tags = %v, want [unit-4]", got)
	}
}

func TestTags_NotOnTenant(t *testing.T) {
	ed, _ := Open(tenant.Tenant{Name: "A"}, fieldmap.Tenant, nil, func(context.Context, tenant.Tenant) error { return nil })
	if _, err := ed.AddTag("x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSubmit_DefaultsUploadedAt(t *testing.T) {
	doc := sampleDoc() // UploadedAt zero
	ed, _ := Open(doc, fieldmap.Document, nil, func(context.Context, document.Document) error { return nil })
	ed.WithClock(func() time.Time { return fixedNow })

	got, err := ed.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !got.UploadedAt.Equal(fixedNow) {
		t.Errorf("uploaded_at = %v, want %v", got.UploadedAt, fixedNow)
	}
	if !got.UpdatedAt.Equal(fixedNow) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, fixedNow)
	}
}

func TestSubmit_KeepsExistingUploadedAt(t *testing.T) {
	doc := sampleDoc()
	doc.UploadedAt = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	ed, _ := Open(doc, fieldmap.Document, nil, func(context.Context, document.Document) error { return nil })
	ed.WithClock(func() time.Time { return fixedNow })

	got, err := ed.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !got.UploadedAt.Equal(doc.UploadedAt) {
		t.Errorf("uploaded_at overwritten: %v", got.UploadedAt)
	}
}

func TestSubmit_SaveErrorKeepsEditorOpen(t *testing.T) {
	closed := 0
	attempts := 0
	ed, _ := Open(sampleDoc(), fieldmap.Document, func() { closed++ }, func(context.Context, document.Document) error {
		attempts++
		if attempts == 1 {
			return errors.New("write failed")
		}
		return nil
	})

	if _, err := ed.Submit(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if ed.Closed() || closed != 0 {
		t.Fatal("editor must stay open after a failed save")
	}
	if _, err := ed.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !ed.Closed() || closed != 1 {
		t.Fatalf("closed=%v onClose calls=%d, want true/1", ed.Closed(), closed)
	}
	if err := ed.Set("title", "x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after close = %v, want ErrClosed", err)
	}
}

func TestSubmit_BadValueIsValidationError(t *testing.T) {
	ed, _ := Open(tenant.Tenant{Name: "A"}, fieldmap.Tenant, nil, func(context.Context, tenant.Tenant) error {
		t.Fatal("save must not be called")
		return nil
	})
	if err := ed.Set("email", 42); err != nil {
		t.Fatal(err)
	}
	if _, err := ed.Submit(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	calls := 0
	ed, _ := Open(sampleDoc(), fieldmap.Document, func() { calls++ }, func(context.Context, document.Document) error {
		t.Fatal("save must not be called")
		return nil
	})
	ed.Cancel()
	ed.Cancel()
	if calls != 1 {
		t.Fatalf("onClose calls = %d, want 1", calls)
	}
}

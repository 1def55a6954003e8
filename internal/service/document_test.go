package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/document"
	"github.com/Strob0t/rentalmanager/internal/domain/listing"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
	"github.com/Strob0t/rentalmanager/internal/resilience"
)

func newTestDocumentService(objects *memStorage) (*DocumentService, *mockStore) {
	store := &mockStore{}
	svc := NewDocumentService(DocumentDeps{
		Documents:  store,
		Properties: store,
		Tenants:    store,
		Objects:    objects,
		Breaker:    resilience.NewBreaker("storage", 3, time.Minute),
		Limiter:    resilience.NewLimiter("uploads", 1),
		Cache:      NewListCache(newMemCache(), 0),
		Events:     &recordingNotifier{},
	})
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestDocumentService_Upload(t *testing.T) {
	objects := newMemStorage()
	svc, _ := newTestDocumentService(objects)
	ctx := ctxFor("u1")

	doc, err := svc.Upload(ctx, "Lease Agreement.PDF", "application/pdf", strings.NewReader("%PDF-1.7"), 8)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Title != "Lease Agreement.PDF" || doc.Type != document.TypeOther || doc.Status != document.StatusActive {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Tags) != 0 || doc.Tags == nil {
		t.Errorf("tags = %#v, want empty non-nil", doc.Tags)
	}
	if !doc.UploadedAt.Equal(svc.now()) {
		t.Errorf("uploaded_at = %v", doc.UploadedAt)
	}
	if len(objects.objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(objects.objects))
	}
	for path, data := range objects.objects {
		if !strings.HasPrefix(path, "u1/") || !strings.HasSuffix(path, ".pdf") {
			t.Errorf("path = %q, want u1/<key>.pdf", path)
		}
		if string(data) != "%PDF-1.7" {
			t.Errorf("content = %q", data)
		}
		if doc.FileURL != objects.PublicURL(path) {
			t.Errorf("file url = %q, want %q", doc.FileURL, objects.PublicURL(path))
		}
	}
	if svc.Uploading(ctx) {
		t.Error("busy flag not cleared after success")
	}
}

func TestDocumentService_UploadRejectsExtension(t *testing.T) {
	objects := newMemStorage()
	svc, _ := newTestDocumentService(objects)

	_, err := svc.Upload(ctxFor("u1"), "photo.png", "image/png", strings.NewReader("x"), 1)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(objects.objects) != 0 {
		t.Error("rejected file reached storage")
	}
}

func TestDocumentService_UploadFailures(t *testing.T) {
	tests := []struct {
		name       string
		storageErr error
		insertErr  error
	}{
		{"storage fails", errors.New("503 from storage"), nil},
		{"insert fails", nil, errors.New("insert failed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := newMemStorage()
			objects.err = tt.storageErr
			svc, store := newTestDocumentService(objects)
			store.createDocErr = tt.insertErr
			ctx := ctxFor("u1")

			if _, err := svc.Upload(ctx, "a.txt", "text/plain", strings.NewReader("hi"), 2); err == nil {
				t.Fatal("expected error")
			}
			if svc.Uploading(ctx) {
				t.Error("busy flag not cleared after failure")
			}
			docs, err := store.ListDocuments(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(docs) != 0 {
				t.Errorf("documents = %d, want 0", len(docs))
			}
		})
	}
}

// failingBody fails on the first read, like a request body over its limit.
type failingBody struct{ err error }

func (b failingBody) Read([]byte) (int, error) { return 0, b.err }

func TestDocumentService_OversizedBodiesKeepStorageAvailable(t *testing.T) {
	svc, store := newTestDocumentService(newMemStorage())

	// More rejected bodies than the breaker tolerates failures.
	for range 5 {
		_, err := svc.Upload(ctxFor("u1"), "big.pdf", "application/pdf", failingBody{&http.MaxBytesError{Limit: 1}}, -1)
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			t.Fatalf("err = %v, want MaxBytesError", err)
		}
	}
	if got := svc.breaker.State(); got != resilience.StateClosed {
		t.Fatalf("breaker = %s, want closed", got)
	}

	if _, err := svc.Upload(ctxFor("u2"), "lease.pdf", "application/pdf", strings.NewReader("%PDF"), 4); err != nil {
		t.Fatalf("other user's upload: %v", err)
	}
	if len(store.documents) != 1 {
		t.Errorf("documents = %d, want 1", len(store.documents))
	}
}

func TestDocumentService_BrokenBodyAfterPartialRead(t *testing.T) {
	svc, _ := newTestDocumentService(newMemStorage())
	body := io.MultiReader(strings.NewReader("%PDF"), failingBody{io.ErrUnexpectedEOF})

	for range 4 {
		if _, err := svc.Upload(ctxFor("u1"), "a.pdf", "application/pdf", body, -1); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("err = %v, want ErrUnexpectedEOF", err)
		}
	}
	if got := svc.breaker.State(); got != resilience.StateClosed {
		t.Errorf("breaker = %s, want closed", got)
	}
}

func TestDocumentService_UploadBusy(t *testing.T) {
	objects := newMemStorage()
	objects.gate = make(chan struct{})
	objects.started = make(chan struct{}, 1)
	svc, _ := newTestDocumentService(objects)
	ctx := ctxFor("u1")

	done := make(chan error, 1)
	go func() {
		_, err := svc.Upload(ctx, "first.pdf", "application/pdf", strings.NewReader("1"), 1)
		done <- err
	}()
	<-objects.started

	if !svc.Uploading(ctx) {
		t.Error("Uploading should report the in-flight upload")
	}
	if _, err := svc.Upload(ctx, "second.pdf", "application/pdf", strings.NewReader("2"), 1); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("concurrent upload: err = %v, want ErrBusy", err)
	}

	close(objects.gate)
	if err := <-done; err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if svc.Uploading(ctx) {
		t.Error("busy flag not cleared")
	}
}

func TestDocumentService_UploadWaitsForSlot(t *testing.T) {
	objects := newMemStorage()
	objects.gate = make(chan struct{})
	objects.started = make(chan struct{}, 1)
	svc, store := newTestDocumentService(objects)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Upload(ctxFor("u1"), "first.pdf", "application/pdf", strings.NewReader("1"), 1)
		done <- err
	}()
	<-objects.started

	// Another user is not busy, but every upload slot is taken.
	ctx, cancel := context.WithTimeout(ctxFor("u2"), 20*time.Millisecond)
	defer cancel()
	if _, err := svc.Upload(ctx, "second.pdf", "application/pdf", strings.NewReader("2"), 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
	if svc.Uploading(ctxFor("u2")) {
		t.Error("u2 busy flag not cleared after giving up")
	}

	close(objects.gate)
	if err := <-done; err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if len(store.documents) != 1 {
		t.Errorf("documents = %d, want 1", len(store.documents))
	}
}

func TestDocumentService_UploadUnauthenticated(t *testing.T) {
	svc, _ := newTestDocumentService(newMemStorage())
	_, err := svc.Upload(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x"), 1)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestDocumentService_ListSearchesTagsAndFiltersType(t *testing.T) {
	svc, store := newTestDocumentService(newMemStorage())
	ctx := ctxFor("u1")
	seed := []document.Document{
		{Title: "Lease 2024", Type: document.TypeLease, Tags: []string{"signed"}},
		{Title: "Boiler invoice", Type: document.TypeInvoice, Tags: []string{"heating", "urgent"}},
		{Title: "Misc", Type: document.TypeOther, Tags: []string{}},
	}
	for i := range seed {
		seed[i].FileURL = "https://files.test/x"
		seed[i].Status = document.StatusActive
		if _, err := store.CreateDocument(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.CreateTenant(ctx, &tenant.Tenant{Name: "Ada"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		q    listing.Query
		want []string
	}{
		{"title", listing.Query{Search: "lease"}, []string{"Lease 2024"}},
		{"tag", listing.Query{Search: "HEAT"}, []string{"Boiler invoice"}},
		{"type", listing.Query{Filter: "other"}, []string{"Misc"}},
		{"tag and type mismatch", listing.Query{Search: "signed", Filter: "invoice"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.List(ctx, tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if len(view.Documents) != len(tt.want) {
				t.Fatalf("got %d docs, want %v", len(view.Documents), tt.want)
			}
			for i, d := range view.Documents {
				if d.Title != tt.want[i] {
					t.Errorf("doc[%d] = %q, want %q", i, d.Title, tt.want[i])
				}
			}
			if len(view.Tenants) != 1 || view.Tenants[0].Name != "Ada" {
				t.Errorf("tenant refs = %+v", view.Tenants)
			}
		})
	}
}

func TestDocumentService_EditTags(t *testing.T) {
	svc, _ := newTestDocumentService(newMemStorage())
	ctx := ctxFor("u1")
	doc, err := svc.Upload(ctx, "lease.docx", "application/octet-stream", strings.NewReader("x"), 1)
	if err != nil {
		t.Fatal(err)
	}

	view, err := svc.Edit(ctx, doc.ID, EditRequest{
		Fields:  map[string]any{"type": "lease"},
		AddTags: []string{" signed ", "2024", "signed", ""},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	got := view.Documents[0]
	if got.Type != document.TypeLease {
		t.Errorf("type = %s, want lease", got.Type)
	}
	if strings.Join(got.Tags, ",") != "signed,2024" {
		t.Errorf("tags = %v, want [signed 2024]", got.Tags)
	}

	view, err = svc.Edit(ctx, doc.ID, EditRequest{RemoveTags: []string{"signed"}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(view.Documents[0].Tags, ",") != "2024" {
		t.Errorf("tags after remove = %v", view.Documents[0].Tags)
	}
	if !view.Documents[0].UploadedAt.Equal(doc.UploadedAt) {
		t.Errorf("uploaded_at changed: %v -> %v", doc.UploadedAt, view.Documents[0].UploadedAt)
	}
}

func TestDocumentService_SaveValidation(t *testing.T) {
	svc, _ := newTestDocumentService(newMemStorage())
	ctx := ctxFor("u1")
	doc, err := svc.Upload(ctx, "a.txt", "text/plain", strings.NewReader("x"), 1)
	if err != nil {
		t.Fatal(err)
	}
	doc.Status = "deleted"
	if _, err := svc.Save(ctx, doc); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

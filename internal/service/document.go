package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/document"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/fieldmap"
	"github.com/Strob0t/rentalmanager/internal/domain/listing"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/database"
	"github.com/Strob0t/rentalmanager/internal/port/storage"
	"github.com/Strob0t/rentalmanager/internal/resilience"
)

// DocumentsView is everything the documents screen renders.
type DocumentsView struct {
	Documents  []document.Document `json:"documents"`
	Properties []property.Ref      `json:"properties"`
	Tenants    []tenant.Ref        `json:"tenants"`
}

// DocumentService backs the documents screen and file uploads.
type DocumentService struct {
	docs    database.DocumentStore
	props   database.PropertyStore
	tenants database.TenantStore
	objects storage.ObjectStore
	breaker *resilience.Breaker
	limiter *resilience.Limiter
	cache   *ListCache
	events  RecordNotifier
	now     func() time.Time

	mu        sync.Mutex
	uploading map[string]bool // user ID -> upload in flight
}

// DocumentDeps groups the collaborators of a DocumentService.
type DocumentDeps struct {
	Documents  database.DocumentStore
	Properties database.PropertyStore
	Tenants    database.TenantStore
	Objects    storage.ObjectStore
	Breaker    *resilience.Breaker // optional
	Limiter    *resilience.Limiter // optional; caps uploads across all users
	Cache      *ListCache          // optional
	Events     RecordNotifier      // optional
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(deps DocumentDeps) *DocumentService {
	return &DocumentService{
		docs:      deps.Documents,
		props:     deps.Properties,
		tenants:   deps.Tenants,
		objects:   deps.Objects,
		breaker:   deps.Breaker,
		limiter:   deps.Limiter,
		cache:     deps.Cache,
		events:    deps.Events,
		now:       time.Now,
		uploading: make(map[string]bool),
	}
}

// documentSearchFields matches on the title or any single tag.
func documentSearchFields(d document.Document) []string {
	return append([]string{d.Title}, d.Tags...)
}

func documentType(d document.Document) string { return string(d.Type) }

// List returns the documents matching q (search on title or tags, filter on
// type) with the property and tenant choices for the edit form.
func (s *DocumentService) List(ctx context.Context, q listing.Query) (*DocumentsView, error) {
	view, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	view.Documents = listing.Apply(view.Documents, q, documentSearchFields, documentType)
	return view, nil
}

func (s *DocumentService) view(ctx context.Context) (*DocumentsView, error) {
	docs, err := cachedList(ctx, s.cache, event.CollectionDocuments, s.docs.ListDocuments)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	props, err := s.props.ListPropertyRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list property refs: %w", err)
	}
	tenants, err := cachedList(ctx, s.cache, event.CollectionTenants, s.tenants.ListTenants)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return &DocumentsView{Documents: docs, Properties: props, Tenants: tenant.Refs(tenants)}, nil
}

// Get returns one document.
func (s *DocumentService) Get(ctx context.Context, id string) (*document.Document, error) {
	return s.docs.GetDocument(ctx, id)
}

// Save writes d and returns the refetched view.
func (s *DocumentService) Save(ctx context.Context, d *document.Document) (*DocumentsView, error) {
	if err := s.update(ctx, *d); err != nil {
		return nil, err
	}
	return s.view(ctx)
}

// Edit applies a form submission, including tag additions and removals.
func (s *DocumentService) Edit(ctx context.Context, id string, req EditRequest) (*DocumentsView, error) {
	d, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := edit(ctx, *d, fieldmap.Document, req, s.update); err != nil {
		return nil, err
	}
	return s.view(ctx)
}

func (s *DocumentService) update(ctx context.Context, d document.Document) error {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.docs.UpdateDocument(ctx, &d); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	s.changed(ctx, event.OpUpdated, d.ID)
	return nil
}

// Upload stores a file and records it as a new document titled after the
// file name. One upload per user may be in flight; a second concurrent
// call fails with domain.ErrBusy.
func (s *DocumentService) Upload(ctx context.Context, fileName, contentType string, r io.Reader, size int64) (*document.Document, error) {
	u := user.FromContext(ctx)
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := document.ValidateUpload(fileName); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !s.begin(u.ID) {
		return nil, domain.ErrBusy
	}
	defer s.end(u.ID)

	path := document.StoragePath(u.ID, uuid.NewString(), document.Extension(fileName))
	body := &bodyReader{r: r}
	put := func(ctx context.Context) error {
		err := s.objects.Upload(ctx, path, contentType, body, size)
		if err != nil && body.err != nil {
			return resilience.CallerFault(body.err)
		}
		return err
	}
	err := s.limiter.Run(ctx, func(ctx context.Context) error {
		if s.breaker != nil {
			return s.breaker.Execute(ctx, put)
		}
		return put(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", fileName, err)
	}

	rec := document.NewUploaded(fileName, s.objects.PublicURL(path), s.now().UTC())
	created, err := s.docs.CreateDocument(ctx, &rec)
	if err != nil {
		// The object stays in storage without a row; it is not reachable from the UI.
		slog.WarnContext(ctx, "document row insert failed after upload", "path", path, "error", err)
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.changed(ctx, event.OpCreated, created.ID)
	slog.InfoContext(ctx, "document uploaded", "document_id", created.ID, "path", path)
	return created, nil
}

// bodyReader remembers the first read error of an upload body so a broken
// or oversized request is told apart from a storage failure.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF && b.err == nil {
		b.err = err
	}
	return n, err
}

// Uploading reports whether the context's user has an upload in flight.
func (s *DocumentService) Uploading(ctx context.Context) bool {
	u := user.FromContext(ctx)
	if u == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading[u.ID]
}

func (s *DocumentService) begin(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploading[userID] {
		return false
	}
	s.uploading[userID] = true
	return true
}

func (s *DocumentService) end(userID string) {
	s.mu.Lock()
	delete(s.uploading, userID)
	s.mu.Unlock()
}

func (s *DocumentService) changed(ctx context.Context, op event.Op, id string) {
	s.cache.Invalidate(ctx, event.CollectionDocuments)
	if s.events != nil {
		s.events.RecordChanged(ctx, event.CollectionDocuments, op, id)
	}
}

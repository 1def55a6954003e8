package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/document"
)

const documentColumns = `id, title, type, property_id, tenant_id, file_url, status, tags, uploaded_at, user_id, created_at, updated_at`

func scanDocument(row scannable) (document.Document, error) {
	var d document.Document
	err := row.Scan(&d.ID, &d.Title, &d.Type, &d.PropertyID, &d.TenantID, &d.FileURL, &d.Status, &d.Tags,
		&d.UploadedAt, &d.UserID, &d.CreatedAt, &d.UpdatedAt)
	d.Tags = orEmpty(d.Tags)
	return d, err
}

func (s *Store) ListDocuments(ctx context.Context) ([]document.Document, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs, err := collect(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return docs, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	d, err := scanDocument(s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND user_id = $2`, id, owner))
	if err != nil {
		return nil, notFoundWrap(err, "get document %s", id)
	}
	return &d, nil
}

func (s *Store) CreateDocument(ctx context.Context, d *document.Document) (*document.Document, error) {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	uploaded := d.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now().UTC()
	}
	created, err := scanDocument(s.pool.QueryRow(ctx, `
		INSERT INTO documents (title, type, property_id, tenant_id, file_url, status, tags, uploaded_at, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+documentColumns,
		d.Title, d.Type, nullIfEmpty(d.PropertyID), nullIfEmpty(d.TenantID), d.FileURL, d.Status,
		pgTextArray(d.Tags), uploaded, owner))
	if err != nil {
		return nil, fmt.Errorf("create document: %w", mapPgError(err))
	}
	return &created, nil
}

func (s *Store) UpdateDocument(ctx context.Context, d *document.Document) error {
	owner, err := ownerFromCtx(ctx)
	if err != nil {
		return err
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now().UTC()
	}
	uploaded := d.UploadedAt
	if uploaded.IsZero() {
		uploaded = d.UpdatedAt
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET title = $3, type = $4, property_id = $5, tenant_id = $6, file_url = $7, status = $8,
		    tags = $9, uploaded_at = $10, updated_at = $11
		WHERE id = $1 AND user_id = $2`,
		d.ID, owner, d.Title, d.Type, nullIfEmpty(d.PropertyID), nullIfEmpty(d.TenantID), d.FileURL, d.Status,
		pgTextArray(d.Tags), uploaded, d.UpdatedAt)
	return execExpectOne(tag, err, "update document %s", d.ID)
}

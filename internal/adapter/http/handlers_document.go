package http

import (
	"errors"
	"io"
	"net/http"

	rmotel "github.com/Strob0t/rentalmanager/internal/adapter/otel"
	"github.com/Strob0t/rentalmanager/internal/domain/document"
	"github.com/Strob0t/rentalmanager/internal/service"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

// ListDocuments handles GET /api/v1/documents?search=&type=
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	view, err := h.Documents.List(r.Context(), listQuery(r, "type"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load documents")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetDocument handles GET /api/v1/documents/{id}
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	d, err := h.Documents.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "Failed to load document")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateDocument handles PUT /api/v1/documents/{id}
func (h *Handlers) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	d, ok := readJSON[document.Document](w, r)
	if !ok {
		return
	}
	d.ID = urlParam(r, "id")
	view, err := h.Documents.Save(r.Context(), &d)
	if err != nil {
		writeDomainError(w, r, err, "Failed to update document")
		return
	}
	writeSaved(w, http.StatusOK, view, "Document updated successfully")
}

// EditDocument handles PATCH /api/v1/documents/{id}
func (h *Handlers) EditDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.EditRequest](w, r)
	if !ok {
		return
	}
	view, err := h.Documents.Edit(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, r, err, "Failed to update document")
		return
	}
	writeSaved(w, http.StatusOK, view, "Document updated successfully")
}

// UploadStatus handles GET /api/v1/documents/upload
func (h *Handlers) UploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"uploading": h.Documents.Uploading(r.Context())})
}

// UploadDocument handles POST /api/v1/documents/upload. The body is a
// multipart form whose "file" part is streamed to storage.
func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		if err != nil {
			h.uploadFailed(w, r, err)
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		body := &countingReader{r: part}
		ctx, span := rmotel.StartUploadSpan(r.Context(), part.FileName(), r.ContentLength)
		d, err := h.Documents.Upload(ctx, part.FileName(), part.Header.Get("Content-Type"), body, -1)
		_ = part.Close()
		if h.Uploads != nil {
			h.Uploads.CountUpload(ctx, body.n, err)
		}
		if err != nil {
			span.RecordError(err)
			span.End()
			h.uploadFailed(w, r, err)
			return
		}
		span.End()
		writeSaved(w, http.StatusCreated, d, "Document uploaded successfully")
		return
	}
}

func (h *Handlers) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error:  "file too large",
			Notice: "Error uploading document",
		})
		return
	}
	writeDomainError(w, r, err, "Error uploading document")
}

// countingReader counts the bytes streamed to storage.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

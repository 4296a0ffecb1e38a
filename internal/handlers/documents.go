// internal/handlers/documents.go
package handlers

import (
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chainflow/chainflow-be/internal/adapters/storage"
	"github.com/chainflow/chainflow-be/internal/core/ports"
)

// maxDocumentSize caps uploaded attachments at 10 MB.
const maxDocumentSize = 10 << 20

// presignTTL is how long generated download links stay valid.
const presignTTL = 15 * time.Minute

// DocumentHandler manages file attachments on orders and suppliers,
// stored in the object store under documents/<entity>/<id>/.
type DocumentHandler struct {
	store     storage.ObjectStore
	orders    ports.OrderService
	suppliers ports.SupplierService
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(store storage.ObjectStore, orders ports.OrderService, suppliers ports.SupplierService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		store:     store,
		orders:    orders,
		suppliers: suppliers,
		logger:    logger.With(slog.String("handler", "documents")),
	}
}

// DocumentInfo describes one stored attachment.
type DocumentInfo struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Upload handles POST /api/v1/{entity}/{id}/documents
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entity, id, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid multipart request or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid filename")
		return
	}

	key := storage.DocumentKey(entity, id, filename)
	location, err := h.store.Upload(ctx, key, file, header.Header.Get("Content-Type"))
	if err != nil {
		h.logger.ErrorContext(ctx, "document upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to store document")
		return
	}

	h.logger.InfoContext(ctx, "document uploaded",
		slog.String("entity", entity),
		slog.String("id", id.String()),
		slog.String("name", filename),
		slog.Int64("size", header.Size))

	respondJSON(w, h.logger, http.StatusCreated, map[string]string{
		"name":     filename,
		"key":      key,
		"location": location,
	})
}

// List handles GET /api/v1/{entity}/{id}/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entity, id, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	prefix := storage.DocumentPrefix(entity, id)
	keys, err := h.store.List(ctx, prefix)
	if err != nil {
		h.logger.ErrorContext(ctx, "document listing failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	docs := make([]DocumentInfo, 0, len(keys))
	for _, key := range keys {
		docs = append(docs, DocumentInfo{Name: path.Base(key), Key: key})
	}

	respondJSON(w, h.logger, http.StatusOK, docs)
}

// Download handles GET /api/v1/{entity}/{id}/documents/{name} and returns a
// short-lived presigned URL rather than proxying the object body.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entity, id, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	filename := sanitizeFilename(r.PathValue("name"))
	if filename == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid filename")
		return
	}

	key := storage.DocumentKey(entity, id, filename)
	exists, err := h.store.Exists(ctx, key)
	if err != nil {
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to check document")
		return
	}
	if !exists {
		respondError(w, h.logger, http.StatusNotFound, "Document not found")
		return
	}

	url, err := h.store.PresignDownload(ctx, key, presignTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "presign failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate download link")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"name":       filename,
		"url":        url,
		"expires_in": presignTTL.String(),
	})
}

// Delete handles DELETE /api/v1/{entity}/{id}/documents/{name}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entity, id, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	filename := sanitizeFilename(r.PathValue("name"))
	if filename == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid filename")
		return
	}

	key := storage.DocumentKey(entity, id, filename)
	if err := h.store.Delete(ctx, key); err != nil {
		h.logger.ErrorContext(ctx, "document delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	respondMessage(w, h.logger, http.StatusOK, "Document deleted successfully")
}

// resolveTarget validates the entity segment and confirms the record exists.
func (h *DocumentHandler) resolveTarget(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	ctx := r.Context()

	entity := r.PathValue("entity")
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid ID format")
		return "", uuid.Nil, false
	}

	switch entity {
	case "orders":
		if _, err := h.orders.GetByID(ctx, id); err != nil {
			respondDomainError(w, h.logger, err)
			return "", uuid.Nil, false
		}
	case "suppliers":
		if _, err := h.suppliers.GetByID(ctx, id); err != nil {
			respondDomainError(w, h.logger, err)
			return "", uuid.Nil, false
		}
	default:
		respondError(w, h.logger, http.StatusNotFound, "Documents are not supported for this resource")
		return "", uuid.Nil, false
	}

	return entity, id, true
}

// sanitizeFilename strips any path components from a client filename.
func sanitizeFilename(name string) string {
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

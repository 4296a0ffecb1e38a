// internal/handlers/suppliers.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/handlers/middleware"
)

// SupplierHandler handles supplier HTTP requests
type SupplierHandler struct {
	service ports.SupplierService
	logger  *slog.Logger
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(service ports.SupplierService, logger *slog.Logger) *SupplierHandler {
	return &SupplierHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "suppliers")),
	}
}

// GetSupplier handles GET /api/v1/suppliers/{id}
func (h *SupplierHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	supplier, err := h.service.GetByID(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, supplier)
}

// ListSuppliers handles GET /api/v1/suppliers
func (h *SupplierHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.SupplierListParams{
		Page:      1,
		PageSize:  50,
		SortBy:    "name",
		SortOrder: "asc",
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 && l <= 100 {
			params.PageSize = l
		}
	}

	params.Search = r.URL.Query().Get("search")
	params.Status = r.URL.Query().Get("status")
	params.Category = r.URL.Query().Get("category")

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list suppliers",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// CreateSupplier handles POST /api/v1/suppliers
func (h *SupplierHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.CreateSupplier(ctx, &supplier, middleware.ActorFrom(ctx))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, created)
}

// UpdateSupplier handles PUT /api/v1/suppliers/{id}
func (h *SupplierHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateSupplier(ctx, id, &supplier, middleware.ActorFrom(ctx))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, updated)
}

// UpdatePerformance handles PATCH /api/v1/suppliers/{id}/performance
func (h *SupplierHandler) UpdatePerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	var metrics domain.PerformanceMetrics
	if err := json.NewDecoder(r.Body).Decode(&metrics); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdatePerformance(ctx, id, metrics, middleware.ActorFrom(ctx))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, updated)
}

// SupplierProducts handles GET /api/v1/suppliers/{id}/products
func (h *SupplierHandler) SupplierProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	items, err := h.service.Products(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"count": len(items),
		"items": items,
	})
}

// DeleteSupplier handles DELETE /api/v1/suppliers/{id}
func (h *SupplierHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	if err := h.service.DeleteSupplier(ctx, id); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondMessage(w, h.logger, http.StatusOK, "Supplier deleted successfully")
}

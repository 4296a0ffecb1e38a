// internal/handlers/inventory.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/handlers/middleware"
)

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	service ports.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service ports.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "inventory")),
	}
}

// GetInventory handles GET /api/v1/inventory/{id}
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	item, err := h.service.GetByID(ctx, id)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.ErrorContext(ctx, "failed to get inventory item",
				slog.String("id", id.String()),
				slog.String("error", err.Error()))
		}
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// ListInventory handles GET /api/v1/inventory
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.List(ctx, h.parseListParams(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list inventory items",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// CreateInventory handles POST /api/v1/inventory
func (h *InventoryHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req InventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.service.CreateItem(ctx, req.ToDomain(), middleware.ActorFrom(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create inventory item",
			slog.String("sku", req.SKU),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, item)
}

// UpdateInventory handles PUT /api/v1/inventory/{id}
func (h *InventoryHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	var req InventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.service.UpdateItem(ctx, id, req.ToDomain(), middleware.ActorFrom(ctx))
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.ErrorContext(ctx, "failed to update inventory item",
				slog.String("id", id.String()),
				slog.String("error", err.Error()))
		}
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// AdjustInventory handles POST /api/v1/inventory/{id}/adjust
func (h *InventoryHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.service.AdjustQuantity(ctx, id, req.Adjustment, req.Reason, middleware.ActorFrom(ctx))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// DeleteInventory handles DELETE /api/v1/inventory/{id}
func (h *InventoryHandler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	permanent := r.URL.Query().Get("permanent") == "true"

	if err := h.service.DeleteItem(ctx, id, permanent); err != nil {
		if !domain.IsNotFound(err) {
			h.logger.ErrorContext(ctx, "failed to delete inventory item",
				slog.String("id", id.String()),
				slog.Bool("permanent", permanent),
				slog.String("error", err.Error()))
		}
		respondDomainError(w, h.logger, err)
		return
	}

	respondMessage(w, h.logger, http.StatusOK, "Inventory item deleted successfully")
}

// LowStockAlerts handles GET /api/v1/inventory/low-stock/alerts
func (h *InventoryHandler) LowStockAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.service.LowStock(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list low stock items",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"count": len(items),
		"items": items,
	})
}

// parseListParams parses query parameters for listing inventory
func (h *InventoryHandler) parseListParams(r *http.Request) ports.InventoryListParams {
	params := ports.InventoryListParams{
		Page:      1,
		PageSize:  50,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > 100 {
				params.PageSize = 100
			} else {
				params.PageSize = l
			}
		}
	}

	params.Search = r.URL.Query().Get("search")
	params.Category = r.URL.Query().Get("category")
	params.Status = r.URL.Query().Get("status")
	params.SupplierID = r.URL.Query().Get("supplier_id")
	params.Warehouse = r.URL.Query().Get("warehouse")

	if needsReorder := r.URL.Query().Get("needs_reorder"); needsReorder != "" {
		if val, err := strconv.ParseBool(needsReorder); err == nil {
			params.NeedsReorder = &val
		}
	}

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}

	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

// Request DTOs

// InventoryRequest represents the request body for creating or replacing an
// inventory item. Total value is always derived. Status is normally derived
// too, but an explicit "discontinued" is honored and freezes the status
// until a later write stops sending it.
type InventoryRequest struct {
	SKU             string           `json:"sku"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Category        string           `json:"category,omitempty"`
	Status          string           `json:"status,omitempty"`
	Quantity        int              `json:"quantity"`
	Unit            string           `json:"unit,omitempty"`
	ReorderPoint    *int             `json:"reorder_point,omitempty"`
	ReorderQuantity *int             `json:"reorder_quantity,omitempty"`
	UnitCost        decimal.Decimal  `json:"unit_cost"`
	SupplierID      *uuid.UUID       `json:"supplier_id,omitempty"`
	Warehouse       domain.Warehouse `json:"warehouse"`
	ExpiryDate      *time.Time       `json:"expiry_date,omitempty"`
	BatchNumber     string           `json:"batch_number,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// ToDomain converts the request to a domain model
func (r *InventoryRequest) ToDomain() *domain.InventoryItem {
	item := &domain.InventoryItem{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Category:    domain.ItemCategory(r.Category),
		Status:      domain.StockStatus(r.Status),
		Quantity:    r.Quantity,
		Unit:        r.Unit,
		UnitCost:    r.UnitCost,
		SupplierID:  r.SupplierID,
		Warehouse:   r.Warehouse,
		ExpiryDate:  r.ExpiryDate,
		BatchNumber: r.BatchNumber,
		Notes:       r.Notes,
	}

	// Defaults matching the stored-item shape
	item.ReorderPoint = 10
	if r.ReorderPoint != nil {
		item.ReorderPoint = *r.ReorderPoint
	}
	item.ReorderQuantity = 50
	if r.ReorderQuantity != nil {
		item.ReorderQuantity = *r.ReorderQuantity
	}

	return item
}

// AdjustmentRequest represents the request body for a manual stock delta.
type AdjustmentRequest struct {
	Adjustment int    `json:"adjustment"`
	Reason     string `json:"reason"`
}

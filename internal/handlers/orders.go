// internal/handlers/orders.go
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

// OrderHandler handles order lifecycle HTTP requests
type OrderHandler struct {
	service ports.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service ports.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "orders")),
	}
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.service.GetByID(ctx, id)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.ErrorContext(ctx, "failed to get order",
				slog.String("id", id.String()),
				slog.String("error", err.Error()))
		}
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.List(ctx, h.parseListParams(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.CreateOrder(ctx, req.ToDomain(), middleware.ActorFrom(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "order creation rejected",
			slog.String("type", req.Type),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, order)
}

// UpdateOrder handles PATCH /api/v1/orders/{id}
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var patch ports.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdateOrder(ctx, id, patch, middleware.ActorFrom(ctx))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var req StatusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdateStatus(ctx, id, domain.OrderStatus(req.Status), req.Note, middleware.ActorFrom(ctx))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	if err := h.service.DeleteOrder(ctx, id, middleware.ActorFrom(ctx)); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondMessage(w, h.logger, http.StatusOK, "Order deleted successfully")
}

// OrderStats handles GET /api/v1/orders/stats
func (h *OrderHandler) OrderStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load order stats",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, stats)
}

// parseListParams parses query parameters for listing orders
func (h *OrderHandler) parseListParams(r *http.Request) ports.OrderListParams {
	params := ports.OrderListParams{
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
	params.Type = r.URL.Query().Get("type")
	params.Status = r.URL.Query().Get("status")
	params.Priority = r.URL.Query().Get("priority")
	params.SupplierID = r.URL.Query().Get("supplier_id")

	if from := r.URL.Query().Get("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			params.DateFrom = &t
		}
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			params.DateTo = &t
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

// OrderItemRequest is one order line. SKU and name are snapshotted from the
// referenced inventory item at create time, not taken from input.
type OrderItemRequest struct {
	InventoryID uuid.UUID       `json:"inventory_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderRequest represents the request body for creating an order.
type OrderRequest struct {
	Type       string             `json:"type"`
	SupplierID *uuid.UUID         `json:"supplier_id,omitempty"`
	Customer   domain.Customer    `json:"customer"`
	Items      []OrderItemRequest `json:"items"`
	Tax        decimal.Decimal    `json:"tax,omitempty"`
	Shipping   decimal.Decimal    `json:"shipping,omitempty"`
	Discount   decimal.Decimal    `json:"discount,omitempty"`
	Currency   string             `json:"currency,omitempty"`
	Payment    domain.Payment     `json:"payment"`
	ShipTo     domain.Shipping    `json:"shipping_details"`
	Priority   string             `json:"priority,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	Tags       []string           `json:"tags,omitempty"`
}

// ToDomain converts the request to a domain model
func (r *OrderRequest) ToDomain() *domain.Order {
	order := &domain.Order{
		Type:       domain.OrderType(r.Type),
		SupplierID: r.SupplierID,
		Customer:   r.Customer,
		Payment:    r.Payment,
		Shipping:   r.ShipTo,
		Priority:   domain.OrderPriority(r.Priority),
		Notes:      r.Notes,
		Tags:       r.Tags,
	}

	order.Pricing.Tax = r.Tax
	order.Pricing.Shipping = r.Shipping
	order.Pricing.Discount = r.Discount
	order.Pricing.Currency = r.Currency

	for _, line := range r.Items {
		order.Items = append(order.Items, domain.OrderItem{
			InventoryID: line.InventoryID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	return order
}

// StatusChangeRequest represents the request body for a status transition.
type StatusChangeRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

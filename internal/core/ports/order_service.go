// internal/core/ports/order_service.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// OrderService defines the application service port for the order lifecycle.
// This interface is implemented by the application service.
type OrderService interface {
	CreateOrder(ctx context.Context, order *domain.Order, actor *Actor) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, params OrderListParams) (*OrderListResult, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, patch OrderPatch, actor *Actor) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus domain.OrderStatus, note string, actor *Actor) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID, actor *Actor) error
	Stats(ctx context.Context) (*OrderStats, error)
}

// OrderPatch carries the editable order fields for a partial update. Nil
// pointers leave the current value untouched. Items, pricing inputs and
// status are deliberately absent: stock-affecting changes go through
// dedicated operations.
type OrderPatch struct {
	Customer      *domain.Customer      `json:"customer,omitempty"`
	Payment       *domain.Payment       `json:"payment,omitempty"`
	Shipping      *domain.Shipping      `json:"shipping,omitempty"`
	Priority      *domain.OrderPriority `json:"priority,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	InternalNotes *string               `json:"internal_notes,omitempty"`
	Tags          []string              `json:"tags,omitempty"`
}

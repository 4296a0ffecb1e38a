// internal/core/ports/inventory_service.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// Actor identifies the authenticated user performing an operation, carried
// into audit trails.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// InventoryService defines the application service port for inventory.
// This interface is implemented by the application service.
type InventoryService interface {
	CreateItem(ctx context.Context, item *domain.InventoryItem, actor *Actor) (*domain.InventoryItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, item *domain.InventoryItem, actor *Actor) (*domain.InventoryItem, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int, reason string, actor *Actor) (*domain.InventoryItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID, permanent bool) error
	List(ctx context.Context, params InventoryListParams) (*InventoryListResult, error)
	LowStock(ctx context.Context) ([]*domain.InventoryItem, error)
}

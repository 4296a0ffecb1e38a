// internal/core/ports/inventory_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// InventoryRepository defines the persistence port for inventory.
// This interface is implemented by the database adapter.
type InventoryRepository interface {
	Save(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	FindBySKU(ctx context.Context, sku string) (*domain.InventoryItem, error)
	FindAll(ctx context.Context, params InventoryListParams) (*InventoryListResult, error)
	FindLowStock(ctx context.Context) ([]*domain.InventoryItem, error)
	FindBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*domain.InventoryItem, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	PurgeDeletedBefore(ctx context.Context, days int) (int64, error)
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Transactional variants used by the order lifecycle and stock
	// adjustments. FindByIDForUpdate takes a row lock so concurrent writers
	// serialize on the same item.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.InventoryItem, error)
	UpdateStockTx(ctx context.Context, tx pgx.Tx, item *domain.InventoryItem) error
}

// InventoryListParams holds filters and pagination for listing inventory
type InventoryListParams struct {
	Search       string `json:"search,omitempty"`
	Category     string `json:"category,omitempty"`
	Status       string `json:"status,omitempty"`
	SupplierID   string `json:"supplier_id,omitempty"`
	Warehouse    string `json:"warehouse,omitempty"`
	NeedsReorder *bool  `json:"needs_reorder,omitempty"`
	SortBy       string `json:"sort_by"`
	SortOrder    string `json:"sort_order"`
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
}

// InventoryListResult holds one page of inventory items
type InventoryListResult struct {
	Items      []*domain.InventoryItem `json:"items"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalCount int64                   `json:"total_count"`
	TotalPages int                     `json:"total_pages"`
}

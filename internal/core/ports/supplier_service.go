// internal/core/ports/supplier_service.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// SupplierService defines the application service port for suppliers.
type SupplierService interface {
	CreateSupplier(ctx context.Context, supplier *domain.Supplier, actor *Actor) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, supplier *domain.Supplier, actor *Actor) (*domain.Supplier, error)
	UpdatePerformance(ctx context.Context, id uuid.UUID, metrics domain.PerformanceMetrics, actor *Actor) (*domain.Supplier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	List(ctx context.Context, params SupplierListParams) (*SupplierListResult, error)
	Products(ctx context.Context, id uuid.UUID) ([]*domain.InventoryItem, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
}

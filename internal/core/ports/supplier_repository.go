// internal/core/ports/supplier_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// SupplierRepository defines the persistence port for suppliers.
type SupplierRepository interface {
	Save(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier *domain.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	FindByCode(ctx context.Context, code string) (*domain.Supplier, error)
	FindAll(ctx context.Context, params SupplierListParams) (*SupplierListResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// SupplierListParams holds filters and pagination for listing suppliers
type SupplierListParams struct {
	Search    string `json:"search,omitempty"`
	Status    string `json:"status,omitempty"`
	Category  string `json:"category,omitempty"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// SupplierListResult holds one page of suppliers
type SupplierListResult struct {
	Suppliers  []*domain.Supplier `json:"suppliers"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalCount int64              `json:"total_count"`
	TotalPages int                `json:"total_pages"`
}

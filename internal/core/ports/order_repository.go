// internal/core/ports/order_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// OrderRepository defines the persistence port for orders.
// This interface is implemented by the database adapter.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	FindAll(ctx context.Context, params OrderListParams) (*OrderListResult, error)
	Stats(ctx context.Context) (*OrderStats, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByInventory(ctx context.Context, inventoryID uuid.UUID) (int64, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)

	// Transactional variants: order writes share a transaction with the
	// inventory stock updates they imply.
	NextOrderNumberTx(ctx context.Context, tx pgx.Tx, orderType domain.OrderType) (string, error)
	SaveTx(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	UpdateTx(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error)
	DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// OrderListParams holds filters and pagination for listing orders
type OrderListParams struct {
	Search     string     `json:"search,omitempty"`
	Type       string     `json:"type,omitempty"`
	Status     string     `json:"status,omitempty"`
	Priority   string     `json:"priority,omitempty"`
	SupplierID string     `json:"supplier_id,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	SortBy     string     `json:"sort_by"`
	SortOrder  string     `json:"sort_order"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

// OrderListResult holds one page of orders
type OrderListResult struct {
	Orders     []*domain.Order `json:"orders"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalCount int64           `json:"total_count"`
	TotalPages int             `json:"total_pages"`
}

// OrderStats aggregates order counts and revenue for dashboards
type OrderStats struct {
	TotalOrders  int64             `json:"total_orders"`
	TotalRevenue decimal.Decimal   `json:"total_revenue"`
	ByStatus     map[string]int64  `json:"by_status"`
	ByType       map[string]int64  `json:"by_type"`
	RecentTrend  []OrderTrendPoint `json:"recent_trend"`
	PendingValue decimal.Decimal   `json:"pending_value"`
	AverageValue decimal.Decimal   `json:"average_value"`
}

// OrderTrendPoint is one day of order volume for the trend series.
type OrderTrendPoint struct {
	Date   time.Time       `json:"date"`
	Count  int64           `json:"count"`
	Volume decimal.Decimal `json:"volume"`
}

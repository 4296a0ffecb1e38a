// internal/handlers/analytics.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainflow/chainflow-be/internal/adapters/db"
	redis_a "github.com/chainflow/chainflow-be/internal/adapters/redis_adapter"
	"github.com/chainflow/chainflow-be/internal/core/ports"
)

// AnalyticsHandler serves the dashboard and financial aggregates. Results
// are cached read-through; the analytics refresh worker pre-warms the same
// keys.
type AnalyticsHandler struct {
	db     *db.Database
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(database *db.Database, cache ports.CacheRepository, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		db:     database,
		cache:  cache,
		logger: logger.With(slog.String("handler", "analytics")),
	}
}

// DashboardData aggregates the landing-page metrics.
type DashboardData struct {
	Inventory InventoryOverview   `json:"inventory"`
	Orders    OrdersOverview      `json:"orders"`
	Suppliers SuppliersOverview   `json:"suppliers"`
	ByCategory []CategoryBreakdown `json:"by_category"`
	Timestamp time.Time           `json:"timestamp"`
}

// InventoryOverview summarizes stock health.
type InventoryOverview struct {
	TotalItems    int64           `json:"total_items"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalUnits    int64           `json:"total_units"`
	LowStockCount int64           `json:"low_stock_count"`
	OutOfStock    int64           `json:"out_of_stock_count"`
}

// OrdersOverview summarizes order volume.
type OrdersOverview struct {
	TotalOrders   int64           `json:"total_orders"`
	PendingOrders int64           `json:"pending_orders"`
	SalesRevenue  decimal.Decimal `json:"sales_revenue"`
	PurchaseSpend decimal.Decimal `json:"purchase_spend"`
}

// SuppliersOverview summarizes the supplier base.
type SuppliersOverview struct {
	TotalSuppliers  int64   `json:"total_suppliers"`
	ActiveSuppliers int64   `json:"active_suppliers"`
	AverageRating   float64 `json:"average_rating"`
}

// CategoryBreakdown is inventory value grouped by category.
type CategoryBreakdown struct {
	Category   string          `json:"category"`
	Count      int64           `json:"count"`
	TotalValue decimal.Decimal `json:"total_value"`
	LowStock   int64           `json:"low_stock"`
}

// FinancialSummary is the money view over a date range.
type FinancialSummary struct {
	Period         string          `json:"period"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	SalesRevenue   decimal.Decimal `json:"sales_revenue"`
	PurchaseSpend  decimal.Decimal `json:"purchase_spend"`
	NetFlow        decimal.Decimal `json:"net_flow"`
	OrderCount     int64           `json:"order_count"`
	DailyVolume    []DailyVolume   `json:"daily_volume"`
	Timestamp      time.Time       `json:"timestamp"`
}

// DailyVolume is one day of order totals.
type DailyVolume struct {
	Date    time.Time       `json:"date"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Dashboard handles GET /api/v1/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, "main")
	var dashboard DashboardData

	err := h.cache.GetOrSet(ctx, cacheKey, &dashboard, func() (interface{}, error) {
		return h.LoadDashboard(ctx)
	}, 5*time.Minute)

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dashboard)
}

// FinancialSummary handles GET /api/v1/analytics/financial-summary
func (h *AnalyticsHandler) FinancialSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period := r.URL.Query().Get("period")
	switch period {
	case "7d", "30d", "90d":
	default:
		period = "30d"
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixAnalytics, "financial", period)
	var summary FinancialSummary

	err := h.cache.GetOrSet(ctx, cacheKey, &summary, func() (interface{}, error) {
		return h.loadFinancialSummary(ctx, period)
	}, 15*time.Minute)

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load financial summary",
			slog.String("period", period),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load financial summary")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, summary)
}

// LoadDashboard computes the dashboard aggregates directly from the
// database. Exported so the analytics refresh worker can pre-warm the cache
// with the same shape.
func (h *AnalyticsHandler) LoadDashboard(ctx context.Context) (*DashboardData, error) {
	dashboard := &DashboardData{Timestamp: time.Now()}

	inventoryQuery := `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_value), 0),
			COALESCE(SUM(quantity), 0),
			COUNT(*) FILTER (WHERE status = 'low_stock'),
			COUNT(*) FILTER (WHERE status = 'out_of_stock')
		FROM inventory
		WHERE deleted_at IS NULL
	`
	if err := h.db.QueryRow(ctx, inventoryQuery).Scan(
		&dashboard.Inventory.TotalItems,
		&dashboard.Inventory.TotalValue,
		&dashboard.Inventory.TotalUnits,
		&dashboard.Inventory.LowStockCount,
		&dashboard.Inventory.OutOfStock,
	); err != nil {
		return nil, err
	}

	ordersQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM((pricing->>'total')::numeric) FILTER (WHERE type = 'sales' AND status != 'cancelled'), 0),
			COALESCE(SUM((pricing->>'total')::numeric) FILTER (WHERE type = 'purchase' AND status != 'cancelled'), 0)
		FROM orders
	`
	if err := h.db.QueryRow(ctx, ordersQuery).Scan(
		&dashboard.Orders.TotalOrders,
		&dashboard.Orders.PendingOrders,
		&dashboard.Orders.SalesRevenue,
		&dashboard.Orders.PurchaseSpend,
	); err != nil {
		return nil, err
	}

	suppliersQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COALESCE(AVG(rating), 0)
		FROM suppliers
	`
	if err := h.db.QueryRow(ctx, suppliersQuery).Scan(
		&dashboard.Suppliers.TotalSuppliers,
		&dashboard.Suppliers.ActiveSuppliers,
		&dashboard.Suppliers.AverageRating,
	); err != nil {
		return nil, err
	}

	categoryQuery := `
		SELECT
			category,
			COUNT(*),
			COALESCE(SUM(total_value), 0),
			COUNT(*) FILTER (WHERE status IN ('low_stock', 'out_of_stock'))
		FROM inventory
		WHERE deleted_at IS NULL
		GROUP BY category
		ORDER BY SUM(total_value) DESC
	`
	rows, err := h.db.Query(ctx, categoryQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cat CategoryBreakdown
		if err := rows.Scan(&cat.Category, &cat.Count, &cat.TotalValue, &cat.LowStock); err != nil {
			return nil, err
		}
		dashboard.ByCategory = append(dashboard.ByCategory, cat)
	}

	return dashboard, rows.Err()
}

func (h *AnalyticsHandler) loadFinancialSummary(ctx context.Context, period string) (*FinancialSummary, error) {
	days := map[string]int{"7d": 7, "30d": 30, "90d": 90}[period]
	since := time.Now().AddDate(0, 0, -days)

	summary := &FinancialSummary{Period: period, Timestamp: time.Now()}

	if err := h.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_value), 0) FROM inventory WHERE deleted_at IS NULL`,
	).Scan(&summary.InventoryValue); err != nil {
		return nil, err
	}

	flowQuery := `
		SELECT
			COUNT(*),
			COALESCE(SUM((pricing->>'total')::numeric) FILTER (WHERE type = 'sales' AND status != 'cancelled'), 0),
			COALESCE(SUM((pricing->>'total')::numeric) FILTER (WHERE type = 'purchase' AND status != 'cancelled'), 0)
		FROM orders
		WHERE created_at >= $1
	`
	if err := h.db.QueryRow(ctx, flowQuery, since).Scan(
		&summary.OrderCount,
		&summary.SalesRevenue,
		&summary.PurchaseSpend,
	); err != nil {
		return nil, err
	}
	summary.NetFlow = summary.SalesRevenue.Sub(summary.PurchaseSpend)

	trendQuery := `
		SELECT
			date_trunc('day', created_at) AS day,
			COUNT(*),
			COALESCE(SUM((pricing->>'total')::numeric) FILTER (WHERE type = 'sales' AND status != 'cancelled'), 0)
		FROM orders
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`
	rows, err := h.db.Query(ctx, trendQuery, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var point DailyVolume
		if err := rows.Scan(&point.Date, &point.Count, &point.Revenue); err != nil {
			return nil, err
		}
		summary.DailyVolume = append(summary.DailyVolume, point)
	}

	return summary, rows.Err()
}

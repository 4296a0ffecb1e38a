// internal/adapters/db/order_repository.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
)

// Per-type sequences backing order number allocation. Numbers are assigned
// inside the creating transaction, so two concurrent creates can never
// collide.
var orderSequences = map[domain.OrderType]string{
	domain.OrderTypePurchase: "order_number_po_seq",
	domain.OrderTypeSales:    "order_number_so_seq",
	domain.OrderTypeTransfer: "order_number_to_seq",
}

var orderColumns = []string{
	"id", "order_number", "type", "status", "priority", "supplier_id",
	"customer", "items", "pricing", "payment", "shipping", "dates",
	"notes", "internal_notes", "tags", "history",
	"created_by", "updated_by", "created_at", "updated_at",
}

// orderRepository implements ports.OrderRepository
type orderRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *Database, logger *slog.Logger) ports.OrderRepository {
	return &orderRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "orders")),
	}
}

// NextOrderNumberTx allocates the next order number for the given type
// from its sequence, inside tx.
func (r *orderRepository) NextOrderNumberTx(ctx context.Context, tx pgx.Tx, orderType domain.OrderType) (string, error) {
	seq, ok := orderSequences[orderType]
	if !ok {
		return "", domain.NewValidationError("type", fmt.Sprintf("unknown order type %q", orderType))
	}

	var next int64
	if err := tx.QueryRow(ctx, `SELECT nextval($1::regclass)`, seq).Scan(&next); err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}

	return domain.FormatOrderNumber(orderType, next), nil
}

// SaveTx inserts a new order inside tx
func (r *orderRepository) SaveTx(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, type, status, priority, supplier_id,
			customer, items, pricing, payment, shipping, dates,
			notes, internal_notes, tags, history,
			created_by, updated_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	args, err := orderArgs(order)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &domain.DuplicateKeyError{Field: "order_number", Value: order.OrderNumber}
		}
		return fmt.Errorf("failed to save order: %w", err)
	}

	r.logger.DebugContext(ctx, "order saved",
		slog.String("id", order.ID.String()),
		slog.String("order_number", order.OrderNumber))

	return nil
}

// UpdateTx rewrites an order's mutable columns inside tx
func (r *orderRepository) UpdateTx(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	query := `
		UPDATE orders SET
			status = $2, priority = $3, supplier_id = $4,
			customer = $5, items = $6, pricing = $7, payment = $8,
			shipping = $9, dates = $10, notes = $11, internal_notes = $12,
			tags = $13, history = $14, updated_by = $15, updated_at = $16
		WHERE id = $1`

	order.UpdatedAt = time.Now()

	customer, items, pricing, payment, shipping, dates, history, err := marshalOrderDocs(order)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, query,
		order.ID, order.Status, order.Priority, order.SupplierID,
		customer, items, pricing, payment,
		shipping, dates, nullIfEmpty(order.Notes), nullIfEmpty(order.InternalNotes),
		order.Tags, history, order.UpdatedBy, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("order", order.ID.String())
	}

	return nil
}

// FindByID retrieves an order by ID
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := selectOrders().Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	order, err := scanOrder(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("order", id.String())
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	return order, nil
}

// FindByNumber retrieves an order by its order number
func (r *orderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := selectOrders().Where(squirrel.Eq{"order_number": orderNumber})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	order, err := scanOrder(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("order", orderNumber)
		}
		return nil, fmt.Errorf("failed to find order by number: %w", err)
	}

	return order, nil
}

// FindByIDForUpdate loads an order inside tx, locking the row
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	query := selectOrders().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	order, err := scanOrder(tx.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("order", id.String())
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return order, nil
}

// FindAll retrieves orders with filtering and pagination
func (r *orderRepository) FindAll(ctx context.Context, params ports.OrderListParams) (*ports.OrderListResult, error) {
	qb := selectOrders()

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"order_number": pattern},
			squirrel.Expr("customer->>'name' ILIKE ?", pattern),
			squirrel.Expr("customer->>'company' ILIKE ?", pattern),
		})
	}
	if params.Type != "" {
		qb = qb.Where(squirrel.Eq{"type": params.Type})
	}
	if params.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": params.Status})
	}
	if params.Priority != "" {
		qb = qb.Where(squirrel.Eq{"priority": params.Priority})
	}
	if params.SupplierID != "" {
		qb = qb.Where(squirrel.Eq{"supplier_id": params.SupplierID})
	}
	if params.DateFrom != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *params.DateFrom})
	}
	if params.DateTo != nil {
		qb = qb.Where(squirrel.LtOrEq{"created_at": *params.DateTo})
	}

	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	discard := make([]interface{}, len(orderColumns)+1)
	row := r.db.QueryRow(ctx, countSQL, countArgs...)
	if err := scanCountOver(row, discard, &totalCount); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	qb = qb.OrderBy(orderSortClause(params.SortBy, params.SortOrder))

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	qb = qb.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return &ports.OrderListResult{
		Orders:     orders,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// Stats aggregates order counts, revenue and a 30-day trend
func (r *orderRepository) Stats(ctx context.Context) (*ports.OrderStats, error) {
	stats := &ports.OrderStats{
		ByStatus: make(map[string]int64),
		ByType:   make(map[string]int64),
	}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM((pricing->>'total')::numeric) FILTER (WHERE type = 'sales' AND status NOT IN ('cancelled', 'returned')), 0),
			COALESCE(SUM((pricing->>'total')::numeric) FILTER (WHERE status = 'pending'), 0),
			COALESCE(AVG((pricing->>'total')::numeric), 0)
		FROM orders`).Scan(
		&stats.TotalOrders, &stats.TotalRevenue, &stats.PendingValue, &stats.AverageValue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	typeRows, err := r.db.Query(ctx, `SELECT type, COUNT(*) FROM orders GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by type: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var orderType string
		var count int64
		if err := typeRows.Scan(&orderType, &count); err != nil {
			return nil, err
		}
		stats.ByType[orderType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, err
	}

	trendRows, err := r.db.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*),
		       COALESCE(SUM((pricing->>'total')::numeric), 0)
		FROM orders
		WHERE created_at >= NOW() - INTERVAL '30 days'
		GROUP BY day
		ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("failed to query order trend: %w", err)
	}
	defer trendRows.Close()
	for trendRows.Next() {
		var point ports.OrderTrendPoint
		if err := trendRows.Scan(&point.Date, &point.Count, &point.Volume); err != nil {
			return nil, err
		}
		stats.RecentTrend = append(stats.RecentTrend, point)
	}
	if err := trendRows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// Delete removes an order
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("order", id.String())
	}
	return nil
}

// DeleteTx removes an order inside tx
func (r *orderRepository) DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("order", id.String())
	}

	r.logger.InfoContext(ctx, "order deleted", slog.String("id", id.String()))
	return nil
}

// CountByInventory counts live orders holding a line for the given item
func (r *orderRepository) CountByInventory(ctx context.Context, inventoryID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE status NOT IN ('delivered', 'cancelled')
		  AND items @> $1`

	line, err := json.Marshal([]map[string]string{{"inventory_id": inventoryID.String()}})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal containment probe: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, line).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders by inventory: %w", err)
	}
	return count, nil
}

// CountBySupplier counts orders referencing the given supplier
func (r *orderRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE supplier_id = $1`, supplierID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders by supplier: %w", err)
	}
	return count, nil
}

// selectOrders builds the base SELECT for orders
func selectOrders() squirrel.SelectBuilder {
	return squirrel.Select(orderColumns...).
		From("orders").
		PlaceholderFormat(squirrel.Dollar)
}

func orderSortClause(sortBy, sortOrder string) string {
	direction := "ASC"
	if sortOrder == "desc" {
		direction = "DESC"
	}

	switch sortBy {
	case "order_number":
		return "order_number " + direction
	case "status":
		return "status " + direction
	case "total":
		return "(pricing->>'total')::numeric " + direction
	case "updated":
		return "updated_at " + direction
	default:
		return "created_at DESC"
	}
}

// scanOrder scans one order row in orderColumns order
func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var notes, internalNotes sql.NullString
	var customer, items, pricing, payment, shipping, dates, history []byte

	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.Type, &order.Status, &order.Priority, &order.SupplierID,
		&customer, &items, &pricing, &payment, &shipping, &dates,
		&notes, &internalNotes, &order.Tags, &history,
		&order.CreatedBy, &order.UpdatedBy, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Notes = notes.String
	order.InternalNotes = internalNotes.String

	for _, doc := range []struct {
		data []byte
		dest interface{}
	}{
		{customer, &order.Customer},
		{items, &order.Items},
		{pricing, &order.Pricing},
		{payment, &order.Payment},
		{shipping, &order.Shipping},
		{dates, &order.Dates},
		{history, &order.History},
	} {
		if len(doc.data) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.data, doc.dest); err != nil {
			return nil, fmt.Errorf("failed to decode order document: %w", err)
		}
	}

	return order, nil
}

func marshalOrderDocs(order *domain.Order) (customer, items, pricing, payment, shipping, dates, history []byte, err error) {
	docs := []struct {
		src  interface{}
		dest *[]byte
	}{
		{order.Customer, &customer},
		{order.Items, &items},
		{order.Pricing, &pricing},
		{order.Payment, &payment},
		{order.Shipping, &shipping},
		{order.Dates, &dates},
		{order.History, &history},
	}
	for _, d := range docs {
		if *d.dest, err = json.Marshal(d.src); err != nil {
			err = fmt.Errorf("failed to encode order documents: %w", err)
			return
		}
	}
	return
}

func orderArgs(order *domain.Order) ([]interface{}, error) {
	customer, items, pricing, payment, shipping, dates, history, err := marshalOrderDocs(order)
	if err != nil {
		return nil, err
	}

	return []interface{}{
		order.ID, order.OrderNumber, order.Type, order.Status, order.Priority, order.SupplierID,
		customer, items, pricing, payment, shipping, dates,
		nullIfEmpty(order.Notes), nullIfEmpty(order.InternalNotes), order.Tags, history,
		order.CreatedBy, order.UpdatedBy, order.CreatedAt, order.UpdatedAt,
	}, nil
}

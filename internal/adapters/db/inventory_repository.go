// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"database/sql"
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

const pgUniqueViolation = "23505"

var inventoryColumns = []string{
	"id", "sku", "name", "description", "category",
	"quantity", "unit", "reorder_point", "reorder_quantity",
	"unit_cost", "total_value", "supplier_id",
	"warehouse_location", "warehouse_zone", "warehouse_bin",
	"status", "last_restocked", "expiry_date", "batch_number",
	"notes", "created_by", "updated_by", "created_at", "updated_at",
}

// inventoryRepository implements ports.InventoryRepository
type inventoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *Database, logger *slog.Logger) ports.InventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

// Save creates a new inventory item
func (r *inventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory (
			id, sku, name, description, category,
			quantity, unit, reorder_point, reorder_quantity,
			unit_cost, total_value, supplier_id,
			warehouse_location, warehouse_zone, warehouse_bin,
			status, last_restocked, expiry_date, batch_number,
			notes, created_by, updated_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24
		)`

	_, err := r.db.Exec(ctx, query, inventoryArgs(item)...)
	if err != nil {
		return translateInventoryError(err, item)
	}

	r.logger.DebugContext(ctx, "inventory item saved",
		slog.String("id", item.ID.String()),
		slog.String("sku", item.SKU))

	return nil
}

// Update updates an existing inventory item
func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory SET
			sku = $2, name = $3, description = $4, category = $5,
			quantity = $6, unit = $7, reorder_point = $8, reorder_quantity = $9,
			unit_cost = $10, total_value = $11, supplier_id = $12,
			warehouse_location = $13, warehouse_zone = $14, warehouse_bin = $15,
			status = $16, last_restocked = $17, expiry_date = $18, batch_number = $19,
			notes = $20, updated_by = $21, updated_at = $22
		WHERE id = $1 AND deleted_at IS NULL`

	item.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.SKU, item.Name, item.Description, item.Category,
		item.Quantity, item.Unit, item.ReorderPoint, item.ReorderQuantity,
		item.UnitCost, item.TotalValue, item.SupplierID,
		item.Warehouse.Location, nullIfEmpty(item.Warehouse.Zone), nullIfEmpty(item.Warehouse.Bin),
		item.Status, item.LastRestocked, item.ExpiryDate, nullIfEmpty(item.BatchNumber),
		nullIfEmpty(item.Notes), item.UpdatedBy, item.UpdatedAt,
	)
	if err != nil {
		return translateInventoryError(err, item)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("inventory item", item.ID.String())
	}

	r.logger.DebugContext(ctx, "inventory item updated",
		slog.String("id", item.ID.String()))

	return nil
}

// FindByID retrieves an inventory item by ID
func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	query := selectInventory().Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanInventoryItem(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("inventory item", id.String())
		}
		return nil, fmt.Errorf("failed to find inventory item: %w", err)
	}

	return item, nil
}

// FindBySKU retrieves an inventory item by its SKU
func (r *inventoryRepository) FindBySKU(ctx context.Context, sku string) (*domain.InventoryItem, error) {
	query := selectInventory().Where(squirrel.Eq{"sku": sku})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanInventoryItem(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("inventory item", sku)
		}
		return nil, fmt.Errorf("failed to find inventory item by sku: %w", err)
	}

	return item, nil
}

// FindByIDForUpdate loads an item inside tx, locking the row until the
// transaction ends.
func (r *inventoryRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.InventoryItem, error) {
	query := selectInventory().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanInventoryItem(tx.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("inventory item", id.String())
		}
		return nil, fmt.Errorf("failed to lock inventory item: %w", err)
	}

	return item, nil
}

// UpdateStockTx persists quantity-affecting fields inside tx. Used by the
// order lifecycle and manual adjustments after RecomputeDerived has run.
func (r *inventoryRepository) UpdateStockTx(ctx context.Context, tx pgx.Tx, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory SET
			quantity = $2, total_value = $3, status = $4,
			last_restocked = $5, notes = $6, updated_by = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`

	item.UpdatedAt = time.Now()

	tag, err := tx.Exec(ctx, query,
		item.ID, item.Quantity, item.TotalValue, item.Status,
		item.LastRestocked, nullIfEmpty(item.Notes), item.UpdatedBy, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("inventory item", item.ID.String())
	}

	return nil
}

// FindAll retrieves inventory items with filtering and pagination
func (r *inventoryRepository) FindAll(ctx context.Context, params ports.InventoryListParams) (*ports.InventoryListResult, error) {
	qb := selectInventory()

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	if params.Category != "" {
		qb = qb.Where(squirrel.Eq{"category": params.Category})
	}
	if params.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": params.Status})
	}
	if params.SupplierID != "" {
		qb = qb.Where(squirrel.Eq{"supplier_id": params.SupplierID})
	}
	if params.Warehouse != "" {
		qb = qb.Where(squirrel.Eq{"warehouse_location": params.Warehouse})
	}
	if params.NeedsReorder != nil && *params.NeedsReorder {
		qb = qb.Where("quantity <= reorder_point").
			Where(squirrel.NotEq{"status": domain.StatusDiscontinued})
	}

	// Total before pagination
	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	discard := make([]interface{}, len(inventoryColumns)+1)
	row := r.db.QueryRow(ctx, countSQL, countArgs...)
	if err := scanCountOver(row, discard, &totalCount); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to count inventory items: %w", err)
	}

	qb = qb.OrderBy(inventorySortClause(params.SortBy, params.SortOrder))

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
		return nil, fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()

	var items []*domain.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return &ports.InventoryListResult{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// FindLowStock lists items at or below their reorder point, plus any the
// status derivation already flagged.
func (r *inventoryRepository) FindLowStock(ctx context.Context) ([]*domain.InventoryItem, error) {
	qb := selectInventory().
		Where(squirrel.Or{
			squirrel.Eq{"status": []domain.StockStatus{domain.StatusLowStock, domain.StatusOutOfStock}},
			squirrel.Expr("quantity <= reorder_point"),
		}).
		Where(squirrel.NotEq{"status": domain.StatusDiscontinued}).
		OrderBy("quantity ASC")

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock items: %w", err)
	}
	defer rows.Close()

	var items []*domain.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindBySupplier lists items sourced from the given supplier
func (r *inventoryRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*domain.InventoryItem, error) {
	qb := selectInventory().
		Where(squirrel.Eq{"supplier_id": supplierID}).
		OrderBy("name ASC")

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier items: %w", err)
	}
	defer rows.Close()

	var items []*domain.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountBySupplier counts live items referencing the given supplier
func (r *inventoryRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM inventory WHERE supplier_id = $1 AND deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query, supplierID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count supplier items: %w", err)
	}
	return count, nil
}

// Delete performs a hard delete
func (r *inventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("inventory item", id.String())
	}

	r.logger.InfoContext(ctx, "inventory item deleted",
		slog.String("id", id.String()))

	return nil
}

// SoftDelete marks an item as deleted
func (r *inventoryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE inventory SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	now := time.Now()
	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to soft delete inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("inventory item", id.String())
	}

	r.logger.InfoContext(ctx, "inventory item soft deleted",
		slog.String("id", id.String()))

	return nil
}

// PurgeDeletedBefore hard-deletes items soft-deleted more than days ago.
// Used by the cleanup worker.
func (r *inventoryRepository) PurgeDeletedBefore(ctx context.Context, days int) (int64, error) {
	query := `DELETE FROM inventory WHERE deleted_at IS NOT NULL AND deleted_at < NOW() - make_interval(days => $1)`

	tag, err := r.db.Exec(ctx, query, days)
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted items: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of live inventory items
func (r *inventoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM inventory WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory items: %w", err)
	}
	return count, nil
}

// Exists checks if an inventory item exists
func (r *inventoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM inventory WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

// selectInventory builds the base SELECT for live inventory rows
func selectInventory() squirrel.SelectBuilder {
	return squirrel.Select(inventoryColumns...).
		From("inventory").
		Where("deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)
}

func inventorySortClause(sortBy, sortOrder string) string {
	direction := "ASC"
	if sortOrder == "desc" {
		direction = "DESC"
	}

	switch sortBy {
	case "name":
		return "name " + direction
	case "sku":
		return "sku " + direction
	case "quantity":
		return "quantity " + direction
	case "value":
		return "total_value " + direction
	case "updated":
		return "updated_at " + direction
	default:
		return "created_at DESC"
	}
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanInventoryItem scans one inventory row in inventoryColumns order
func scanInventoryItem(row rowScanner) (*domain.InventoryItem, error) {
	item := &domain.InventoryItem{}
	var description, zone, bin, batchNumber, notes sql.NullString

	err := row.Scan(
		&item.ID, &item.SKU, &item.Name, &description, &item.Category,
		&item.Quantity, &item.Unit, &item.ReorderPoint, &item.ReorderQuantity,
		&item.UnitCost, &item.TotalValue, &item.SupplierID,
		&item.Warehouse.Location, &zone, &bin,
		&item.Status, &item.LastRestocked, &item.ExpiryDate, &batchNumber,
		&notes, &item.CreatedBy, &item.UpdatedBy, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.Warehouse.Zone = zone.String
	item.Warehouse.Bin = bin.String
	item.BatchNumber = batchNumber.String
	item.Notes = notes.String

	return item, nil
}

// scanCountOver scans a COUNT(*) OVER() row, discarding the entity columns
func scanCountOver(row pgx.Row, discard []interface{}, count *int64) error {
	for i := range discard {
		discard[i] = new(interface{})
	}
	discard[len(discard)-1] = count
	return row.Scan(discard...)
}

func inventoryArgs(item *domain.InventoryItem) []interface{} {
	return []interface{}{
		item.ID, item.SKU, item.Name, nullIfEmpty(item.Description), item.Category,
		item.Quantity, item.Unit, item.ReorderPoint, item.ReorderQuantity,
		item.UnitCost, item.TotalValue, item.SupplierID,
		item.Warehouse.Location, nullIfEmpty(item.Warehouse.Zone), nullIfEmpty(item.Warehouse.Bin),
		item.Status, item.LastRestocked, item.ExpiryDate, nullIfEmpty(item.BatchNumber),
		nullIfEmpty(item.Notes), item.CreatedBy, item.UpdatedBy, item.CreatedAt, item.UpdatedAt,
	}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// translateInventoryError maps pg constraint violations to domain errors
func translateInventoryError(err error, item *domain.InventoryItem) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &domain.DuplicateKeyError{Field: "sku", Value: item.SKU}
	}
	return fmt.Errorf("failed to persist inventory item: %w", err)
}

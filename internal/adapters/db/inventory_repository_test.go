package db

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

func testItem() *domain.InventoryItem {
	item := &domain.InventoryItem{
		ID:              uuid.New(),
		SKU:             "WGT-001",
		Name:            "Widget",
		Category:        domain.CategoryComponents,
		Quantity:        150,
		Unit:            "units",
		ReorderPoint:    20,
		ReorderQuantity: 100,
		UnitCost:        decimal.NewFromFloat(4.25),
		Warehouse:       domain.Warehouse{Location: "Main"},
	}
	item.RecomputeDerived()
	return item
}

func TestInventorySortClause(t *testing.T) {
	tests := []struct {
		name      string
		sortBy    string
		sortOrder string
		want      string
	}{
		{"name_ascending", "name", "asc", "name ASC"},
		{"name_descending", "name", "desc", "name DESC"},
		{"sku", "sku", "asc", "sku ASC"},
		{"quantity", "quantity", "desc", "quantity DESC"},
		{"value_maps_to_total_value", "value", "asc", "total_value ASC"},
		{"updated_maps_to_updated_at", "updated", "desc", "updated_at DESC"},
		{"unknown_column_falls_back", "drop table", "asc", "created_at DESC"},
		{"empty_falls_back", "", "", "created_at DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inventorySortClause(tt.sortBy, tt.sortOrder))
		})
	}
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "A-12", nullIfEmpty("A-12"))
}

func TestInventoryArgs_MatchesColumnCount(t *testing.T) {
	item := testItem()
	assert.Len(t, inventoryArgs(item), len(inventoryColumns))
}

func TestTranslateInventoryError(t *testing.T) {
	item := testItem()

	t.Run("unique_violation_becomes_duplicate_key", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgUniqueViolation}
		err := translateInventoryError(pgErr, item)

		var dup *domain.DuplicateKeyError
		assert.ErrorAs(t, err, &dup)
		assert.Equal(t, "sku", dup.Field)
		assert.Equal(t, item.SKU, dup.Value)
	})

	t.Run("other_errors_are_wrapped", func(t *testing.T) {
		err := translateInventoryError(assert.AnError, item)

		var dup *domain.DuplicateKeyError
		assert.False(t, errors.As(err, &dup))
		assert.ErrorIs(t, err, assert.AnError)
	})
}

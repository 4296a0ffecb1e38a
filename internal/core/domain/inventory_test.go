package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

func TestInventoryItem_Validate(t *testing.T) {
	tests := []struct {
		name      string
		item      *domain.InventoryItem
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid_item_with_all_fields",
			item: &domain.InventoryItem{
				SKU:          "WGT-001",
				Name:         "Steel Widget",
				Category:     domain.CategoryComponents,
				Quantity:     150,
				ReorderPoint: 20,
				UnitCost:     decimal.NewFromFloat(4.5),
			},
			wantError: false,
		},
		{
			name: "missing_sku",
			item: &domain.InventoryItem{
				Name:     "Steel Widget",
				Quantity: 1,
			},
			wantError: true,
			errorMsg:  "sku: is required",
		},
		{
			name: "missing_name",
			item: &domain.InventoryItem{
				SKU:      "WGT-001",
				Quantity: 1,
			},
			wantError: true,
			errorMsg:  "name: is required",
		},
		{
			name: "negative_quantity",
			item: &domain.InventoryItem{
				SKU:      "WGT-001",
				Name:     "Steel Widget",
				Quantity: -5,
			},
			wantError: true,
			errorMsg:  "quantity: cannot be negative",
		},
		{
			name: "negative_unit_cost",
			item: &domain.InventoryItem{
				SKU:      "WGT-001",
				Name:     "Steel Widget",
				UnitCost: decimal.NewFromFloat(-2),
			},
			wantError: true,
			errorMsg:  "unit_cost: cannot be negative",
		},
		{
			name: "negative_reorder_point",
			item: &domain.InventoryItem{
				SKU:          "WGT-001",
				Name:         "Steel Widget",
				ReorderPoint: -1,
			},
			wantError: true,
			errorMsg:  "reorder_point: cannot be negative",
		},
		{
			name: "unknown_category",
			item: &domain.InventoryItem{
				SKU:      "WGT-001",
				Name:     "Steel Widget",
				Category: "gadgets",
			},
			wantError: true,
			errorMsg:  "unknown category",
		},
		{
			name: "unknown_status",
			item: &domain.InventoryItem{
				SKU:    "WGT-001",
				Name:   "Steel Widget",
				Status: "obsolete",
			},
			wantError: true,
			errorMsg:  "unknown status",
		},
		{
			name: "discontinued_status_is_allowed",
			item: &domain.InventoryItem{
				SKU:    "WGT-001",
				Name:   "Steel Widget",
				Status: domain.StatusDiscontinued,
			},
			wantError: false,
		},
		{
			name: "zero_quantity_is_allowed",
			item: &domain.InventoryItem{
				SKU:  "WGT-001",
				Name: "Steel Widget",
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()

			if tt.wantError {
				require.Error(t, err)
				if tt.errorMsg != "" {
					assert.Contains(t, err.Error(), tt.errorMsg)
				}
				var vErr *domain.ValidationError
				assert.ErrorAs(t, err, &vErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestInventoryItem_RecomputeDerived(t *testing.T) {
	tests := []struct {
		name           string
		quantity       int
		reorderPoint   int
		unitCost       decimal.Decimal
		initialStatus  domain.StockStatus
		expectedStatus domain.StockStatus
		expectedValue  decimal.Decimal
	}{
		{
			name:           "above_reorder_point_is_in_stock",
			quantity:       150,
			reorderPoint:   20,
			unitCost:       decimal.NewFromFloat(4.5),
			expectedStatus: domain.StatusInStock,
			expectedValue:  decimal.NewFromFloat(675),
		},
		{
			name:           "at_reorder_point_is_low_stock",
			quantity:       20,
			reorderPoint:   20,
			unitCost:       decimal.NewFromFloat(4.5),
			expectedStatus: domain.StatusLowStock,
			expectedValue:  decimal.NewFromFloat(90),
		},
		{
			name:           "below_reorder_point_is_low_stock",
			quantity:       10,
			reorderPoint:   20,
			unitCost:       decimal.NewFromFloat(4.5),
			expectedStatus: domain.StatusLowStock,
			expectedValue:  decimal.NewFromFloat(45),
		},
		{
			name:           "zero_quantity_is_out_of_stock",
			quantity:       0,
			reorderPoint:   20,
			unitCost:       decimal.NewFromFloat(4.5),
			expectedStatus: domain.StatusOutOfStock,
			expectedValue:  decimal.Zero,
		},
		{
			name:           "zero_quantity_wins_over_reorder_point_zero",
			quantity:       0,
			reorderPoint:   0,
			unitCost:       decimal.NewFromFloat(4.5),
			expectedStatus: domain.StatusOutOfStock,
			expectedValue:  decimal.Zero,
		},
		{
			name:           "discontinued_is_preserved",
			quantity:       150,
			reorderPoint:   20,
			unitCost:       decimal.NewFromFloat(4.5),
			initialStatus:  domain.StatusDiscontinued,
			expectedStatus: domain.StatusDiscontinued,
			expectedValue:  decimal.NewFromFloat(675),
		},
		{
			name:           "stale_status_is_overwritten",
			quantity:       150,
			reorderPoint:   20,
			unitCost:       decimal.NewFromFloat(4.5),
			initialStatus:  domain.StatusOutOfStock,
			expectedStatus: domain.StatusInStock,
			expectedValue:  decimal.NewFromFloat(675),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &domain.InventoryItem{
				Quantity:     tt.quantity,
				ReorderPoint: tt.reorderPoint,
				UnitCost:     tt.unitCost,
				Status:       tt.initialStatus,
			}

			item.RecomputeDerived()

			assert.Equal(t, tt.expectedStatus, item.Status)
			assert.True(t, item.TotalValue.Equal(tt.expectedValue),
				"Expected total value: %s, Got: %s", tt.expectedValue, item.TotalValue)
		})
	}
}

func TestInventoryItem_RecomputeDerived_RoundTrip(t *testing.T) {
	// 150 on hand, reorder point 20: selling 140 drops the item to
	// low_stock, restoring them brings it back to in_stock.
	item := &domain.InventoryItem{
		SKU:          "WGT-001",
		Name:         "Steel Widget",
		Quantity:     150,
		ReorderPoint: 20,
		UnitCost:     decimal.NewFromFloat(2),
	}
	item.RecomputeDerived()
	require.Equal(t, domain.StatusInStock, item.Status)

	item.Quantity -= 140
	item.RecomputeDerived()
	assert.Equal(t, domain.StatusLowStock, item.Status)
	assert.True(t, item.TotalValue.Equal(decimal.NewFromInt(20)))

	item.Quantity += 140
	item.RecomputeDerived()
	assert.Equal(t, domain.StatusInStock, item.Status)
	assert.True(t, item.TotalValue.Equal(decimal.NewFromInt(300)))
}

func TestInventoryItem_AppendAdjustmentNote(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	t.Run("empty_notes", func(t *testing.T) {
		item := &domain.InventoryItem{}
		item.AppendAdjustmentNote(-5, "Damaged in transit", "Jane Ops", at)

		assert.Equal(t,
			"[2025-03-14T09:30:00Z] Adjustment: -5 units. Reason: Damaged in transit. By: Jane Ops",
			item.Notes)
	})

	t.Run("appends_on_new_line", func(t *testing.T) {
		item := &domain.InventoryItem{Notes: "first entry"}
		item.AppendAdjustmentNote(25, "Cycle count", "Jane Ops", at)

		assert.Contains(t, item.Notes, "first entry\n[")
		assert.Contains(t, item.Notes, "Adjustment: +25 units")
	})
}

func TestInventoryItem_PrepareForStorage(t *testing.T) {
	t.Run("generates_uuid_when_nil", func(t *testing.T) {
		item := &domain.InventoryItem{SKU: "wgt-001", Name: "Steel Widget"}

		item.PrepareForStorage()

		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.NotZero(t, item.CreatedAt)
		assert.NotZero(t, item.UpdatedAt)
	})

	t.Run("preserves_existing_uuid", func(t *testing.T) {
		existingID := uuid.New()
		item := &domain.InventoryItem{ID: existingID}

		item.PrepareForStorage()

		assert.Equal(t, existingID, item.ID)
	})

	t.Run("uppercases_and_trims_sku", func(t *testing.T) {
		item := &domain.InventoryItem{SKU: "  wgt-001 "}

		item.PrepareForStorage()

		assert.Equal(t, "WGT-001", item.SKU)
	})

	t.Run("sets_defaults", func(t *testing.T) {
		item := &domain.InventoryItem{SKU: "WGT-001", Name: "Steel Widget"}

		item.PrepareForStorage()

		assert.Equal(t, domain.CategoryOther, item.Category)
		assert.Equal(t, "units", item.Unit)
		assert.Equal(t, "Main Warehouse", item.Warehouse.Location)
	})

	t.Run("derives_status_and_value", func(t *testing.T) {
		item := &domain.InventoryItem{
			SKU:          "WGT-001",
			Name:         "Steel Widget",
			Quantity:     5,
			ReorderPoint: 10,
			UnitCost:     decimal.NewFromFloat(3),
		}

		item.PrepareForStorage()

		assert.Equal(t, domain.StatusLowStock, item.Status)
		assert.True(t, item.TotalValue.Equal(decimal.NewFromInt(15)))
	})
}

func TestInventoryItem_NeedsReorder(t *testing.T) {
	assert.True(t, (&domain.InventoryItem{Quantity: 10, ReorderPoint: 10}).NeedsReorder())
	assert.False(t, (&domain.InventoryItem{Quantity: 11, ReorderPoint: 10}).NeedsReorder())
	assert.False(t, (&domain.InventoryItem{
		Quantity:     0,
		ReorderPoint: 10,
		Status:       domain.StatusDiscontinued,
	}).NeedsReorder())
}

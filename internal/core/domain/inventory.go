// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemCategory represents inventory item categories
type ItemCategory string

// Category constants
const (
	CategoryRawMaterials  ItemCategory = "raw_materials"
	CategoryComponents    ItemCategory = "components"
	CategoryFinishedGoods ItemCategory = "finished_goods"
	CategoryPackaging     ItemCategory = "packaging"
	CategorySupplies      ItemCategory = "supplies"
	CategoryOther         ItemCategory = "other"
)

// ValidCategories lists every accepted category value.
var ValidCategories = []ItemCategory{
	CategoryRawMaterials,
	CategoryComponents,
	CategoryFinishedGoods,
	CategoryPackaging,
	CategorySupplies,
	CategoryOther,
}

// StockStatus represents the stock level state of an item
type StockStatus string

// Stock status constants
const (
	StatusInStock      StockStatus = "in_stock"
	StatusLowStock     StockStatus = "low_stock"
	StatusOutOfStock   StockStatus = "out_of_stock"
	StatusDiscontinued StockStatus = "discontinued"
)

// ValidStatuses lists every accepted stock status value.
var ValidStatuses = []StockStatus{
	StatusInStock,
	StatusLowStock,
	StatusOutOfStock,
	StatusDiscontinued,
}

// Warehouse holds the physical location of an item.
type Warehouse struct {
	Location string `json:"location"`
	Zone     string `json:"zone,omitempty"`
	Bin      string `json:"bin,omitempty"`
}

// InventoryItem represents a single stocked item
type InventoryItem struct {
	ID              uuid.UUID       `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Category        ItemCategory    `json:"category"`
	Quantity        int             `json:"quantity"`
	Unit            string          `json:"unit"`
	ReorderPoint    int             `json:"reorder_point"`
	ReorderQuantity int             `json:"reorder_quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalValue      decimal.Decimal `json:"total_value"`
	SupplierID      *uuid.UUID      `json:"supplier_id,omitempty"`
	Warehouse       Warehouse       `json:"warehouse"`
	Status          StockStatus     `json:"status"`
	LastRestocked   *time.Time      `json:"last_restocked,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	BatchNumber     string          `json:"batch_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       *uuid.UUID      `json:"created_by,omitempty"`
	UpdatedBy       *uuid.UUID      `json:"updated_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`
}

// Validate performs domain validation on the inventory item
func (i *InventoryItem) Validate() error {
	if strings.TrimSpace(i.SKU) == "" {
		return NewValidationError("sku", "is required")
	}
	if strings.TrimSpace(i.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if i.Quantity < 0 {
		return NewValidationError("quantity", "cannot be negative")
	}
	if i.ReorderPoint < 0 {
		return NewValidationError("reorder_point", "cannot be negative")
	}
	if i.ReorderQuantity < 0 {
		return NewValidationError("reorder_quantity", "cannot be negative")
	}
	if i.UnitCost.IsNegative() {
		return NewValidationError("unit_cost", "cannot be negative")
	}
	if i.Category != "" && !i.Category.Valid() {
		return NewValidationError("category", fmt.Sprintf("unknown category %q", i.Category))
	}
	if i.Status != "" && !i.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", i.Status))
	}
	return nil
}

// Valid reports whether c is an accepted category value.
func (c ItemCategory) Valid() bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Valid reports whether s is an accepted stock status value.
func (s StockStatus) Valid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// RecomputeDerived recalculates total value and stock status from quantity,
// unit cost and reorder point. Runs on every write path. A discontinued item
// keeps its status until a write stops passing it explicitly; everything
// else is derived, never trusted from input.
func (i *InventoryItem) RecomputeDerived() {
	i.TotalValue = i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))

	if i.Status == StatusDiscontinued {
		return
	}
	switch {
	case i.Quantity == 0:
		i.Status = StatusOutOfStock
	case i.Quantity <= i.ReorderPoint:
		i.Status = StatusLowStock
	default:
		i.Status = StatusInStock
	}
}

// AppendAdjustmentNote records a manual quantity adjustment in the item's
// free-text audit trail.
func (i *InventoryItem) AppendAdjustmentNote(delta int, reason, actor string, at time.Time) {
	entry := fmt.Sprintf("[%s] Adjustment: %+d units. Reason: %s. By: %s",
		at.Format(time.RFC3339), delta, reason, actor)
	if i.Notes == "" {
		i.Notes = entry
		return
	}
	i.Notes = i.Notes + "\n" + entry
}

// PrepareForStorage normalizes and defaults the item for persistence
func (i *InventoryItem) PrepareForStorage() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}

	i.SKU = strings.ToUpper(strings.TrimSpace(i.SKU))
	i.Name = strings.TrimSpace(i.Name)

	if i.Category == "" {
		i.Category = CategoryOther
	}
	if i.Unit == "" {
		i.Unit = "units"
	}
	if i.Warehouse.Location == "" {
		i.Warehouse.Location = "Main Warehouse"
	}

	i.RecomputeDerived()

	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}

// NeedsReorder reports whether the item is at or below its reorder point.
func (i *InventoryItem) NeedsReorder() bool {
	return i.Status != StatusDiscontinued && i.Quantity <= i.ReorderPoint
}

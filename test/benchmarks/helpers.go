// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// benchmarkItem builds an inventory item with a unique SKU for write
// benchmarks.
func benchmarkItem(n int) *domain.InventoryItem {
	item := &domain.InventoryItem{
		ID:              uuid.New(),
		SKU:             fmt.Sprintf("BENCH-%06d", n),
		Name:            fmt.Sprintf("Benchmark Item %d", n),
		Category:        domain.CategoryComponents,
		Quantity:        50 + n%200,
		Unit:            "units",
		ReorderPoint:    20,
		ReorderQuantity: 100,
		UnitCost:        decimal.NewFromFloat(4.25),
		Warehouse:       domain.Warehouse{Location: "Main Warehouse", Zone: "A"},
	}
	item.PrepareForStorage()
	return item
}

// benchmarkOrder builds a sales order referencing the given items.
func benchmarkOrder(n int, items ...*domain.InventoryItem) *domain.Order {
	order := &domain.Order{
		ID:       uuid.New(),
		Type:     domain.OrderTypeSales,
		Customer: domain.Customer{Name: fmt.Sprintf("Customer %d", n)},
		Pricing:  domain.Pricing{Currency: "USD"},
		Priority: domain.PriorityMedium,
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem{
			InventoryID: item.ID,
			SKU:         item.SKU,
			Name:        item.Name,
			Quantity:    2,
			UnitPrice:   decimal.NewFromFloat(9.99),
		})
	}
	order.RecomputePricing()
	return order
}

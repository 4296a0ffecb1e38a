package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chainflow/chainflow-be/internal/adapters/db"
	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/test/helpers"
)

func BenchmarkInventoryRepository(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping database benchmarks in short mode")
	}

	testDB := helpers.SetupTestDB(&testing.T{})
	defer testDB.Database.Close()

	repo := db.NewInventoryRepository(testDB.Database, helpers.TestLogger())
	ctx := context.Background()

	b.Run("Save", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = repo.Save(ctx, benchmarkItem(i))
		}
	})

	// Pre-create items for read benchmarks
	var itemIDs []uuid.UUID
	for i := 0; i < 100; i++ {
		item := benchmarkItem(1_000_000 + i)
		if err := repo.Save(ctx, item); err == nil {
			itemIDs = append(itemIDs, item.ID)
		}
	}

	b.Run("FindByID", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = repo.FindByID(ctx, itemIDs[i%len(itemIDs)])
		}
	})

	b.Run("List", func(b *testing.B) {
		params := ports.InventoryListParams{Page: 1, PageSize: 50}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = repo.FindAll(ctx, params)
		}
	})

	b.Run("Search", func(b *testing.B) {
		params := ports.InventoryListParams{Search: "Benchmark", Page: 1, PageSize: 50}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = repo.FindAll(ctx, params)
		}
	})

	b.Run("LowStock", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = repo.FindLowStock(ctx)
		}
	})
}

func BenchmarkStatusDerivation(b *testing.B) {
	item := benchmarkItem(0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		item.Quantity = i % 300
		item.RecomputeDerived()
	}
}

func BenchmarkOrderPricing(b *testing.B) {
	items := make([]*domain.InventoryItem, 20)
	for i := range items {
		items[i] = benchmarkItem(i)
	}
	order := benchmarkOrder(0, items...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		order.RecomputePricing()
	}
}

func BenchmarkMemoryAllocation(b *testing.B) {
	b.Run("InventoryItem", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = &domain.InventoryItem{
				ID:       uuid.New(),
				SKU:      fmt.Sprintf("ALLOC-%d", i),
				Name:     "Alloc Item",
				Quantity: 1,
				UnitCost: decimal.NewFromFloat(4.25),
			}
		}
	})

	b.Run("ListResult", func(b *testing.B) {
		items := make([]*domain.InventoryItem, 100)
		for i := range items {
			items[i] = benchmarkItem(i)
		}

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = &ports.InventoryListResult{
				Items:      items,
				Page:       1,
				PageSize:   50,
				TotalCount: 100,
				TotalPages: 2,
			}
		}
	})
}

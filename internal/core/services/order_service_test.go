// internal/core/services/order_service_test.go
package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/core/services"
	"github.com/chainflow/chainflow-be/test/helpers"
	"github.com/chainflow/chainflow-be/test/mocks"
)

func newOrderService(t *testing.T, ctrl *gomock.Controller) (*services.OrderService, *mocks.MockOrderRepository, *mocks.MockInventoryRepository, *mocks.MockTxRunner) {
	t.Helper()

	orderRepo := mocks.NewMockOrderRepository(ctrl)
	invRepo := mocks.NewMockInventoryRepository(ctrl)
	txRunner := mocks.NewMockTxRunner(ctrl)

	svc := services.NewOrderService(orderRepo, invRepo, txRunner, helpers.TestLogger())
	return svc, orderRepo, invRepo, txRunner
}

func TestOrderService_CreateOrder_SalesDecrementsStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, orderRepo, invRepo, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) {
		i.Quantity = 100
	})
	order := helpers.CreateTestOrder(domain.OrderTypeSales, item)
	order.Items[0].Quantity = 30
	// stale snapshot values must be replaced from the locked row
	order.Items[0].SKU = "WRONG-SKU"
	order.Items[0].Name = "Wrong Name"

	invRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), item.ID).
		Return(item, nil)
	orderRepo.EXPECT().
		NextOrderNumberTx(gomock.Any(), gomock.Any(), domain.OrderTypeSales).
		Return("SO-000042", nil)
	orderRepo.EXPECT().
		SaveTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	var stocked *domain.InventoryItem
	invRepo.EXPECT().
		UpdateStockTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ any, i *domain.InventoryItem) error {
			stocked = i
			return nil
		})

	created, err := svc.CreateOrder(context.Background(), order, testActor())
	require.NoError(t, err)

	assert.Equal(t, "SO-000042", created.OrderNumber)
	assert.Equal(t, item.SKU, created.Items[0].SKU)
	assert.Equal(t, item.Name, created.Items[0].Name)
	require.NotNil(t, stocked)
	assert.Equal(t, 70, stocked.Quantity)
	require.Len(t, created.History, 1)
	assert.Equal(t, "created", created.History[0].Action)
}

func TestOrderService_CreateOrder_InsufficientStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, invRepo, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) {
		i.Quantity = 5
	})
	order := helpers.CreateTestOrder(domain.OrderTypeSales, item)
	order.Items[0].Quantity = 10

	invRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), item.ID).
		Return(item, nil)

	_, err := svc.CreateOrder(context.Background(), order, nil)
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, item.Name, stockErr.ItemName)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 10, stockErr.Requested)

	// nothing was persisted; the in-memory row is untouched
	assert.Equal(t, 5, item.Quantity)
}

func TestOrderService_CreateOrder_PurchaseDoesNotTouchStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, orderRepo, invRepo, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) {
		i.Quantity = 2 // below the requested quantity, fine for a purchase
	})
	supplierID := uuid.New()
	order := helpers.CreateTestOrder(domain.OrderTypePurchase, item)
	order.SupplierID = &supplierID
	order.Items[0].Quantity = 500

	invRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), item.ID).
		Return(item, nil)
	orderRepo.EXPECT().
		NextOrderNumberTx(gomock.Any(), gomock.Any(), domain.OrderTypePurchase).
		Return("PO-000007", nil)
	orderRepo.EXPECT().
		SaveTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	// no UpdateStockTx expectation: purchase orders never move stock

	created, err := svc.CreateOrder(context.Background(), order, nil)
	require.NoError(t, err)
	assert.Equal(t, "PO-000007", created.OrderNumber)
	assert.Equal(t, 2, item.Quantity)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*domain.Order)
		errorContains string
	}{
		{
			name:          "no_items",
			mutate:        func(o *domain.Order) { o.Items = nil },
			errorContains: "at least one item",
		},
		{
			name:          "purchase_without_supplier",
			mutate:        func(o *domain.Order) { o.Type = domain.OrderTypePurchase },
			errorContains: "supplier_id",
		},
		{
			name:          "zero_quantity_line",
			mutate:        func(o *domain.Order) { o.Items[0].Quantity = 0 },
			errorContains: "quantity must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, _, _, _ := newOrderService(t, ctrl)

			item := helpers.CreateTestInventoryItem()
			order := helpers.CreateTestOrder(domain.OrderTypeSales, item)
			tt.mutate(order)

			_, err := svc.CreateOrder(context.Background(), order, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestOrderService_CreateOrder_RecomputesPricing(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, orderRepo, invRepo, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem()
	supplierID := uuid.New()
	order := helpers.CreateTestOrder(domain.OrderTypePurchase, item)
	order.SupplierID = &supplierID
	order.Items[0].Quantity = 4
	// forged totals must be overwritten by the recompute
	order.Pricing.Subtotal = decimal.RequireFromString("0.01")
	order.Pricing.Total = decimal.RequireFromString("0.01")

	invRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), item.ID).
		Return(item, nil)
	orderRepo.EXPECT().
		NextOrderNumberTx(gomock.Any(), gomock.Any(), domain.OrderTypePurchase).
		Return("PO-000001", nil)
	orderRepo.EXPECT().
		SaveTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	created, err := svc.CreateOrder(context.Background(), order, nil)
	require.NoError(t, err)

	want := item.UnitCost.Mul(decimal.NewFromInt(4))
	assert.True(t, created.Pricing.Subtotal.Equal(want),
		"subtotal %s, want %s", created.Pricing.Subtotal, want)
	assert.True(t, created.Pricing.Total.Equal(want))
	assert.Equal(t, "USD", created.Pricing.Currency)
}

func TestOrderService_UpdateStatus_CancelRestoresStockOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, orderRepo, invRepo, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) {
		i.Quantity = 70 // 30 already consumed by the order
	})
	order := helpers.CreateTestOrder(domain.OrderTypeSales, item)
	order.Items[0].Quantity = 30
	order.Status = domain.OrderStatusConfirmed

	orderRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), order.ID).
		Return(order, nil).
		Times(2)
	invRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), item.ID).
		Return(item, nil)
	invRepo.EXPECT().
		UpdateStockTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	orderRepo.EXPECT().
		UpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		Times(2)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusCancelled, "Customer request", testActor())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 100, item.Quantity)

	// cancelling again must not restore a second time: no further
	// inventory expectations are registered
	_, err = svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusCancelled, "Duplicate request", nil)
	require.NoError(t, err)
	assert.Equal(t, 100, item.Quantity)
}

func TestOrderService_UpdateStatus_CancelPurchaseLeavesStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, orderRepo, _, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem()
	supplierID := uuid.New()
	order := helpers.CreateTestOrder(domain.OrderTypePurchase, item)
	order.SupplierID = &supplierID

	orderRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), order.ID).
		Return(order, nil)
	orderRepo.EXPECT().
		UpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	_, err := svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusCancelled, "", nil)
	require.NoError(t, err)
}

func TestOrderService_UpdateStatus_UnknownStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, _, _ := newOrderService(t, ctrl)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), domain.OrderStatus("teleported"), "", nil)
	require.Error(t, err)

	var valErr *domain.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestOrderService_UpdateOrder_TerminalOrderRejected(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, orderRepo, _, txRunner := newOrderService(t, ctrl)
			passthroughTx(txRunner)

			item := helpers.CreateTestInventoryItem()
			order := helpers.CreateTestOrder(domain.OrderTypeSales, item)
			order.Status = status

			orderRepo.EXPECT().
				FindByIDForUpdate(gomock.Any(), gomock.Any(), order.ID).
				Return(order, nil)

			notes := "too late"
			_, err := svc.UpdateOrder(context.Background(), order.ID, ports.OrderPatch{Notes: &notes}, nil)
			require.Error(t, err)

			var conflict *domain.ConflictError
			assert.ErrorAs(t, err, &conflict)
		})
	}
}

func TestOrderService_UpdateOrder_AppliesPatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, orderRepo, _, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem()
	order := helpers.CreateTestOrder(domain.OrderTypeSales, item)

	orderRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), order.ID).
		Return(order, nil)
	orderRepo.EXPECT().
		UpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	priority := domain.PriorityUrgent
	notes := "Expedite this one"
	updated, err := svc.UpdateOrder(context.Background(), order.ID, ports.OrderPatch{
		Priority: &priority,
		Notes:    &notes,
		Tags:     []string{"rush"},
	}, testActor())
	require.NoError(t, err)

	assert.Equal(t, domain.PriorityUrgent, updated.Priority)
	assert.Equal(t, "Expedite this one", updated.Notes)
	assert.Equal(t, []string{"rush"}, updated.Tags)
	require.NotEmpty(t, updated.History)
	assert.Equal(t, "updated", updated.History[len(updated.History)-1].Action)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	t.Run("delivered_order_is_immutable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, orderRepo, _, txRunner := newOrderService(t, ctrl)
		passthroughTx(txRunner)

		item := helpers.CreateTestInventoryItem()
		order := helpers.CreateTestOrder(domain.OrderTypeSales, item)
		order.Status = domain.OrderStatusDelivered

		orderRepo.EXPECT().
			FindByIDForUpdate(gomock.Any(), gomock.Any(), order.ID).
			Return(order, nil)

		err := svc.DeleteOrder(context.Background(), order.ID, nil)
		require.Error(t, err)

		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("pending_sales_order_restores_stock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, orderRepo, invRepo, txRunner := newOrderService(t, ctrl)
		passthroughTx(txRunner)

		item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) {
			i.Quantity = 90
		})
		order := helpers.CreateTestOrder(domain.OrderTypeSales, item)
		order.Items[0].Quantity = 10

		orderRepo.EXPECT().
			FindByIDForUpdate(gomock.Any(), gomock.Any(), order.ID).
			Return(order, nil)
		invRepo.EXPECT().
			FindByIDForUpdate(gomock.Any(), gomock.Any(), item.ID).
			Return(item, nil)
		invRepo.EXPECT().
			UpdateStockTx(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)
		orderRepo.EXPECT().
			DeleteTx(gomock.Any(), gomock.Any(), order.ID).
			Return(nil)

		err := svc.DeleteOrder(context.Background(), order.ID, testActor())
		require.NoError(t, err)
		assert.Equal(t, 100, item.Quantity)
	})

	t.Run("cancelled_sales_order_is_not_restored_again", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, orderRepo, _, txRunner := newOrderService(t, ctrl)
		passthroughTx(txRunner)

		item := helpers.CreateTestInventoryItem()
		order := helpers.CreateTestOrder(domain.OrderTypeSales, item)
		order.Status = domain.OrderStatusCancelled

		orderRepo.EXPECT().
			FindByIDForUpdate(gomock.Any(), gomock.Any(), order.ID).
			Return(order, nil)
		orderRepo.EXPECT().
			DeleteTx(gomock.Any(), gomock.Any(), order.ID).
			Return(nil)

		err := svc.DeleteOrder(context.Background(), order.ID, nil)
		require.NoError(t, err)
	})
}

func TestOrderService_CreateOrder_DuplicateLinesLockOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, orderRepo, invRepo, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) {
		i.Quantity = 100
	})
	order := helpers.CreateTestOrder(domain.OrderTypeSales, item, item)
	order.Items[0].Quantity = 10
	order.Items[1].Quantity = 20

	invRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), item.ID).
		Return(item, nil).
		Times(1)
	orderRepo.EXPECT().
		NextOrderNumberTx(gomock.Any(), gomock.Any(), domain.OrderTypeSales).
		Return("SO-000100", nil)
	orderRepo.EXPECT().
		SaveTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	invRepo.EXPECT().
		UpdateStockTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		Times(1)

	_, err := svc.CreateOrder(context.Background(), order, nil)
	require.NoError(t, err)
	assert.Equal(t, 70, item.Quantity)
}

func TestOrderService_CreateOrder_DuplicateLinesAggregateStockCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, invRepo, txRunner := newOrderService(t, ctrl)
	passthroughTx(txRunner)

	item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) {
		i.Quantity = 25
	})
	order := helpers.CreateTestOrder(domain.OrderTypeSales, item, item)
	order.Items[0].Quantity = 15
	order.Items[1].Quantity = 15

	invRepo.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), item.ID).
		Return(item, nil)

	_, err := svc.CreateOrder(context.Background(), order, nil)
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 25, stockErr.Available)
	assert.Equal(t, 30, stockErr.Requested)
	assert.Equal(t, 25, item.Quantity)
}

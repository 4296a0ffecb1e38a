package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

func TestOrder_Validate(t *testing.T) {
	supplierID := uuid.New()
	line := domain.OrderItem{
		InventoryID: uuid.New(),
		Quantity:    2,
		UnitPrice:   decimal.NewFromFloat(10),
	}

	tests := []struct {
		name      string
		order     *domain.Order
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid_sales_order",
			order: &domain.Order{
				Type:  domain.OrderTypeSales,
				Items: []domain.OrderItem{line},
			},
			wantError: false,
		},
		{
			name: "valid_purchase_order",
			order: &domain.Order{
				Type:       domain.OrderTypePurchase,
				SupplierID: &supplierID,
				Items:      []domain.OrderItem{line},
			},
			wantError: false,
		},
		{
			name: "unknown_type",
			order: &domain.Order{
				Type:  "lease",
				Items: []domain.OrderItem{line},
			},
			wantError: true,
			errorMsg:  "unknown order type",
		},
		{
			name: "purchase_requires_supplier",
			order: &domain.Order{
				Type:  domain.OrderTypePurchase,
				Items: []domain.OrderItem{line},
			},
			wantError: true,
			errorMsg:  "supplier_id: is required for purchase orders",
		},
		{
			name: "empty_items",
			order: &domain.Order{
				Type: domain.OrderTypeSales,
			},
			wantError: true,
			errorMsg:  "at least one item",
		},
		{
			name: "zero_line_quantity",
			order: &domain.Order{
				Type: domain.OrderTypeSales,
				Items: []domain.OrderItem{{
					InventoryID: uuid.New(),
					Quantity:    0,
					UnitPrice:   decimal.NewFromFloat(10),
				}},
			},
			wantError: true,
			errorMsg:  "quantity must be at least 1",
		},
		{
			name: "negative_unit_price",
			order: &domain.Order{
				Type: domain.OrderTypeSales,
				Items: []domain.OrderItem{{
					InventoryID: uuid.New(),
					Quantity:    1,
					UnitPrice:   decimal.NewFromFloat(-1),
				}},
			},
			wantError: true,
			errorMsg:  "unit_price cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()

			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestOrder_RecomputePricing(t *testing.T) {
	t.Run("subtotal_tax_shipping_discount", func(t *testing.T) {
		// Two lines at 2x25 and 3x20 give a 110 subtotal; tax 10 and
		// shipping 5 minus a 9 discount lands on 116.
		order := &domain.Order{
			Items: []domain.OrderItem{
				{InventoryID: uuid.New(), Quantity: 2, UnitPrice: decimal.NewFromInt(25)},
				{InventoryID: uuid.New(), Quantity: 3, UnitPrice: decimal.NewFromInt(20)},
			},
			Pricing: domain.Pricing{
				Tax:      decimal.NewFromInt(10),
				Shipping: decimal.NewFromInt(5),
				Discount: decimal.NewFromInt(9),
			},
		}

		order.RecomputePricing()

		assert.True(t, order.Items[0].TotalPrice.Equal(decimal.NewFromInt(50)))
		assert.True(t, order.Items[1].TotalPrice.Equal(decimal.NewFromInt(60)))
		assert.True(t, order.Pricing.Subtotal.Equal(decimal.NewFromInt(110)),
			"Expected subtotal 110, Got: %s", order.Pricing.Subtotal)
		assert.True(t, order.Pricing.Total.Equal(decimal.NewFromInt(116)),
			"Expected total 116, Got: %s", order.Pricing.Total)
		assert.Equal(t, "USD", order.Pricing.Currency)
	})

	t.Run("derived_fields_not_trusted_from_input", func(t *testing.T) {
		order := &domain.Order{
			Items: []domain.OrderItem{
				{InventoryID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(10),
					TotalPrice: decimal.NewFromInt(9999)},
			},
			Pricing: domain.Pricing{
				Subtotal: decimal.NewFromInt(9999),
				Total:    decimal.NewFromInt(9999),
			},
		}

		order.RecomputePricing()

		assert.True(t, order.Items[0].TotalPrice.Equal(decimal.NewFromInt(10)))
		assert.True(t, order.Pricing.Subtotal.Equal(decimal.NewFromInt(10)))
		assert.True(t, order.Pricing.Total.Equal(decimal.NewFromInt(10)))
	})

	t.Run("preserves_currency", func(t *testing.T) {
		order := &domain.Order{
			Items:   []domain.OrderItem{{InventoryID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
			Pricing: domain.Pricing{Currency: "EUR"},
		}

		order.RecomputePricing()

		assert.Equal(t, "EUR", order.Pricing.Currency)
	})
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "PO-000001", domain.FormatOrderNumber(domain.OrderTypePurchase, 1))
	assert.Equal(t, "SO-000042", domain.FormatOrderNumber(domain.OrderTypeSales, 42))
	assert.Equal(t, "TO-123456", domain.FormatOrderNumber(domain.OrderTypeTransfer, 123456))
}

func TestOrder_ApplyStatusChange(t *testing.T) {
	userID := uuid.New()

	t.Run("records_history", func(t *testing.T) {
		order := &domain.Order{Status: domain.OrderStatusPending}

		order.ApplyStatusChange(domain.OrderStatusConfirmed, "", &userID)

		require.Len(t, order.History, 1)
		assert.Equal(t, "status_change", order.History[0].Action)
		assert.Equal(t, "Status changed from pending to confirmed", order.History[0].Description)
		assert.Equal(t, &userID, order.History[0].UserID)
	})

	t.Run("note_is_appended_to_description", func(t *testing.T) {
		order := &domain.Order{Status: domain.OrderStatusPending}

		order.ApplyStatusChange(domain.OrderStatusCancelled, "customer request", nil)

		require.Len(t, order.History, 1)
		assert.Equal(t,
			"Status changed from pending to cancelled. Note: customer request",
			order.History[0].Description)
	})

	t.Run("shipped_stamps_shipped_date", func(t *testing.T) {
		order := &domain.Order{Status: domain.OrderStatusProcessing}

		order.ApplyStatusChange(domain.OrderStatusShipped, "", nil)

		require.NotNil(t, order.Shipping.ShippedDate)
		assert.Nil(t, order.Shipping.ActualDelivery)
	})

	t.Run("delivered_stamps_delivery_and_completion", func(t *testing.T) {
		order := &domain.Order{Status: domain.OrderStatusShipped}

		order.ApplyStatusChange(domain.OrderStatusDelivered, "", nil)

		require.NotNil(t, order.Shipping.ActualDelivery)
		require.NotNil(t, order.Dates.CompletedDate)
	})
}

func TestOrder_PrepareForStorage(t *testing.T) {
	order := &domain.Order{
		Type: domain.OrderTypeSales,
		Items: []domain.OrderItem{
			{InventoryID: uuid.New(), Quantity: 2, UnitPrice: decimal.NewFromInt(5)},
		},
	}

	order.PrepareForStorage()

	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PriorityMedium, order.Priority)
	assert.Equal(t, domain.PaymentPending, order.Payment.Status)
	assert.False(t, order.Dates.OrderDate.IsZero())
	assert.True(t, order.Pricing.Total.Equal(decimal.NewFromInt(10)))
}

func TestOrder_IsTerminal(t *testing.T) {
	assert.True(t, (&domain.Order{Status: domain.OrderStatusDelivered}).IsTerminal())
	assert.True(t, (&domain.Order{Status: domain.OrderStatusCancelled}).IsTerminal())
	assert.False(t, (&domain.Order{Status: domain.OrderStatusShipped}).IsTerminal())
}

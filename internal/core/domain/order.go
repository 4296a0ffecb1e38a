// internal/core/domain/order.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType represents the kind of order
type OrderType string

// Order type constants
const (
	OrderTypePurchase OrderType = "purchase"
	OrderTypeSales    OrderType = "sales"
	OrderTypeTransfer OrderType = "transfer"
)

// Valid reports whether t is an accepted order type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypePurchase, OrderTypeSales, OrderTypeTransfer:
		return true
	}
	return false
}

// Prefix returns the order number prefix for this type.
func (t OrderType) Prefix() string {
	switch t {
	case OrderTypePurchase:
		return "PO"
	case OrderTypeSales:
		return "SO"
	case OrderTypeTransfer:
		return "TO"
	}
	return "OR"
}

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

// Order status constants
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

// Valid reports whether s is an accepted order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusReturned:
		return true
	}
	return false
}

// OrderPriority represents processing priority
type OrderPriority string

// Priority constants
const (
	PriorityLow    OrderPriority = "low"
	PriorityMedium OrderPriority = "medium"
	PriorityHigh   OrderPriority = "high"
	PriorityUrgent OrderPriority = "urgent"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

// Payment status constants
const (
	PaymentPending        PaymentStatus = "pending"
	PaymentPartial        PaymentStatus = "partial"
	PaymentPaid           PaymentStatus = "paid"
	PaymentRefunded       PaymentStatus = "refunded"
	PaymentPaymentOverdue PaymentStatus = "overdue"
)

// PaymentMethod represents how an order is paid
type PaymentMethod string

// Payment method constants
const (
	MethodCash         PaymentMethod = "cash"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheck        PaymentMethod = "check"
	MethodCredit       PaymentMethod = "credit"
)

// ShippingMethod represents the delivery method
type ShippingMethod string

// Shipping method constants
const (
	ShipStandard  ShippingMethod = "standard"
	ShipExpress   ShippingMethod = "express"
	ShipOvernight ShippingMethod = "overnight"
	ShipPickup    ShippingMethod = "pickup"
)

// OrderItem is a single line on an order. SKU and Name are snapshots taken
// from the inventory item at creation time.
type OrderItem struct {
	InventoryID uuid.UUID       `json:"inventory_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
}

// Customer holds counterparty details for sales orders.
type Customer struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// Pricing aggregates order-level money fields.
type Pricing struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// Payment holds payment terms and state.
type Payment struct {
	Status        PaymentStatus `json:"status"`
	Method        PaymentMethod `json:"method,omitempty"`
	Terms         string        `json:"terms,omitempty"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	PaidDate      *time.Time    `json:"paid_date,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
}

// Address is a postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// Shipping holds delivery details and tracking state.
type Shipping struct {
	Address           Address        `json:"address"`
	Carrier           string         `json:"carrier,omitempty"`
	TrackingNumber    string         `json:"tracking_number,omitempty"`
	Method            ShippingMethod `json:"method,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time     `json:"actual_delivery,omitempty"`
	ShippedDate       *time.Time     `json:"shipped_date,omitempty"`
}

// OrderDates groups the scheduling timestamps of an order.
type OrderDates struct {
	OrderDate     time.Time  `json:"order_date"`
	RequiredDate  *time.Time `json:"required_date,omitempty"`
	PromisedDate  *time.Time `json:"promised_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

// HistoryEntry is one append-only audit record on an order.
type HistoryEntry struct {
	Action      string     `json:"action"`
	Description string     `json:"description"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Order represents a purchase, sales or transfer order
type Order struct {
	ID            uuid.UUID      `json:"id"`
	OrderNumber   string         `json:"order_number"`
	Type          OrderType      `json:"type"`
	SupplierID    *uuid.UUID     `json:"supplier_id,omitempty"`
	Customer      Customer       `json:"customer"`
	Items         []OrderItem    `json:"items"`
	Pricing       Pricing        `json:"pricing"`
	Status        OrderStatus    `json:"status"`
	Payment       Payment        `json:"payment"`
	Shipping      Shipping       `json:"shipping"`
	Dates         OrderDates     `json:"dates"`
	Priority      OrderPriority  `json:"priority"`
	Notes         string         `json:"notes,omitempty"`
	InternalNotes string         `json:"internal_notes,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	History       []HistoryEntry `json:"history"`
	CreatedBy     *uuid.UUID     `json:"created_by,omitempty"`
	UpdatedBy     *uuid.UUID     `json:"updated_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// FormatOrderNumber renders a sequence value as an order number for the
// given type, e.g. SO-000042.
func FormatOrderNumber(t OrderType, seq int64) string {
	return fmt.Sprintf("%s-%06d", t.Prefix(), seq)
}

// Validate performs domain validation on the order
func (o *Order) Validate() error {
	if !o.Type.Valid() {
		return NewValidationError("type", fmt.Sprintf("unknown order type %q", o.Type))
	}
	if o.Type == OrderTypePurchase && o.SupplierID == nil {
		return NewValidationError("supplier_id", "is required for purchase orders")
	}
	if len(o.Items) == 0 {
		return NewValidationError("items", "order must contain at least one item")
	}
	for idx := range o.Items {
		it := &o.Items[idx]
		if it.InventoryID == uuid.Nil {
			return NewValidationError("items", fmt.Sprintf("line %d: inventory_id is required", idx))
		}
		if it.Quantity < 1 {
			return NewValidationError("items", fmt.Sprintf("line %d: quantity must be at least 1", idx))
		}
		if it.UnitPrice.IsNegative() {
			return NewValidationError("items", fmt.Sprintf("line %d: unit_price cannot be negative", idx))
		}
	}
	if o.Status != "" && !o.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", o.Status))
	}
	return nil
}

// RecomputePricing recalculates line totals and order totals. Runs at every
// persist; none of the derived money fields are trusted from input.
func (o *Order) RecomputePricing() {
	subtotal := decimal.Zero
	for idx := range o.Items {
		it := &o.Items[idx]
		it.TotalPrice = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(it.TotalPrice)
	}
	o.Pricing.Subtotal = subtotal
	o.Pricing.Total = subtotal.
		Add(o.Pricing.Tax).
		Add(o.Pricing.Shipping).
		Sub(o.Pricing.Discount)
	if o.Pricing.Currency == "" {
		o.Pricing.Currency = "USD"
	}
}

// AppendHistory adds an audit record to the order. History is append-only.
func (o *Order) AppendHistory(action, description string, userID *uuid.UUID) {
	o.History = append(o.History, HistoryEntry{
		Action:      action,
		Description: description,
		UserID:      userID,
		Timestamp:   time.Now(),
	})
}

// ApplyStatusChange moves the order to newStatus, stamping the side-effect
// dates and recording the transition in history. The caller handles the
// inventory consequences (restore on cancellation).
func (o *Order) ApplyStatusChange(newStatus OrderStatus, note string, userID *uuid.UUID) {
	old := o.Status
	o.Status = newStatus

	now := time.Now()
	switch newStatus {
	case OrderStatusShipped:
		o.Shipping.ShippedDate = &now
	case OrderStatusDelivered:
		o.Shipping.ActualDelivery = &now
		o.Dates.CompletedDate = &now
	}

	desc := fmt.Sprintf("Status changed from %s to %s", old, newStatus)
	if strings.TrimSpace(note) != "" {
		desc += ". Note: " + note
	}
	o.AppendHistory("status_change", desc, userID)
	o.UpdatedAt = now
}

// PrepareForStorage normalizes and defaults the order for persistence
func (o *Order) PrepareForStorage() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.Priority == "" {
		o.Priority = PriorityMedium
	}
	if o.Payment.Status == "" {
		o.Payment.Status = PaymentPending
	}
	if o.Dates.OrderDate.IsZero() {
		o.Dates.OrderDate = time.Now()
	}

	o.RecomputePricing()

	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

// IsTerminal reports whether the order can no longer be edited.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

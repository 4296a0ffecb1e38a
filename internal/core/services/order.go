// internal/core/services/order.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
)

// OrderService coordinates the order lifecycle. Every operation that reads
// inventory and then writes it runs inside one transaction with the affected
// inventory rows locked, so stock can never drift under concurrent orders.
type OrderService struct {
	orderRepo ports.OrderRepository
	invRepo   ports.InventoryRepository
	db        TxRunner
	logger    *slog.Logger
}

// Statically assert that *OrderService implements the OrderService interface.
var _ ports.OrderService = (*OrderService)(nil)

// NewOrderService creates a new order service
func NewOrderService(orderRepo ports.OrderRepository, invRepo ports.InventoryRepository, db TxRunner, logger *slog.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		invRepo:   invRepo,
		db:        db,
		logger:    logger.With(slog.String("service", "orders")),
	}
}

// CreateOrder validates the order, snapshots item details, allocates an
// order number and, for sales orders, decrements stock. All of it commits
// or none of it does.
func (s *OrderService) CreateOrder(ctx context.Context, order *domain.Order, actor *ports.Actor) (*domain.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	if actor != nil {
		order.CreatedBy = &actor.ID
		order.UpdatedBy = &actor.ID
	}
	order.PrepareForStorage()

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		items, err := s.lockOrderItems(ctx, tx, order)
		if err != nil {
			return err
		}

		// Availability is checked against the running total per item, so
		// the same item split across lines cannot oversell.
		requested := make(map[uuid.UUID]int, len(order.Items))
		for idx := range order.Items {
			line := &order.Items[idx]
			item := items[line.InventoryID]
			requested[line.InventoryID] += line.Quantity

			if order.Type == domain.OrderTypeSales && item.Quantity < requested[line.InventoryID] {
				return &domain.InsufficientStockError{
					ItemName:  item.Name,
					Available: item.Quantity,
					Requested: requested[line.InventoryID],
				}
			}

			line.SKU = item.SKU
			line.Name = item.Name
		}

		order.RecomputePricing()

		number, err := s.orderRepo.NextOrderNumberTx(ctx, tx, order.Type)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		var userID *uuid.UUID
		if actor != nil {
			userID = &actor.ID
		}
		order.AppendHistory("created", "Order created", userID)

		if err := s.orderRepo.SaveTx(ctx, tx, order); err != nil {
			return err
		}

		if order.Type == domain.OrderTypeSales {
			return s.applyStockDeltas(ctx, tx, order, items, -1, actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("id", order.ID.String()),
		slog.String("order_number", order.OrderNumber),
		slog.String("type", string(order.Type)),
		slog.String("total", order.Pricing.Total.String()))

	return order, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, params ports.OrderListParams) (*ports.OrderListResult, error) {
	result, err := s.orderRepo.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return result, nil
}

// UpdateOrder applies a partial edit to a non-terminal order
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, patch ports.OrderPatch, actor *ports.Actor) (*domain.Order, error) {
	var updated *domain.Order
	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if order.IsTerminal() {
			return domain.NewConflictError("cannot update %s order %s", order.Status, order.OrderNumber)
		}

		applyOrderPatch(order, patch)
		order.RecomputePricing()

		var userID *uuid.UUID
		if actor != nil {
			userID = &actor.ID
			order.UpdatedBy = &actor.ID
		}
		order.AppendHistory("updated", "Order updated", userID)

		if err := s.orderRepo.UpdateTx(ctx, tx, order); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order updated", slog.String("id", id.String()))
	return updated, nil
}

// UpdateStatus moves an order through its lifecycle. Cancelling a sales
// order restores the stock it consumed; an order already cancelled is never
// restored twice.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus domain.OrderStatus, note string, actor *ports.Actor) (*domain.Order, error) {
	if !newStatus.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", newStatus))
	}

	var updated *domain.Order
	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		restoreStock := newStatus == domain.OrderStatusCancelled &&
			order.Type == domain.OrderTypeSales &&
			order.Status != domain.OrderStatusCancelled

		var userID *uuid.UUID
		if actor != nil {
			userID = &actor.ID
			order.UpdatedBy = &actor.ID
		}
		order.ApplyStatusChange(newStatus, note, userID)

		if restoreStock {
			items, err := s.lockOrderItems(ctx, tx, order)
			if err != nil {
				return err
			}
			if err := s.applyStockDeltas(ctx, tx, order, items, +1, actor); err != nil {
				return err
			}
		}

		if err := s.orderRepo.UpdateTx(ctx, tx, order); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("id", id.String()),
		slog.String("status", string(newStatus)))

	return updated, nil
}

// DeleteOrder removes an order. Delivered orders are immutable history and
// cannot be deleted; deleting a live sales order puts its stock back first.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID, actor *ports.Actor) error {
	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if order.Status == domain.OrderStatusDelivered {
			return domain.NewConflictError("cannot delete delivered order %s", order.OrderNumber)
		}

		if order.Type == domain.OrderTypeSales && order.Status != domain.OrderStatusCancelled {
			items, err := s.lockOrderItems(ctx, tx, order)
			if err != nil {
				return err
			}
			if err := s.applyStockDeltas(ctx, tx, order, items, +1, actor); err != nil {
				return err
			}
		}

		return s.orderRepo.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "order deleted", slog.String("id", id.String()))
	return nil
}

// Stats aggregates order metrics for dashboards
func (s *OrderService) Stats(ctx context.Context) (*ports.OrderStats, error) {
	return s.orderRepo.Stats(ctx)
}

// lockOrderItems locks and loads every inventory row the order references.
// Rows are locked in ID order so two concurrent orders over the same items
// cannot deadlock.
func (s *OrderService) lockOrderItems(ctx context.Context, tx pgx.Tx, order *domain.Order) (map[uuid.UUID]*domain.InventoryItem, error) {
	ids := make([]uuid.UUID, 0, len(order.Items))
	seen := make(map[uuid.UUID]bool, len(order.Items))
	for _, line := range order.Items {
		if !seen[line.InventoryID] {
			seen[line.InventoryID] = true
			ids = append(ids, line.InventoryID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	items := make(map[uuid.UUID]*domain.InventoryItem, len(ids))
	for _, id := range ids {
		item, err := s.invRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		items[id] = item
	}
	return items, nil
}

// applyStockDeltas adds sign*quantity of every order line to its inventory
// item and persists the re-derived state, inside tx.
func (s *OrderService) applyStockDeltas(ctx context.Context, tx pgx.Tx, order *domain.Order, items map[uuid.UUID]*domain.InventoryItem, sign int, actor *ports.Actor) error {
	now := time.Now()
	touched := make(map[uuid.UUID]bool, len(items))

	for _, line := range order.Items {
		item := items[line.InventoryID]
		item.Quantity += sign * line.Quantity
		if sign > 0 {
			item.LastRestocked = &now
		}
		if actor != nil {
			item.UpdatedBy = &actor.ID
		}
		touched[line.InventoryID] = true
	}

	for id := range touched {
		item := items[id]
		item.RecomputeDerived()
		if err := s.invRepo.UpdateStockTx(ctx, tx, item); err != nil {
			return err
		}
	}
	return nil
}

func applyOrderPatch(order *domain.Order, patch ports.OrderPatch) {
	if patch.Customer != nil {
		order.Customer = *patch.Customer
	}
	if patch.Payment != nil {
		order.Payment = *patch.Payment
	}
	if patch.Shipping != nil {
		order.Shipping = *patch.Shipping
	}
	if patch.Priority != nil {
		order.Priority = *patch.Priority
	}
	if patch.Notes != nil {
		order.Notes = *patch.Notes
	}
	if patch.InternalNotes != nil {
		order.InternalNotes = *patch.InternalNotes
	}
	if patch.Tags != nil {
		order.Tags = patch.Tags
	}
}

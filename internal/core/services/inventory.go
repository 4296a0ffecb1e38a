// internal/core/services/inventory.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
)

// TxRunner runs a function inside a single database transaction. Implemented
// by the database adapter.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// InventoryService handles inventory business logic
type InventoryService struct {
	repo      ports.InventoryRepository
	orderRepo ports.OrderRepository
	db        TxRunner
	tasks     ports.TaskEnqueuer
	logger    *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. tasks may be nil when
// no background worker is wired (tests, seeder).
func NewInventoryService(repo ports.InventoryRepository, orderRepo ports.OrderRepository, db TxRunner, tasks ports.TaskEnqueuer, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:      repo,
		orderRepo: orderRepo,
		db:        db,
		tasks:     tasks,
		logger:    logger.With(slog.String("service", "inventory")),
	}
}

// CreateItem validates, normalizes and persists a new inventory item
func (s *InventoryService) CreateItem(ctx context.Context, item *domain.InventoryItem, actor *ports.Actor) (*domain.InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if actor != nil {
		item.CreatedBy = &actor.ID
		item.UpdatedBy = &actor.ID
	}
	if item.Quantity > 0 && item.LastRestocked == nil {
		now := time.Now()
		item.LastRestocked = &now
	}

	item.PrepareForStorage()

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "inventory item created",
		slog.String("id", item.ID.String()),
		slog.String("sku", item.SKU),
		slog.String("status", string(item.Status)))

	s.maybeAlertLowStock(ctx, item)

	return item, nil
}

// UpdateItem validates and persists changes to an existing item. The caller
// supplies the full item state; total value is re-derived, and stock status
// is re-derived unless the caller marks the item discontinued.
func (s *InventoryService) UpdateItem(ctx context.Context, id uuid.UUID, item *domain.InventoryItem, actor *ports.Actor) (*domain.InventoryItem, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item.ID = id
	item.CreatedAt = existing.CreatedAt
	item.CreatedBy = existing.CreatedBy
	if actor != nil {
		item.UpdatedBy = &actor.ID
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	if item.Quantity > existing.Quantity {
		now := time.Now()
		item.LastRestocked = &now
	} else if item.LastRestocked == nil {
		item.LastRestocked = existing.LastRestocked
	}

	item.PrepareForStorage()

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "inventory item updated",
		slog.String("id", id.String()),
		slog.String("status", string(item.Status)))

	s.maybeAlertLowStock(ctx, item)

	return item, nil
}

// AdjustQuantity applies a manual stock delta under a row lock. The guard
// and the write happen in one transaction, so concurrent adjustments cannot
// drive quantity negative.
func (s *InventoryService) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int, reason string, actor *ports.Actor) (*domain.InventoryItem, error) {
	if delta == 0 {
		return nil, domain.NewValidationError("adjustment", "must be non-zero")
	}
	if reason == "" {
		return nil, domain.NewValidationError("reason", "is required")
	}

	var adjusted *domain.InventoryItem
	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		item, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if item.Quantity+delta < 0 {
			return domain.NewValidationError("adjustment",
				fmt.Sprintf("insufficient inventory: %d on hand, adjustment %d", item.Quantity, delta))
		}

		now := time.Now()
		item.Quantity += delta
		if delta > 0 {
			item.LastRestocked = &now
		}

		actorName := "system"
		if actor != nil {
			actorName = actor.Name
			item.UpdatedBy = &actor.ID
		}
		item.AppendAdjustmentNote(delta, reason, actorName, now)
		item.RecomputeDerived()

		if err := s.repo.UpdateStockTx(ctx, tx, item); err != nil {
			return err
		}

		adjusted = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "inventory adjusted",
		slog.String("id", id.String()),
		slog.Int("delta", delta),
		slog.String("reason", reason),
		slog.Int("quantity", adjusted.Quantity))

	s.maybeAlertLowStock(ctx, adjusted)

	return adjusted, nil
}

// GetByID retrieves an inventory item by ID
func (s *InventoryService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	return s.repo.FindByID(ctx, id)
}

// DeleteItem deletes an inventory item (soft delete by default). Items
// referenced by live orders cannot be deleted.
func (s *InventoryService) DeleteItem(ctx context.Context, id uuid.UUID, permanent bool) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check item existence: %w", err)
	}
	if !exists {
		return domain.NewNotFoundError("inventory item", id.String())
	}

	refs, err := s.orderRepo.CountByInventory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check order references: %w", err)
	}
	if refs > 0 {
		return domain.NewConflictError("inventory item is referenced by %d open order(s)", refs)
	}

	if permanent {
		err = s.repo.Delete(ctx, id)
	} else {
		err = s.repo.SoftDelete(ctx, id)
	}
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "inventory item deleted",
		slog.String("id", id.String()),
		slog.Bool("permanent", permanent))

	return nil
}

// List retrieves inventory items with filtering and pagination
func (s *InventoryService) List(ctx context.Context, params ports.InventoryListParams) (*ports.InventoryListResult, error) {
	result, err := s.repo.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	return result, nil
}

// LowStock lists items needing attention for the reorder alert view
func (s *InventoryService) LowStock(ctx context.Context) ([]*domain.InventoryItem, error) {
	items, err := s.repo.FindLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	return items, nil
}

// maybeAlertLowStock queues a reorder notification when a write leaves the
// item below its reorder point. Best effort: failures are logged, not
// returned.
func (s *InventoryService) maybeAlertLowStock(ctx context.Context, item *domain.InventoryItem) {
	if s.tasks == nil || !item.NeedsReorder() {
		return
	}
	if err := s.tasks.EnqueueLowStockAlert(ctx, item.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue low stock alert",
			slog.String("id", item.ID.String()),
			"err", err)
	}
}

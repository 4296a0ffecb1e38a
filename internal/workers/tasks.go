// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/chainflow/chainflow-be/internal/core/ports"
)

// Task types handled by the worker binary.
const (
	TypeLowStockAlert    = "notification:low_stock"
	TypeAnalyticsRefresh = "analytics:refresh"
	TypeCleanupOldData   = "cleanup:old_data"
)

// LowStockPayload identifies the item that crossed its reorder point.
type LowStockPayload struct {
	InventoryID uuid.UUID `json:"inventory_id"`
}

// NewLowStockAlertTask builds the low-stock notification task.
func NewLowStockAlertTask(inventoryID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(LowStockPayload{InventoryID: inventoryID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal low stock payload: %w", err)
	}
	return asynq.NewTask(TypeLowStockAlert, payload), nil
}

// NewAnalyticsRefreshTask builds the dashboard pre-warm task.
func NewAnalyticsRefreshTask() *asynq.Task {
	return asynq.NewTask(TypeAnalyticsRefresh, nil)
}

// NewCleanupTask builds the retention purge task.
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupOldData, nil)
}

// Enqueuer implements ports.TaskEnqueuer on top of the asynq client.
type Enqueuer struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewEnqueuer creates a task enqueuer
func NewEnqueuer(client *asynq.Client, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{
		client: client,
		logger: logger.With(slog.String("component", "enqueuer")),
	}
}

var _ ports.TaskEnqueuer = (*Enqueuer)(nil)

// alreadyQueued reports whether an enqueue failed only because an equivalent
// task is pending. The client wraps the sentinel errors, so errors.Is is
// required.
func alreadyQueued(err error) bool {
	return errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask)
}

// EnqueueLowStockAlert queues a reorder notification for the given item.
// Alerts are deduplicated per item for an hour so a burst of adjustments
// does not mail the same warning repeatedly.
func (e *Enqueuer) EnqueueLowStockAlert(ctx context.Context, inventoryID uuid.UUID) error {
	task, err := NewLowStockAlertTask(inventoryID)
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue("critical"),
		asynq.TaskID(fmt.Sprintf("low-stock:%s", inventoryID)),
		asynq.Retention(time.Hour),
	)
	if err != nil {
		if alreadyQueued(err) {
			e.logger.DebugContext(ctx, "low stock alert already queued",
				slog.String("inventory_id", inventoryID.String()))
			return nil
		}
		return fmt.Errorf("failed to enqueue low stock alert: %w", err)
	}

	e.logger.InfoContext(ctx, "low stock alert enqueued",
		slog.String("inventory_id", inventoryID.String()),
		slog.String("task_id", info.ID))
	return nil
}

// EnqueueAnalyticsRefresh queues a dashboard cache refresh.
func (e *Enqueuer) EnqueueAnalyticsRefresh(ctx context.Context) error {
	info, err := e.client.EnqueueContext(ctx, NewAnalyticsRefreshTask(),
		asynq.Queue("low"),
		asynq.Unique(5*time.Minute),
	)
	if err != nil {
		if alreadyQueued(err) {
			return nil
		}
		return fmt.Errorf("failed to enqueue analytics refresh: %w", err)
	}

	e.logger.DebugContext(ctx, "analytics refresh enqueued",
		slog.String("task_id", info.ID))
	return nil
}

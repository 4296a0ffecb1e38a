// internal/core/ports/tasks.go
package ports

import (
	"context"

	"github.com/google/uuid"
)

// TaskEnqueuer queues background jobs without binding services to the
// broker client.
type TaskEnqueuer interface {
	EnqueueLowStockAlert(ctx context.Context, inventoryID uuid.UUID) error
	EnqueueAnalyticsRefresh(ctx context.Context) error
}

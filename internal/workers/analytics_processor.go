// internal/workers/analytics_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/chainflow/chainflow-be/internal/adapters/redis_adapter"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/handlers"
)

// AnalyticsProcessor pre-warms the dashboard cache so the first request
// after an invalidation does not pay for the aggregate queries.
type AnalyticsProcessor struct {
	analytics *handlers.AnalyticsHandler
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// NewAnalyticsProcessor creates a new analytics processor
func NewAnalyticsProcessor(analytics *handlers.AnalyticsHandler, cache ports.CacheRepository, logger *slog.Logger) *AnalyticsProcessor {
	return &AnalyticsProcessor{
		analytics: analytics,
		cache:     cache,
		logger:    logger.With(slog.String("processor", "analytics")),
	}
}

// RefreshAnalytics recomputes the dashboard aggregates and replaces the
// cached copy. Stale per-period financial summaries are dropped and rebuilt
// lazily on the next request.
func (p *AnalyticsProcessor) RefreshAnalytics(ctx context.Context, t *asynq.Task) error {
	started := time.Now()

	dashboard, err := p.analytics.LoadDashboard(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute dashboard: %w", err)
	}

	key := redis_a.BuildKey(redis_a.PrefixDashboard, "main")
	if err := p.cache.SetWithTTL(ctx, key, dashboard, 5*time.Minute); err != nil {
		return fmt.Errorf("failed to cache dashboard: %w", err)
	}

	if err := p.cache.DeletePattern(ctx, redis_a.BuildKey(redis_a.PrefixAnalytics, "*")); err != nil {
		p.logger.WarnContext(ctx, "failed to drop analytics cache",
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "dashboard cache refreshed",
		slog.Duration("took", time.Since(started)))
	return nil
}

// internal/workers/cleanup_processor.go
package workers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/chainflow/chainflow-be/internal/adapters/db"
	redis_a "github.com/chainflow/chainflow-be/internal/adapters/redis_adapter"
	"github.com/chainflow/chainflow-be/internal/adapters/storage"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/pkg/config"
)

// CleanupProcessor enforces data retention: soft-deleted inventory rows
// past the retention window are archived to object storage and purged,
// and stale cache keys are dropped.
type CleanupProcessor struct {
	db        *db.Database
	inventory ports.InventoryRepository
	cache     ports.CacheRepository
	store     storage.ObjectStore
	config    *config.Config
	logger    *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(database *db.Database, inventory ports.InventoryRepository, cache ports.CacheRepository, store storage.ObjectStore, config *config.Config, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		db:        database,
		inventory: inventory,
		cache:     cache,
		store:     store,
		config:    config,
		logger:    logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupOldData archives and purges expired soft-deleted inventory
func (p *CleanupProcessor) CleanupOldData(ctx context.Context, t *asynq.Task) error {
	days := p.config.Export.RetentionDays
	p.logger.InfoContext(ctx, "cleaning up old data", slog.Int("retention_days", days))

	if err := p.archiveExpired(ctx, days); err != nil {
		return err
	}

	purged, err := p.inventory.PurgeDeletedBefore(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to purge soft-deleted inventory: %w", err)
	}

	if err := p.cache.DeletePattern(ctx, redis_a.BuildKey(redis_a.PrefixExport, "*")); err != nil {
		p.logger.WarnContext(ctx, "failed to drop export cache",
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "old data cleaned up",
		slog.Int64("rows_purged", purged))
	return nil
}

// archiveExpired snapshots the rows about to be purged into object
// storage. An empty snapshot writes nothing.
func (p *CleanupProcessor) archiveExpired(ctx context.Context, days int) error {
	query := `
		SELECT COALESCE(jsonb_agg(to_jsonb(i)), '[]')
		FROM inventory i
		WHERE i.deleted_at IS NOT NULL
		  AND i.deleted_at < NOW() - make_interval(days => $1)
	`

	var snapshot []byte
	if err := p.db.QueryRow(ctx, query, days).Scan(&snapshot); err != nil {
		return fmt.Errorf("failed to snapshot expired inventory: %w", err)
	}

	if len(snapshot) <= len("[]") {
		return nil
	}

	key := storage.ArchiveKey("inventory", time.Now())
	if _, err := p.store.Upload(ctx, key, bytes.NewReader(snapshot), "application/json"); err != nil {
		return fmt.Errorf("failed to archive expired inventory: %w", err)
	}

	p.logger.InfoContext(ctx, "expired inventory archived",
		slog.String("key", key))
	return nil
}

// CleanupTempFiles removes stale files from the export scratch directory
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up temp files")

	tempDir := p.config.Export.TempDir
	maxAge := 24 * time.Hour

	var deletedCount int
	err := filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err != nil {
				p.logger.WarnContext(ctx, "failed to delete temp file",
					slog.String("file", path),
					slog.String("error", err.Error()))
			} else {
				deletedCount++
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", deletedCount))

	return nil
}

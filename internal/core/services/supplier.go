// internal/core/services/supplier.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
)

// SupplierService handles supplier management
type SupplierService struct {
	repo    ports.SupplierRepository
	invRepo ports.InventoryRepository
	logger  *slog.Logger
}

var _ ports.SupplierService = (*SupplierService)(nil)

// NewSupplierService creates a new supplier service
func NewSupplierService(repo ports.SupplierRepository, invRepo ports.InventoryRepository, logger *slog.Logger) *SupplierService {
	return &SupplierService{
		repo:    repo,
		invRepo: invRepo,
		logger:  logger.With(slog.String("service", "suppliers")),
	}
}

// CreateSupplier validates and persists a new supplier
func (s *SupplierService) CreateSupplier(ctx context.Context, supplier *domain.Supplier, actor *ports.Actor) (*domain.Supplier, error) {
	if err := supplier.Validate(); err != nil {
		return nil, err
	}

	if actor != nil {
		supplier.CreatedBy = &actor.ID
		supplier.UpdatedBy = &actor.ID
	}
	supplier.PrepareForStorage()

	if err := s.repo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "supplier created",
		slog.String("id", supplier.ID.String()),
		slog.String("code", supplier.Code))

	return supplier, nil
}

// UpdateSupplier replaces a supplier's mutable fields
func (s *SupplierService) UpdateSupplier(ctx context.Context, id uuid.UUID, supplier *domain.Supplier, actor *ports.Actor) (*domain.Supplier, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := supplier.Validate(); err != nil {
		return nil, err
	}

	supplier.ID = existing.ID
	supplier.CreatedAt = existing.CreatedAt
	supplier.CreatedBy = existing.CreatedBy
	if actor != nil {
		supplier.UpdatedBy = &actor.ID
	}
	supplier.PrepareForStorage()
	supplier.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "supplier updated", slog.String("id", id.String()))
	return supplier, nil
}

// UpdatePerformance records fresh delivery and quality metrics for a supplier
func (s *SupplierService) UpdatePerformance(ctx context.Context, id uuid.UUID, metrics domain.PerformanceMetrics, actor *ports.Actor) (*domain.Supplier, error) {
	if metrics.OnTimeDeliveryRate < 0 || metrics.OnTimeDeliveryRate > 100 {
		return nil, domain.NewValidationError("onTimeDeliveryRate", "must be between 0 and 100")
	}
	if metrics.QualityScore < 0 || metrics.QualityScore > 100 {
		return nil, domain.NewValidationError("qualityScore", "must be between 0 and 100")
	}
	if metrics.ResponseTime < 0 {
		return nil, domain.NewValidationError("responseTime", "must not be negative")
	}

	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Performance = metrics
	if actor != nil {
		supplier.UpdatedBy = &actor.ID
	}
	supplier.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "supplier performance updated", slog.String("id", id.String()))
	return supplier, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	return s.repo.FindByID(ctx, id)
}

// List retrieves suppliers with filtering and pagination
func (s *SupplierService) List(ctx context.Context, params ports.SupplierListParams) (*ports.SupplierListResult, error) {
	result, err := s.repo.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return result, nil
}

// Products lists the inventory items sourced from a supplier
func (s *SupplierService) Products(ctx context.Context, id uuid.UUID) ([]*domain.InventoryItem, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.invRepo.FindBySupplier(ctx, id)
}

// DeleteSupplier removes a supplier unless inventory still references it
func (s *SupplierService) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	refs, err := s.invRepo.CountBySupplier(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.NewConflictError("supplier is referenced by %d inventory item(s)", refs)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "supplier deleted", slog.String("id", id.String()))
	return nil
}

// internal/core/services/supplier_service_test.go
package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/services"
	"github.com/chainflow/chainflow-be/test/helpers"
	"github.com/chainflow/chainflow-be/test/mocks"
)

func newSupplierService(t *testing.T, ctrl *gomock.Controller) (*services.SupplierService, *mocks.MockSupplierRepository, *mocks.MockInventoryRepository) {
	t.Helper()

	repo := mocks.NewMockSupplierRepository(ctrl)
	invRepo := mocks.NewMockInventoryRepository(ctrl)

	svc := services.NewSupplierService(repo, invRepo, helpers.TestLogger())
	return svc, repo, invRepo
}

func TestSupplierService_CreateSupplier(t *testing.T) {
	tests := []struct {
		name          string
		supplier      *domain.Supplier
		setupMocks    func(*mocks.MockSupplierRepository)
		expectedError bool
		errorContains string
	}{
		{
			name:     "successful_create",
			supplier: helpers.CreateTestSupplier(),
			setupMocks: func(m *mocks.MockSupplierRepository) {
				m.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "missing_code",
			supplier: helpers.CreateTestSupplier(func(s *domain.Supplier) {
				s.Code = ""
			}),
			setupMocks:    func(m *mocks.MockSupplierRepository) {},
			expectedError: true,
			errorContains: "code",
		},
		{
			name: "rating_out_of_range",
			supplier: helpers.CreateTestSupplier(func(s *domain.Supplier) {
				s.Rating = 6
			}),
			setupMocks:    func(m *mocks.MockSupplierRepository) {},
			expectedError: true,
			errorContains: "rating",
		},
		{
			name:     "duplicate_code",
			supplier: helpers.CreateTestSupplier(),
			setupMocks: func(m *mocks.MockSupplierRepository) {
				m.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					Return(&domain.DuplicateKeyError{Field: "code", Value: "SUP-001"})
			},
			expectedError: true,
			errorContains: "already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, repo, _ := newSupplierService(t, ctrl)
			tt.setupMocks(repo)

			created, err := svc.CreateSupplier(context.Background(), tt.supplier, testActor())

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, created.ID)
		})
	}
}

func TestSupplierService_UpdateSupplier_PreservesAudit(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo, _ := newSupplierService(t, ctrl)

	creator := uuid.New()
	existing := helpers.CreateTestSupplier(func(s *domain.Supplier) {
		s.CreatedBy = &creator
	})

	repo.EXPECT().FindByID(gomock.Any(), existing.ID).Return(existing, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	incoming := helpers.CreateTestSupplier(func(s *domain.Supplier) {
		s.Name = "Acme Components International"
	})

	updated, err := svc.UpdateSupplier(context.Background(), existing.ID, incoming, testActor())
	require.NoError(t, err)

	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, existing.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.CreatedBy)
	assert.Equal(t, creator, *updated.CreatedBy)
	assert.Equal(t, "Acme Components International", updated.Name)
}

func TestSupplierService_UpdatePerformance(t *testing.T) {
	supplier := helpers.CreateTestSupplier()

	tests := []struct {
		name          string
		metrics       domain.PerformanceMetrics
		setupMocks    func(*mocks.MockSupplierRepository)
		expectedError bool
		errorContains string
	}{
		{
			name: "valid_metrics",
			metrics: domain.PerformanceMetrics{
				OnTimeDeliveryRate: 96.5,
				QualityScore:       88,
				ResponseTime:       4.5,
			},
			setupMocks: func(m *mocks.MockSupplierRepository) {
				m.EXPECT().FindByID(gomock.Any(), supplier.ID).Return(supplier, nil)
				m.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:          "delivery_rate_above_100",
			metrics:       domain.PerformanceMetrics{OnTimeDeliveryRate: 101},
			setupMocks:    func(m *mocks.MockSupplierRepository) {},
			expectedError: true,
			errorContains: "onTimeDeliveryRate",
		},
		{
			name:          "negative_quality_score",
			metrics:       domain.PerformanceMetrics{QualityScore: -1},
			setupMocks:    func(m *mocks.MockSupplierRepository) {},
			expectedError: true,
			errorContains: "qualityScore",
		},
		{
			name:          "negative_response_time",
			metrics:       domain.PerformanceMetrics{ResponseTime: -0.5},
			setupMocks:    func(m *mocks.MockSupplierRepository) {},
			expectedError: true,
			errorContains: "responseTime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, repo, _ := newSupplierService(t, ctrl)
			tt.setupMocks(repo)

			updated, err := svc.UpdatePerformance(context.Background(), supplier.ID, tt.metrics, nil)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)

				var valErr *domain.ValidationError
				assert.ErrorAs(t, err, &valErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.metrics, updated.Performance)
		})
	}
}

func TestSupplierService_Products(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo, invRepo := newSupplierService(t, ctrl)

	supplier := helpers.CreateTestSupplier()
	items := []*domain.InventoryItem{
		helpers.CreateTestInventoryItem(),
		helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) { i.SKU = "WGT-002" }),
	}

	repo.EXPECT().FindByID(gomock.Any(), supplier.ID).Return(supplier, nil)
	invRepo.EXPECT().FindBySupplier(gomock.Any(), supplier.ID).Return(items, nil)

	got, err := svc.Products(context.Background(), supplier.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSupplierService_DeleteSupplier(t *testing.T) {
	supplier := helpers.CreateTestSupplier()

	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockSupplierRepository, *mocks.MockInventoryRepository)
		expectedError bool
		errorContains string
	}{
		{
			name: "unreferenced_supplier_deleted",
			setupMocks: func(m *mocks.MockSupplierRepository, inv *mocks.MockInventoryRepository) {
				m.EXPECT().FindByID(gomock.Any(), supplier.ID).Return(supplier, nil)
				inv.EXPECT().CountBySupplier(gomock.Any(), supplier.ID).Return(int64(0), nil)
				m.EXPECT().Delete(gomock.Any(), supplier.ID).Return(nil)
			},
		},
		{
			name: "blocked_by_inventory_references",
			setupMocks: func(m *mocks.MockSupplierRepository, inv *mocks.MockInventoryRepository) {
				m.EXPECT().FindByID(gomock.Any(), supplier.ID).Return(supplier, nil)
				inv.EXPECT().CountBySupplier(gomock.Any(), supplier.ID).Return(int64(3), nil)
			},
			expectedError: true,
			errorContains: "referenced by 3 inventory item(s)",
		},
		{
			name: "missing_supplier",
			setupMocks: func(m *mocks.MockSupplierRepository, inv *mocks.MockInventoryRepository) {
				m.EXPECT().
					FindByID(gomock.Any(), supplier.ID).
					Return(nil, domain.NewNotFoundError("supplier", supplier.ID.String()))
			},
			expectedError: true,
			errorContains: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, repo, invRepo := newSupplierService(t, ctrl)
			tt.setupMocks(repo, invRepo)

			err := svc.DeleteSupplier(context.Background(), supplier.ID)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
		})
	}
}

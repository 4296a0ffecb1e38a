// internal/workers/notifications_processor_test.go
package workers_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/pkg/config"
	"github.com/chainflow/chainflow-be/internal/workers"
	"github.com/chainflow/chainflow-be/test/helpers"
	"github.com/chainflow/chainflow-be/test/mocks"
)

func devConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Environment: "development"},
		Email: config.EmailConfig{
			From:           "alerts@chainflow.io",
			AlertRecipient: "ops@chainflow.io",
		},
	}
}

func TestNotificationProcessor_HandleLowStockAlert(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mocks.MockInventoryRepository, uuid.UUID)
		wantErr    bool
	}{
		{
			name: "sends_alert_for_low_stock_item",
			setupMocks: func(repo *mocks.MockInventoryRepository, id uuid.UUID) {
				item := helpers.CreateTestInventoryItem()
				item.ID = id
				item.Quantity = 3
				item.Status = domain.StatusLowStock
				repo.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
			},
		},
		{
			name: "skips_alert_when_stock_recovered",
			setupMocks: func(repo *mocks.MockInventoryRepository, id uuid.UUID) {
				item := helpers.CreateTestInventoryItem()
				item.ID = id
				item.Quantity = 500
				item.Status = domain.StatusInStock
				repo.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
			},
		},
		{
			name: "drops_alert_for_missing_item",
			setupMocks: func(repo *mocks.MockInventoryRepository, id uuid.UUID) {
				repo.EXPECT().FindByID(gomock.Any(), id).
					Return(nil, domain.NewNotFoundError("inventory item", id.String()))
			},
		},
		{
			name: "propagates_repository_error",
			setupMocks: func(repo *mocks.MockInventoryRepository, id uuid.UUID) {
				repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, assert.AnError)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockInventoryRepository(ctrl)
			processor := workers.NewNotificationProcessor(repo, devConfig(), helpers.TestLogger())

			id := uuid.New()
			tt.setupMocks(repo, id)

			task, err := workers.NewLowStockAlertTask(id)
			require.NoError(t, err)

			err = processor.HandleLowStockAlert(context.Background(), task)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotificationProcessor_BadPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockInventoryRepository(ctrl)
	processor := workers.NewNotificationProcessor(repo, devConfig(), helpers.TestLogger())

	task := asynq.NewTask(workers.TypeLowStockAlert, []byte("not json"))
	err := processor.HandleLowStockAlert(context.Background(), task)
	assert.Error(t, err)
}

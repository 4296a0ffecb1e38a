// internal/handlers/inventory_test.go
package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/handlers"
	"github.com/chainflow/chainflow-be/test/helpers"
	"github.com/chainflow/chainflow-be/test/mocks"
)

func newInventoryHandler(t *testing.T) (*handlers.InventoryHandler, *mocks.MockInventoryService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockInventoryService(ctrl)
	return handlers.NewInventoryHandler(service, helpers.TestLogger()), service
}

func TestInventoryHandler_Create_DiscontinuedStatusPassesThrough(t *testing.T) {
	h, service := newInventoryHandler(t)

	var received *domain.InventoryItem
	service.EXPECT().
		CreateItem(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, item *domain.InventoryItem, _ *ports.Actor) (*domain.InventoryItem, error) {
			received = item
			item.PrepareForStorage()
			return item, nil
		})

	body := `{
		"sku": "WGT-001",
		"name": "Steel Widget",
		"category": "components",
		"quantity": 5,
		"reorder_point": 20,
		"unit_cost": "4.50",
		"warehouse": {"location": "Main"},
		"status": "discontinued"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateInventory(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, received)
	// The low quantity would derive low_stock; the explicit discontinued
	// marker must survive the write.
	assert.Equal(t, domain.StatusDiscontinued, received.Status)
	assert.Contains(t, w.Body.String(), `"status":"discontinued"`)
}

func TestInventoryHandler_Create_OmittedStatusStaysDerived(t *testing.T) {
	h, service := newInventoryHandler(t)

	var received *domain.InventoryItem
	service.EXPECT().
		CreateItem(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, item *domain.InventoryItem, _ *ports.Actor) (*domain.InventoryItem, error) {
			received = item
			item.PrepareForStorage()
			return item, nil
		})

	body := `{
		"sku": "WGT-002",
		"name": "Brass Widget",
		"quantity": 5,
		"reorder_point": 20,
		"unit_cost": "2.25",
		"warehouse": {"location": "Main"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateInventory(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, received)
	assert.Equal(t, domain.StatusLowStock, received.Status)
}

// internal/handlers/export_test.go
package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/mock/gomock"

	redis_a "github.com/chainflow/chainflow-be/internal/adapters/redis_adapter"
	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/handlers"
	"github.com/chainflow/chainflow-be/test/helpers"
	"github.com/chainflow/chainflow-be/test/mocks"
)

func newExportHandler(t *testing.T) (*handlers.ExportHandler, *mocks.MockInventoryService, *mocks.MockOrderService, *mocks.MockCacheRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	invService := mocks.NewMockInventoryService(ctrl)
	orderService := mocks.NewMockOrderService(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	h := handlers.NewExportHandler(invService, orderService, cache, 10000, helpers.TestLogger())
	return h, invService, orderService, cache
}

func exportTestItems(n int) []*domain.InventoryItem {
	items := make([]*domain.InventoryItem, 0, n)
	for i := 0; i < n; i++ {
		item := helpers.CreateTestInventoryItem()
		item.SKU = "SKU-" + string(rune('A'+i))
		items = append(items, item)
	}
	return items
}

func TestExportHandler_InventoryJSON(t *testing.T) {
	h, invService, _, cache := newExportHandler(t)

	items := exportTestItems(2)

	cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(redis_a.ErrCacheMiss)

	invService.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return(&ports.InventoryListResult{
			Items:      items,
			Page:       1,
			PageSize:   500,
			TotalCount: 2,
			TotalPages: 1,
		}, nil)

	cache.EXPECT().
		SetWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), 5*time.Minute).
		Return(nil).
		AnyTimes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/inventory?format=json", nil)
	w := httptest.NewRecorder()
	h.ExportInventory(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	var body struct {
		Items    []domain.InventoryItem   `json:"items"`
		Metadata handlers.ExportMetadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Items, 2)
	assert.Equal(t, 2, body.Metadata.TotalRows)
	assert.False(t, body.Metadata.Truncated)
}

func TestExportHandler_InventoryJSON_CacheHit(t *testing.T) {
	h, _, _, cache := newExportHandler(t)

	cached := []byte(`{"items":[],"metadata":{"total_rows":0}}`)
	cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, _ string, dest any) error {
			*dest.(*[]byte) = cached
			return nil
		})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/inventory?format=json", nil)
	w := httptest.NewRecorder()
	h.ExportInventory(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, cached, w.Body.Bytes())
}

func TestExportHandler_InventoryExcel(t *testing.T) {
	h, invService, _, _ := newExportHandler(t)

	invService.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return(&ports.InventoryListResult{
			Items:      exportTestItems(3),
			Page:       1,
			PageSize:   500,
			TotalCount: 3,
			TotalPages: 1,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/inventory", nil)
	w := httptest.NewRecorder()
	h.ExportInventory(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "inventory_export_")

	wb, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, 4, wb.Sheets[0].MaxRow) // header + 3 data rows
}

func TestExportHandler_InventoryCSV(t *testing.T) {
	h, invService, _, _ := newExportHandler(t)

	items := exportTestItems(1)
	items[0].SKU = "SKU-CSV-TEST"

	invService.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return(&ports.InventoryListResult{
			Items:      items,
			Page:       1,
			PageSize:   500,
			TotalCount: 1,
			TotalPages: 1,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/inventory?format=csv", nil)
	w := httptest.NewRecorder()
	h.ExportInventory(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "SKU")
	assert.Contains(t, lines[1], "SKU-CSV-TEST")
}

func TestExportHandler_InventoryPagination(t *testing.T) {
	h, invService, _, _ := newExportHandler(t)

	page1 := &ports.InventoryListResult{
		Items:      exportTestItems(2),
		Page:       1,
		PageSize:   500,
		TotalCount: 3,
		TotalPages: 2,
	}
	page2 := &ports.InventoryListResult{
		Items:      exportTestItems(1),
		Page:       2,
		PageSize:   500,
		TotalCount: 3,
		TotalPages: 2,
	}

	gomock.InOrder(
		invService.EXPECT().
			List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, params ports.InventoryListParams) (*ports.InventoryListResult, error) {
				assert.Equal(t, 1, params.Page)
				return page1, nil
			}),
		invService.EXPECT().
			List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, params ports.InventoryListParams) (*ports.InventoryListResult, error) {
				assert.Equal(t, 2, params.Page)
				return page2, nil
			}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/inventory?format=csv", nil)
	w := httptest.NewRecorder()
	h.ExportInventory(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 4)
}

func TestExportHandler_OrdersExcel(t *testing.T) {
	h, _, orderService, _ := newExportHandler(t)

	order := helpers.CreateTestOrder(domain.OrderTypeSales, helpers.CreateTestInventoryItem())
	order.OrderNumber = "SO-000042"
	order.Pricing.Total = decimal.NewFromInt(250)

	orderService.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, params ports.OrderListParams) (*ports.OrderListResult, error) {
			assert.Equal(t, "sales", params.Type)
			return &ports.OrderListResult{
				Orders:     []*domain.Order{order},
				Page:       1,
				PageSize:   500,
				TotalCount: 1,
				TotalPages: 1,
			}, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/orders?type=sales", nil)
	w := httptest.NewRecorder()
	h.ExportOrders(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "orders_export_")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestExportHandler_ServiceError(t *testing.T) {
	h, invService, _, _ := newExportHandler(t)

	invService.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/inventory", nil)
	w := httptest.NewRecorder()
	h.ExportInventory(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
}

func TestExportHandler_RowCap(t *testing.T) {
	ctrl := gomock.NewController(t)
	invService := mocks.NewMockInventoryService(ctrl)
	orderService := mocks.NewMockOrderService(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	h := handlers.NewExportHandler(invService, orderService, cache, 2, helpers.TestLogger())

	invService.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return(&ports.InventoryListResult{
			Items:      exportTestItems(3),
			Page:       1,
			PageSize:   500,
			TotalCount: 30,
			TotalPages: 10,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/inventory?format=csv", nil)
	w := httptest.NewRecorder()
	h.ExportInventory(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
}

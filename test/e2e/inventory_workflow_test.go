//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/chainflow/chainflow-be/internal/adapters/db"
	redis_a "github.com/chainflow/chainflow-be/internal/adapters/redis_adapter"
	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/services"
	"github.com/chainflow/chainflow-be/internal/handlers"
	"github.com/chainflow/chainflow-be/internal/handlers/middleware"
	"github.com/chainflow/chainflow-be/internal/pkg/config"
	"github.com/chainflow/chainflow-be/test/helpers"
)

type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueLowStockAlert(ctx context.Context, inventoryID uuid.UUID) error {
	return nil
}

func (noopEnqueuer) EnqueueAnalyticsRefresh(ctx context.Context) error { return nil }

type InventoryE2ESuite struct {
	suite.Suite
	server     *httptest.Server
	client     *http.Client
	baseURL    string
	testDB     *helpers.TestDB
	testRedis  *helpers.TestRedis
	adminToken string
}

func (s *InventoryE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"

	s.adminToken = s.registerUser("Admin", "admin@e2e.test", string(domain.RoleAdmin))
}

func (s *InventoryE2ESuite) TearDownSuite() {
	s.server.Close()
}

func (s *InventoryE2ESuite) TestCompleteInventoryWorkflow() {
	createReq := map[string]interface{}{
		"sku":              "E2E-WGT-001",
		"name":             "E2E Widget",
		"description":      "Item created in the workflow test",
		"category":         "components",
		"quantity":         150,
		"unit":             "pcs",
		"reorder_point":    20,
		"reorder_quantity": 100,
		"unit_cost":        "4.25",
		"warehouse":        map[string]string{"location": "Main", "zone": "A"},
	}

	resp := s.makeRequest("POST", "/inventory", createReq)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool                 `json:"success"`
		Data    domain.InventoryItem `json:"data"`
	}
	s.decodeResponse(resp, &created)
	s.True(created.Success)
	s.NotEqual(uuid.Nil, created.Data.ID)
	s.Equal(domain.StatusInStock, created.Data.Status)

	itemID := created.Data.ID.String()

	// Read it back
	resp = s.makeRequest("GET", "/inventory/"+itemID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var fetched struct {
		Data domain.InventoryItem `json:"data"`
	}
	s.decodeResponse(resp, &fetched)
	s.Equal("E2E Widget", fetched.Data.Name)

	// Adjust stock down below the reorder point
	resp = s.makeRequest("POST", "/inventory/"+itemID+"/adjust", map[string]interface{}{
		"adjustment": -140,
		"reason":     "cycle count correction",
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	var adjusted struct {
		Data domain.InventoryItem `json:"data"`
	}
	s.decodeResponse(resp, &adjusted)
	s.Equal(10, adjusted.Data.Quantity)
	s.Equal(domain.StatusLowStock, adjusted.Data.Status)

	// Item now shows in the low stock listing
	resp = s.makeRequest("GET", "/inventory/low-stock/alerts", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var lowStock struct {
		Data []domain.InventoryItem `json:"data"`
	}
	s.decodeResponse(resp, &lowStock)
	s.NotEmpty(lowStock.Data)

	// List with category filter
	resp = s.makeRequest("GET", "/inventory?category=components&page_size=10", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var listed struct {
		Data struct {
			Items      []domain.InventoryItem `json:"items"`
			TotalCount int64                  `json:"total_count"`
		} `json:"data"`
	}
	s.decodeResponse(resp, &listed)
	s.GreaterOrEqual(len(listed.Data.Items), 1)

	// Export as CSV
	resp = s.makeRequest("GET", "/export/inventory?format=csv", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Type"), "text/csv")
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.NoError(err)
	s.Contains(string(body), "E2E-WGT-001")

	// Delete and verify the soft delete hides it
	resp = s.makeRequest("DELETE", "/inventory/"+itemID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.makeRequest("GET", "/inventory/"+itemID, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *InventoryE2ESuite) TestOrderLifecycle() {
	// Seed an item with enough stock
	createResp := s.makeRequest("POST", "/inventory", map[string]interface{}{
		"sku":              "E2E-ORD-001",
		"name":             "Order Widget",
		"category":         "finished_goods",
		"quantity":         100,
		"unit":             "pcs",
		"reorder_point":    10,
		"reorder_quantity": 50,
		"unit_cost":        "10.00",
		"warehouse":        map[string]string{"location": "Main"},
	})
	s.Equal(http.StatusCreated, createResp.StatusCode)

	var item struct {
		Data domain.InventoryItem `json:"data"`
	}
	s.decodeResponse(createResp, &item)

	// Create a sales order
	resp := s.makeRequest("POST", "/orders", map[string]interface{}{
		"type":     "sales",
		"customer": map[string]string{"name": "E2E Customer"},
		"items": []map[string]interface{}{
			{"inventory_id": item.Data.ID, "quantity": 30, "unit_price": "19.99"},
		},
		"currency": "USD",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var order struct {
		Data domain.Order `json:"data"`
	}
	s.decodeResponse(resp, &order)
	s.NotEmpty(order.Data.OrderNumber)
	s.Equal(domain.OrderStatusPending, order.Data.Status)

	orderID := order.Data.ID.String()

	// Sales order creation deducts stock immediately
	getResp := s.makeRequest("GET", "/inventory/"+item.Data.ID.String(), nil)
	s.Equal(http.StatusOK, getResp.StatusCode)

	var after struct {
		Data domain.InventoryItem `json:"data"`
	}
	s.decodeResponse(getResp, &after)
	s.Equal(70, after.Data.Quantity)

	// Confirm the order
	resp = s.makeRequest("PATCH", "/orders/"+orderID+"/status", map[string]interface{}{
		"status": "confirmed",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Cancelling restores it
	resp = s.makeRequest("PATCH", "/orders/"+orderID+"/status", map[string]interface{}{
		"status": "cancelled",
		"note":   "customer withdrew",
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	getResp = s.makeRequest("GET", "/inventory/"+item.Data.ID.String(), nil)
	s.decodeResponse(getResp, &after)
	s.Equal(100, after.Data.Quantity)
}

func (s *InventoryE2ESuite) TestAuthBoundaries() {
	// No token
	req, err := http.NewRequest("GET", s.baseURL+"/inventory", nil)
	s.NoError(err)
	resp, err := s.client.Do(req)
	s.NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Viewer cannot create
	viewerToken := s.registerUser("Viewer", "viewer@e2e.test", string(domain.RoleViewer))
	req, err = http.NewRequest("POST", s.baseURL+"/inventory",
		bytes.NewReader([]byte(`{"sku":"NOPE-001","name":"Nope","category":"other","unit":"pcs","warehouse":{"location":"Main"}}`)))
	s.NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+viewerToken)
	resp, err = s.client.Do(req)
	s.NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *InventoryE2ESuite) TestConcurrentCreates() {
	done := make(chan int, 10)

	for i := 0; i < 10; i++ {
		go func(idx int) {
			resp := s.makeRequest("POST", "/inventory", map[string]interface{}{
				"sku":       fmt.Sprintf("CONC-%03d", idx),
				"name":      fmt.Sprintf("Concurrent Item %d", idx),
				"category":  "supplies",
				"quantity":  10,
				"unit":      "pcs",
				"unit_cost": "1.00",
				"warehouse": map[string]string{"location": "Main"},
			})
			resp.Body.Close()
			done <- resp.StatusCode
		}(i)
	}

	for i := 0; i < 10; i++ {
		s.Equal(http.StatusCreated, <-done)
	}
}

func (s *InventoryE2ESuite) TestHealthCheck() {
	resp, err := s.client.Get(s.server.URL + "/health")
	s.NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	s.decodeResponse(resp, &health)
	s.Equal("healthy", health["status"])
	s.Contains(health, "services")

	svcs := health["services"].(map[string]interface{})
	s.Contains(svcs, "database")
	s.Contains(svcs, "redis")
}

// startTestServer wires the real handlers and middleware against the test
// database and Redis.
func (s *InventoryE2ESuite) startTestServer() *httptest.Server {
	slogger := helpers.TestLogger()
	database := s.testDB.Database
	cache := redis_a.NewCache(s.testRedis.Client, 5*time.Minute, slogger)

	inventoryRepo := db.NewInventoryRepository(database, slogger)
	orderRepo := db.NewOrderRepository(database, slogger)
	userRepo := db.NewUserRepository(database, slogger)

	inventoryService := services.NewInventoryService(inventoryRepo, orderRepo, database, noopEnqueuer{}, slogger)
	orderService := services.NewOrderService(orderRepo, inventoryRepo, database, slogger)
	authService := services.NewAuthService(userRepo, "e2e-test-secret", time.Hour, slogger)

	inventoryHandler := handlers.NewInventoryHandler(inventoryService, slogger)
	orderHandler := handlers.NewOrderHandler(orderService, slogger)
	authHandler := handlers.NewAuthHandler(authService, slogger)
	exportHandler := handlers.NewExportHandler(inventoryService, orderService, cache, 10000, slogger)
	cfg := &config.Config{App: config.AppConfig{
		Name: "chainflow-e2e", Environment: "test", Version: "test",
	}}
	healthHandler := handlers.NewHealthHandler(database, s.testRedis.Client, nil, cfg, slogger)

	authn := middleware.Authenticate(authService, slogger)
	protected := func(h http.HandlerFunc, roles ...domain.UserRole) http.Handler {
		var wrapped http.Handler = h
		if len(roles) > 0 {
			wrapped = middleware.RequireRole(roles...)(wrapped)
		}
		return authn(wrapped)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("GET /api/v1/inventory", protected(inventoryHandler.ListInventory))
	mux.Handle("GET /api/v1/inventory/low-stock/alerts", protected(inventoryHandler.LowStockAlerts))
	mux.Handle("GET /api/v1/inventory/{id}", protected(inventoryHandler.GetInventory))
	mux.Handle("POST /api/v1/inventory", protected(inventoryHandler.CreateInventory, domain.RoleManager))
	mux.Handle("PUT /api/v1/inventory/{id}", protected(inventoryHandler.UpdateInventory, domain.RoleManager))
	mux.Handle("POST /api/v1/inventory/{id}/adjust", protected(inventoryHandler.AdjustInventory, domain.RoleManager))
	mux.Handle("DELETE /api/v1/inventory/{id}", protected(inventoryHandler.DeleteInventory, domain.RoleAdmin))

	mux.Handle("GET /api/v1/orders", protected(orderHandler.ListOrders))
	mux.Handle("POST /api/v1/orders", protected(orderHandler.CreateOrder, domain.RoleManager))
	mux.Handle("PATCH /api/v1/orders/{id}/status", protected(orderHandler.UpdateOrderStatus, domain.RoleManager))

	mux.Handle("GET /api/v1/export/inventory", protected(exportHandler.ExportInventory))

	return httptest.NewServer(middleware.RequestID(mux))
}

func (s *InventoryE2ESuite) registerUser(name, email, role string) string {
	payload, err := json.Marshal(map[string]string{
		"name":     name,
		"email":    email,
		"password": "e2e-password",
		"role":     role,
	})
	s.Require().NoError(err)

	resp, err := s.client.Post(s.baseURL+"/auth/register", "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	s.decodeResponse(resp, &body)
	s.Require().NotEmpty(body.Data.Token)
	return body.Data.Token
}

func (s *InventoryE2ESuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.adminToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *InventoryE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func TestInventoryE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping end-to-end tests in short mode")
	}
	suite.Run(t, new(InventoryE2ESuite))
}

// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chainflow/chainflow-be/internal/adapters/db"
	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/pkg/config"
	"github.com/chainflow/chainflow-be/internal/pkg/logger"
	"github.com/chainflow/chainflow-be/migrations"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// TestAppLogger returns the enhanced logger wrapper for middleware tests
func TestAppLogger() *logger.Logger {
	level := "error"
	if testing.Verbose() {
		level = "debug"
	}
	return logger.NewLogger(&logger.LogConfig{
		Level:  level,
		Format: "text",
		Output: "stdout",
	})
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_chainflow",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_chainflow",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	// Run the embedded migrations
	ctx := context.Background()
	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
		UseEmbedded:    true,
		EmbeddedSource: migrations.FS,
		TableName:      "schema_migrations",
		SchemaName:     "public",
	}

	err = db.RunMigrationsWithRetry(ctx, migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_chainflow",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Export: config.ExportConfig{
			MaxExportRows:   1000,
			TempDir:         "/tmp",
			CleanupInterval: time.Hour,
			RetentionDays:   90,
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret-test-secret-test-secret",
			JWTExpiration:     24 * time.Hour,
			BcryptCost:        10,
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestInventoryItem creates a test inventory item
func CreateTestInventoryItem(overrides ...func(*domain.InventoryItem)) *domain.InventoryItem {
	item := &domain.InventoryItem{
		ID:              uuid.New(),
		SKU:             "WGT-001",
		Name:            "Test Widget",
		Description:     "Standard test widget, batch packed",
		Category:        domain.CategoryComponents,
		Quantity:        150,
		Unit:            "units",
		ReorderPoint:    20,
		ReorderQuantity: 100,
		UnitCost:        decimal.NewFromFloat(4.25),
		Warehouse: domain.Warehouse{
			Location: "Main Warehouse",
			Zone:     "A",
			Bin:      "A-12",
		},
		Status:    domain.StatusInStock,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	item.RecomputeDerived()

	for _, override := range overrides {
		override(item)
	}

	return item
}

// CreateTestInventoryItems creates multiple test inventory items
func CreateTestInventoryItems(count int) []*domain.InventoryItem {
	items := make([]*domain.InventoryItem, count)

	categories := []domain.ItemCategory{
		domain.CategoryRawMaterials,
		domain.CategoryComponents,
		domain.CategoryFinishedGoods,
		domain.CategoryPackaging,
		domain.CategorySupplies,
	}

	for i := 0; i < count; i++ {
		items[i] = CreateTestInventoryItem(func(item *domain.InventoryItem) {
			item.ID = uuid.New()
			item.SKU = fmt.Sprintf("TEST-%03d", i+1)
			item.Name = fmt.Sprintf("Test Item %d", i+1)
			item.Category = categories[i%len(categories)]
			item.Quantity = 50 + i*10
			item.UnitCost = decimal.NewFromInt(int64(5 + i))
			item.RecomputeDerived()
		})
	}

	return items
}

// CreateTestSupplier creates a test supplier
func CreateTestSupplier(overrides ...func(*domain.Supplier)) *domain.Supplier {
	supplier := &domain.Supplier{
		ID:   uuid.New(),
		Code: "SUP-001",
		Name: "Acme Components Ltd",
		ContactPerson: domain.ContactPerson{
			Name:  "Pat Vendor",
			Email: "pat@acme-components.example",
			Phone: "+1-555-0100",
		},
		Categories:   []domain.ItemCategory{domain.CategoryComponents, domain.CategoryRawMaterials},
		PaymentTerms: domain.TermsNet30,
		Currency:     "USD",
		Rating:       4,
		Status:       domain.SupplierActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	for _, override := range overrides {
		override(supplier)
	}

	return supplier
}

// CreateTestOrder creates a test order referencing the given inventory items
func CreateTestOrder(orderType domain.OrderType, items ...*domain.InventoryItem) *domain.Order {
	order := &domain.Order{
		ID:   uuid.New(),
		Type: orderType,
		Customer: domain.Customer{
			Name:  "Test Customer",
			Email: "customer@example.com",
		},
		Status:   domain.OrderStatusPending,
		Priority: domain.PriorityMedium,
	}

	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem{
			InventoryID: item.ID,
			SKU:         item.SKU,
			Name:        item.Name,
			Quantity:    1,
			UnitPrice:   item.UnitCost,
		})
	}

	return order
}

// CreateTestUser creates a test user
func CreateTestUser(overrides ...func(*domain.User)) *domain.User {
	user := &domain.User{
		ID:        uuid.New(),
		Name:      "Test User",
		Email:     "test@example.com",
		Role:      domain.RoleManager,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, override := range overrides {
		override(user)
	}

	return user
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"orders",
		"inventory",
		"suppliers",
		"users",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// CompareInventoryItems compares the caller-controlled fields of two items
func CompareInventoryItems(t *testing.T, expected, actual *domain.InventoryItem) {
	t.Helper()

	require.Equal(t, expected.SKU, actual.SKU)
	require.Equal(t, expected.Name, actual.Name)
	require.Equal(t, expected.Category, actual.Category)
	require.Equal(t, expected.Quantity, actual.Quantity)
	require.Equal(t, expected.ReorderPoint, actual.ReorderPoint)
	require.Equal(t, expected.Status, actual.Status)
	require.True(t, expected.UnitCost.Equal(actual.UnitCost))
	require.True(t, expected.TotalValue.Equal(actual.TotalValue))
}

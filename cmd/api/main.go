// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/chainflow/chainflow-be/internal/adapters/db"
	redis_a "github.com/chainflow/chainflow-be/internal/adapters/redis_adapter"
	"github.com/chainflow/chainflow-be/internal/adapters/storage"
	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/core/services"
	"github.com/chainflow/chainflow-be/internal/handlers"
	"github.com/chainflow/chainflow-be/internal/handlers/middleware"
	"github.com/chainflow/chainflow-be/internal/pkg/config"
	"github.com/chainflow/chainflow-be/internal/pkg/logger"
	"github.com/chainflow/chainflow-be/internal/workers"
	"github.com/chainflow/chainflow-be/migrations"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	applogger := logger.SetupLogger("debug", "json")
	slogger := applogger.Logger

	slogger.Info("starting chainflow supply chain backend",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	applogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger = applogger.Logger
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	// Resolve secrets in production
	if cfg.IsProduction() {
		sm, err := config.NewAWSSecretsManager(cfg.AWS.Region, cfg.App.Name, slogger)
		if err != nil {
			slogger.Error("failed to init secrets manager", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := cfg.ApplySecrets(ctx, sm); err != nil {
			slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, applogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if err := runMigrations(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		if cfg.IsProduction() {
			os.Exit(1)
		}
	}

	server := setupHTTPServer(cfg, deps, applogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	redisCache     ports.CacheRepository
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	authService      *services.AuthService
	inventoryService *services.InventoryService
	orderService     *services.OrderService
	supplierService  *services.SupplierService

	authHandler      *handlers.AuthHandler
	inventoryHandler *handlers.InventoryHandler
	orderHandler     *handlers.OrderHandler
	supplierHandler  *handlers.SupplierHandler
	analyticsHandler *handlers.AnalyticsHandler
	exportHandler    *handlers.ExportHandler
	documentHandler  *handlers.DocumentHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, applogger *logger.Logger) (*dependencies, error) {
	deps := &dependencies{}
	slogger := applogger.Logger

	slogger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	slogger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		ConnMaxLifetime: cfg.Redis.MaxConnAge,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.redisCache = redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	enqueuer := workers.NewEnqueuer(deps.asynqClient, slogger)

	store, err := storage.NewS3Store(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	// Repositories
	inventoryRepo := db.NewInventoryRepository(database, slogger)
	orderRepo := db.NewOrderRepository(database, slogger)
	supplierRepo := db.NewSupplierRepository(database, slogger)
	userRepo := db.NewUserRepository(database, slogger)

	// Services
	deps.inventoryService = services.NewInventoryService(inventoryRepo, orderRepo, database, enqueuer, slogger)
	deps.orderService = services.NewOrderService(orderRepo, inventoryRepo, database, slogger)
	deps.supplierService = services.NewSupplierService(supplierRepo, inventoryRepo, slogger)
	deps.authService = services.NewAuthService(userRepo, cfg.Security.JWTSecret, cfg.Security.JWTExpiration, slogger)

	// Handlers
	deps.authHandler = handlers.NewAuthHandler(deps.authService, slogger)
	deps.inventoryHandler = handlers.NewInventoryHandler(deps.inventoryService, slogger)
	deps.orderHandler = handlers.NewOrderHandler(deps.orderService, slogger)
	deps.supplierHandler = handlers.NewSupplierHandler(deps.supplierService, slogger)
	deps.analyticsHandler = handlers.NewAnalyticsHandler(database, deps.redisCache, slogger)
	deps.exportHandler = handlers.NewExportHandler(deps.inventoryService, deps.orderService, deps.redisCache, cfg.Export.MaxExportRows, slogger)
	deps.documentHandler = handlers.NewDocumentHandler(store, deps.orderService, deps.supplierService, slogger)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, slogger)

	slogger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, applogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()

	registerRoutes(mux, deps, cfg)

	// Middleware applies in reverse order, innermost first
	var handler http.Handler = mux

	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}
	if cfg.App.Environment != "test" {
		handler = middleware.Recovery(applogger.Logger)(handler)
		handler = middleware.Logger(applogger)(handler)
		handler = middleware.RequestID(handler)
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(applogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"
	slogger := slog.Default()

	authn := middleware.Authenticate(deps.authService, slogger)

	// protected wraps a handler with authentication and an optional role
	// requirement. Admin passes every role check.
	protected := func(h http.HandlerFunc, roles ...domain.UserRole) http.Handler {
		var wrapped http.Handler = h
		if len(roles) > 0 {
			wrapped = middleware.RequireRole(roles...)(wrapped)
		}
		return authn(wrapped)
	}

	// Health
	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)
	}

	// Auth
	mux.HandleFunc("POST "+apiV1+"/auth/register", deps.authHandler.Register)
	mux.HandleFunc("POST "+apiV1+"/auth/login", deps.authHandler.Login)
	mux.Handle("GET "+apiV1+"/auth/me", protected(deps.authHandler.Me))
	mux.Handle("POST "+apiV1+"/auth/change-password", protected(deps.authHandler.ChangePassword))

	// Inventory
	mux.Handle("GET "+apiV1+"/inventory", protected(deps.inventoryHandler.ListInventory))
	mux.Handle("GET "+apiV1+"/inventory/low-stock/alerts", protected(deps.inventoryHandler.LowStockAlerts))
	mux.Handle("GET "+apiV1+"/inventory/{id}", protected(deps.inventoryHandler.GetInventory))
	mux.Handle("POST "+apiV1+"/inventory", protected(deps.inventoryHandler.CreateInventory, domain.RoleManager))
	mux.Handle("PUT "+apiV1+"/inventory/{id}", protected(deps.inventoryHandler.UpdateInventory, domain.RoleManager))
	mux.Handle("POST "+apiV1+"/inventory/{id}/adjust", protected(deps.inventoryHandler.AdjustInventory, domain.RoleManager))
	mux.Handle("DELETE "+apiV1+"/inventory/{id}", protected(deps.inventoryHandler.DeleteInventory, domain.RoleAdmin))

	// Orders
	mux.Handle("GET "+apiV1+"/orders", protected(deps.orderHandler.ListOrders))
	mux.Handle("GET "+apiV1+"/orders/stats", protected(deps.orderHandler.OrderStats))
	mux.Handle("GET "+apiV1+"/orders/{id}", protected(deps.orderHandler.GetOrder))
	mux.Handle("POST "+apiV1+"/orders", protected(deps.orderHandler.CreateOrder, domain.RoleManager))
	mux.Handle("PATCH "+apiV1+"/orders/{id}", protected(deps.orderHandler.UpdateOrder, domain.RoleManager))
	mux.Handle("PATCH "+apiV1+"/orders/{id}/status", protected(deps.orderHandler.UpdateOrderStatus, domain.RoleManager))
	mux.Handle("DELETE "+apiV1+"/orders/{id}", protected(deps.orderHandler.DeleteOrder, domain.RoleAdmin))

	// Suppliers
	mux.Handle("GET "+apiV1+"/suppliers", protected(deps.supplierHandler.ListSuppliers))
	mux.Handle("GET "+apiV1+"/suppliers/{id}", protected(deps.supplierHandler.GetSupplier))
	mux.Handle("GET "+apiV1+"/suppliers/{id}/products", protected(deps.supplierHandler.SupplierProducts))
	mux.Handle("POST "+apiV1+"/suppliers", protected(deps.supplierHandler.CreateSupplier, domain.RoleManager))
	mux.Handle("PUT "+apiV1+"/suppliers/{id}", protected(deps.supplierHandler.UpdateSupplier, domain.RoleManager))
	mux.Handle("PATCH "+apiV1+"/suppliers/{id}/performance", protected(deps.supplierHandler.UpdatePerformance, domain.RoleManager))
	mux.Handle("DELETE "+apiV1+"/suppliers/{id}", protected(deps.supplierHandler.DeleteSupplier, domain.RoleAdmin))

	// Analytics
	mux.Handle("GET "+apiV1+"/analytics/dashboard", protected(deps.analyticsHandler.Dashboard))
	mux.Handle("GET "+apiV1+"/analytics/financial-summary", protected(deps.analyticsHandler.FinancialSummary))

	// Export
	mux.Handle("GET "+apiV1+"/export/inventory", protected(deps.exportHandler.ExportInventory))
	mux.Handle("GET "+apiV1+"/export/orders", protected(deps.exportHandler.ExportOrders))

	// Document attachments on orders and suppliers
	mux.Handle("GET "+apiV1+"/{entity}/{id}/documents", protected(deps.documentHandler.List))
	mux.Handle("GET "+apiV1+"/{entity}/{id}/documents/{name}", protected(deps.documentHandler.Download))
	mux.Handle("POST "+apiV1+"/{entity}/{id}/documents", protected(deps.documentHandler.Upload, domain.RoleManager))
	mux.Handle("DELETE "+apiV1+"/{entity}/{id}/documents/{name}", protected(deps.documentHandler.Delete, domain.RoleManager))

	// pprof endpoints (development only)
	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.HandlerFunc(http.DefaultServeMux.ServeHTTP))
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, slogger *slog.Logger) error {
	slogger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL:    cfg.GetDatabaseURL(),
		EmbeddedSource: migrations.FS,
		UseEmbedded:    true,
		TableName:      "schema_migrations",
		SchemaName:     "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, slogger, 3)
}

// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/chainflow/chainflow-be/internal/adapters/db"
	"github.com/chainflow/chainflow-be/internal/pkg/config"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler reports liveness and readiness of the API and its
// dependencies: Postgres, Redis, and the job queues when an inspector is
// wired (the seeder and tests run without one).
type HealthHandler struct {
	db        *db.Database
	redis     *redis.Client
	inspector *asynq.Inspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	database *db.Database,
	redisClient *redis.Client,
	inspector *asynq.Inspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisClient,
		inspector: inspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthReport is the full /health response body. It is written bare, not
// in the API envelope, so monitoring probes can read it without unwrapping.
type HealthReport struct {
	Status      string                      `json:"status"`
	Version     string                      `json:"version"`
	Environment string                      `json:"environment"`
	Uptime      string                      `json:"uptime"`
	Timestamp   time.Time                   `json:"timestamp"`
	Services    map[string]DependencyReport `json:"services"`
	System      RuntimeReport               `json:"system"`
}

// DependencyReport describes one backing service check.
type DependencyReport struct {
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	ResponseTime string         `json:"response_time,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// RuntimeReport carries Go runtime gauges for the process.
type RuntimeReport struct {
	GoVersion      string `json:"go_version"`
	NumGoroutines  int    `json:"num_goroutines"`
	NumCPU         int    `json:"num_cpu"`
	MemoryAllocMB  uint64 `json:"memory_alloc_mb"`
	MemorySysMB    uint64 `json:"memory_sys_mb"`
	GCPauseTotalMs uint64 `json:"gc_pause_total_ms"`
	NumGC          uint32 `json:"num_gc"`
}

// Health handles the /health endpoint. Any unhealthy dependency degrades the
// overall status and flips the response to 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	report := HealthReport{
		Status:      "healthy",
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]DependencyReport),
		System:      runtimeGauges(),
	}

	checks := []struct {
		name string
		run  func(context.Context) DependencyReport
	}{
		{"database", h.checkDatabase},
		{"redis", h.checkRedis},
	}
	if h.inspector != nil {
		checks = append(checks, struct {
			name string
			run  func(context.Context) DependencyReport
		}{"asynq", h.checkQueues})
	}

	for _, check := range checks {
		result := check.run(ctx)
		report.Services[check.name] = result
		if result.Status != "healthy" {
			report.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if report.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeReport(ctx, w, statusCode, report)
}

// Readiness handles the /ready endpoint: a cheap ping of the two stores the
// request path cannot run without.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)

	if err := h.db.Ping(ctx); err != nil {
		ready = false
		details["database"] = "not ready"
	} else {
		details["database"] = "ready"
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		ready = false
		details["redis"] = "not ready"
	} else {
		details["redis"] = "ready"
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeReport(ctx, w, statusCode, map[string]any{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) writeReport(ctx context.Context, w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) DependencyReport {
	start := time.Now()
	report := DependencyReport{
		Status:  "healthy",
		Details: make(map[string]any),
	}

	if err := h.db.Ping(ctx); err != nil {
		report.Status = "unhealthy"
		report.Message = err.Error()
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return report
	}

	for k, v := range h.db.Health(ctx) {
		report.Details[k] = v
	}

	report.ResponseTime = time.Since(start).String()
	return report
}

func (h *HealthHandler) checkRedis(ctx context.Context) DependencyReport {
	start := time.Now()
	report := DependencyReport{
		Status:  "healthy",
		Details: make(map[string]any),
	}

	pong, err := h.redis.Ping(ctx).Result()
	if err != nil {
		report.Status = "unhealthy"
		report.Message = err.Error()
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return report
	}
	report.Details["ping"] = pong

	pool := h.redis.PoolStats()
	report.Details["total_conns"] = pool.TotalConns
	report.Details["idle_conns"] = pool.IdleConns
	report.Details["stale_conns"] = pool.StaleConns

	report.ResponseTime = time.Since(start).String()
	return report
}

// checkQueues summarizes the asynq queues the worker binary consumes
// (critical for low-stock alerts, default, low for analytics and cleanup).
func (h *HealthHandler) checkQueues(ctx context.Context) DependencyReport {
	start := time.Now()
	report := DependencyReport{
		Status:  "healthy",
		Details: make(map[string]any),
	}

	queues, err := h.inspector.Queues()
	if err != nil {
		report.Status = "unhealthy"
		report.Message = err.Error()
		h.logger.ErrorContext(ctx, "queue health check failed",
			slog.String("error", err.Error()))
		return report
	}

	stats := make(map[string]any, len(queues))
	for _, queue := range queues {
		info, err := h.inspector.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		stats[queue] = map[string]any{
			"size":      info.Size,
			"active":    info.Active,
			"pending":   info.Pending,
			"scheduled": info.Scheduled,
			"retry":     info.Retry,
			"archived":  info.Archived,
		}
	}
	report.Details["queues"] = stats

	if servers, err := h.inspector.Servers(); err == nil && len(servers) > 0 {
		report.Details["servers"] = len(servers)
		report.Details["workers"] = servers[0].ActiveWorkers
	}

	report.ResponseTime = time.Since(start).String()
	return report
}

func runtimeGauges() RuntimeReport {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeReport{
		GoVersion:      runtime.Version(),
		NumGoroutines:  runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		MemoryAllocMB:  mem.Alloc / 1024 / 1024,
		MemorySysMB:    mem.Sys / 1024 / 1024,
		GCPauseTotalMs: mem.PauseTotalNs / 1000 / 1000,
		NumGC:          mem.NumGC,
	}
}

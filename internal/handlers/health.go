package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/schoolfinder/internal/middleware"
	"github.com/stwalsh4118/schoolfinder/internal/services"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for database health checks
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is implemented by *database.Database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatasetStatus reports the lifecycle of the school dataset.
type DatasetStatus interface {
	Status() services.Status
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	dataset   DatasetStatus
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance. db may be nil
// when the dataset is not served from PostgreSQL.
func NewHealthHandler(dataset DatasetStatus, db Pinger, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		dataset:   dataset,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Dataset  string `json:"dataset"`
	Database string `json:"database,omitempty"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string     `json:"version"`
	Environment string     `json:"environment"`
	Uptime      string     `json:"uptime"`
	Dataset     string     `json:"dataset"`
	Schools     int        `json:"schools"`
	Skipped     int        `json:"skipped"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
}

// Health handles GET /health endpoint.
// This is a basic health check that always returns 200 OK.
// It does not check any dependencies and is used for basic liveness checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Returns 200 OK once the dataset is loaded (and the database answers,
// when one is configured), 503 Service Unavailable otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	status := h.dataset.Status()
	resp := ReadyResponse{
		Status:  "ready",
		Dataset: string(status.State),
	}
	ready := status.State == services.StateReady

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
		defer cancel()

		resp.Database = "connected"
		if err := h.db.Ping(ctx); err != nil {
			// Get logger from context (set by logger middleware)
			if log := middleware.GetLogger(c); log != nil {
				log.Error("Database health check failed", err, map[string]interface{}{
					"timeout": HealthCheckTimeout.String(),
				})
			}
			resp.Database = "disconnected"
			ready = false
		}
	}

	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Info handles GET /api/v1/info endpoint.
// Returns API metadata including version, environment, uptime and the
// size of the loaded dataset.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime)
	status := h.dataset.Status()

	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(uptime),
		Dataset:     string(status.State),
		Schools:     status.Schools,
		Skipped:     status.Skipped,
		LoadedAt:    status.LoadedAt,
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-ai-service/internal/observability"
	"github.com/spec-kit/support-ai-service/internal/persistence"
)

// HealthHandler responds to liveness, readiness and health probes.
type HealthHandler struct {
	serviceName  string
	version      string
	postgres     *persistence.Postgres
	redis        *persistence.Redis
	metrics      *observability.Metrics
	aiConfigured bool
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis, metrics *observability.Metrics, aiConfigured bool) *HealthHandler {
	return &HealthHandler{
		serviceName:  serviceName,
		version:      version,
		postgres:     postgres,
		redis:        redis,
		metrics:      metrics,
		aiConfigured: aiConfigured,
	}
}

// Health reports basic service health.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	depStatus, ready := h.dependencyStatus()
	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}
	return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
		"status":       "not_ready",
		"dependencies": depStatus,
	})
}

// Detailed reports dependency status plus service counters.
func (h *HealthHandler) Detailed(c *fiber.Ctx) error {
	depStatus, ready := h.dependencyStatus()
	depStatus["ai_planner"] = "configured"
	if !h.aiConfigured {
		// Degraded mode: the pipeline still runs with fallback responses.
		depStatus["ai_planner"] = "not_configured"
	}

	status := "healthy"
	if !ready {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":       status,
		"service":      h.serviceName,
		"version":      h.version,
		"dependencies": depStatus,
		"counters":     h.metrics.Snapshot(),
	})
}

func (h *HealthHandler) dependencyStatus() (fiber.Map, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.postgres.Ping(ctx); err != nil {
		depStatus["postgres"] = err.Error()
		ready = false
	} else {
		depStatus["postgres"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			depStatus["redis"] = err.Error()
			ready = false
		} else {
			depStatus["redis"] = "ok"
		}
	}

	return depStatus, ready
}

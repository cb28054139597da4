package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-ai-service/internal/api/http/handlers"
	"github.com/spec-kit/support-ai-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Approvals      *handlers.ApprovalsHandler
	Conversations  *handlers.ConversationsHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Health)
	app.Get("/health/detailed", cfg.Health.Detailed)
	app.Get("/live", cfg.Health.Live)
	app.Get("/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/process-query", cfg.Tickets.ProcessQuery)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/approve", cfg.Approvals.Decide)

	app.Get("/approvals/:id", cfg.AuthMiddleware.Handle, cfg.Approvals.GetApproval)
	app.Get("/conversations", cfg.AuthMiddleware.Handle, cfg.Conversations.List)
	app.Get("/analytics/dashboard", cfg.AuthMiddleware.Handle, cfg.Analytics.Dashboard)
}

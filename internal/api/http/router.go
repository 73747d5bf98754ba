package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/learnstack/support-service/internal/api/http/handlers"
	"github.com/learnstack/support-service/internal/auth"
	"github.com/learnstack/support-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AgentTickets   *handlers.AgentTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Auth.RegisterUser)
	authGroup.Post("/users/login", cfg.Auth.LoginUser)
	authGroup.Post("/agents/login", cfg.Auth.LoginAgent)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	agent := app.Group("/agent/tickets", cfg.AuthMiddleware.Handle, auth.RequireAgentRole())
	agent.Get("", cfg.AgentTickets.ListTickets)
	agent.Get("/:id", cfg.AgentTickets.GetTicket)
	agent.Post("/:id/reply", cfg.AgentTickets.Reply)
	agent.Patch("/:id/status", cfg.AgentTickets.UpdateStatus)
	agent.Patch("/:id/priority", cfg.AgentTickets.UpdatePriority)
	agent.Get("/:id/history", cfg.AgentTickets.ListHistory)
	agent.Post("/import", auth.RequireAgentRole(domain.AgentRoleAdmin), cfg.AgentTickets.ImportTickets)
}

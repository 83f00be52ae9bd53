package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/dashboard-auth/internal/api/http/handlers"
	"github.com/spec-kit/dashboard-auth/internal/auth"
	"github.com/spec-kit/dashboard-auth/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Dashboard    *handlers.DashboardHandler
	Gate         *auth.Gate
	LoginLimiter fiber.Handler
	Metrics      nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	app.Get("/", cfg.Auth.Index)
	app.Get("/login", cfg.Auth.ShowLogin)
	if cfg.LoginLimiter != nil {
		app.Post("/login", cfg.LoginLimiter, cfg.Auth.Login)
	} else {
		app.Post("/login", cfg.Auth.Login)
	}
	app.Get("/logout", cfg.Auth.Logout)

	app.Get("/dashboard", cfg.Gate.RequireValidToken(), cfg.Dashboard.Dispatch)
	app.Get("/user/dashboard", cfg.Gate.RequireValidToken(), cfg.Dashboard.User)
	app.Get("/admin/dashboard", cfg.Gate.RequireRole(domain.RoleAdmin), cfg.Dashboard.Admin)
}

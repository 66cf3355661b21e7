package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup/initiate", cfg.Auth.SignupInitiate)
	authGroup.Post("/signup/verify", cfg.Auth.SignupVerify)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/token/renew", cfg.Auth.Renew)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/consume", cfg.Auth.ConsumePasswordReset)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Get("/sessions", cfg.Auth.Sessions)
	protected.Post("/password/change", cfg.Auth.ChangePassword)

	adminGroup := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	adminGroup.Post("/users/:id/suspend", cfg.Admin.Suspend)
	adminGroup.Post("/users/:id/unsuspend", cfg.Admin.Unsuspend)
}

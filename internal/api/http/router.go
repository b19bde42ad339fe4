package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Users  *handlers.UsersHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	usersGroup := app.Group("/users")
	usersGroup.Post("/", cfg.Users.Create)
	usersGroup.Post("/admin", cfg.Users.CreateAdmin)
	usersGroup.Get("/", cfg.Users.List)
	usersGroup.Get("/:id", cfg.Users.Get)
	usersGroup.Patch("/:id", cfg.Users.Update)
	usersGroup.Delete("/:id", cfg.Users.Delete)
}

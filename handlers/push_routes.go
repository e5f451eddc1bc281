// handlers/push_routes.go
package handlers

import (
	"nightlife-platform/middleware"
	"nightlife-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPushRoutes(app *fiber.App, pushService *services.PushService) {
	userCtx := middleware.UserContextMiddleware()

	app.Post("/push/subscriptions", userCtx, pushService.Subscribe)
	app.Delete("/push/subscriptions", userCtx, pushService.Unsubscribe)
}

// handlers/event_routes.go
package handlers

import (
	"errors"

	"nightlife-platform/middleware"
	"nightlife-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEventRoutes(app *fiber.App, eventService *services.EventService, cancellationService *services.CancellationService) {
	// 🔓 Public browse routes
	app.Get("/events", eventService.ListEvents)
	app.Get("/events/:id", eventService.GetEvent)

	// 🔐 Secured routes — require user context, guarded per-route
	userCtx := middleware.UserContextMiddleware()

	app.Post("/events", userCtx, eventService.CreateEvent)
	app.Put("/events/:id", userCtx, eventService.UpdateEvent)
	app.Patch("/events/:id", userCtx, eventService.UpdateEvent)
	app.Post("/events/:id/flyer", userCtx, eventService.UploadFlyer)
	app.Get("/venues/:id/events", userCtx, eventService.ListVenueEvents)

	// Cancellation workflow. The outcome is returned whether or not all
	// refunds went through; failed refunds surface in the counters and stay
	// reprocessable below.
	app.Post("/events/:id/cancel", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		outcome, err := cancellationService.CancelEvent(c.Context(), c.Params("id"), userID)
		if err != nil {
			return cancellationErrorResponse(c, err)
		}
		return c.JSON(outcome)
	})

	app.Post("/events/:id/refunds/reprocess", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		outcome, err := cancellationService.ReprocessRefunds(c.Context(), c.Params("id"), userID)
		if err != nil {
			return cancellationErrorResponse(c, err)
		}
		return c.JSON(outcome)
	})
}

func cancellationErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEventNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
	case errors.Is(err, services.ErrNotAuthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized to cancel this event"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Cancellation failed", "cause": err.Error()})
	}
}

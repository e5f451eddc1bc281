// handlers/ticket_routes.go
package handlers

import (
	"nightlife-platform/middleware"
	"nightlife-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTicketRoutes(app *fiber.App, ticketService *services.TicketService) {
	// Every ticket route acts as a user — guard per-route, not via a "/" group.
	userCtx := middleware.UserContextMiddleware()

	app.Post("/events/:id/rsvp", userCtx, ticketService.RSVP)
	app.Post("/events/:id/tickets", userCtx, ticketService.PurchaseTicket)
	app.Get("/me/tickets", userCtx, ticketService.MyTickets)

	// Door check-in (venue portal)
	app.Post("/tickets/:id/checkin", userCtx, ticketService.CheckIn)

	// VIP tables
	app.Post("/events/:id/vip", userCtx, ticketService.RequestVIP)
	app.Get("/events/:id/vip", userCtx, ticketService.ListVIPRequests)
	app.Post("/vip/:id/decision", userCtx, ticketService.DecideVIP)
}

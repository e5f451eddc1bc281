// handlers/venue_routes.go
package handlers

import (
	"nightlife-platform/middleware"
	"nightlife-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupVenueRoutes(app *fiber.App, venueService *services.VenueService, socialService *services.SocialService) {
	// 🔓 Public routes — *no user context*, but **still require Gateway auth**
	app.Get("/venues", venueService.SearchVenues)
	app.Get("/venues/by-slug/:slug", venueService.GetVenueBySlug)

	// 🔐 Secured routes — require user context (userID, roles). The guard is
	// attached per-route: a "/"-prefixed group would sit in the handler stack
	// and gate every route registered after it, public ones included.
	userCtx := middleware.UserContextMiddleware()

	app.Post("/venues", userCtx, venueService.CreateVenue)
	app.Put("/venues/:id", userCtx, venueService.UpdateVenue)
	app.Patch("/venues/:id", userCtx, venueService.UpdateVenue)
	app.Post("/venues/:id/cover-photo", userCtx, venueService.UploadCoverPhoto)

	// Promotions (venue portal)
	app.Post("/venues/:id/promotions", userCtx, venueService.CreatePromotion)
	app.Get("/venues/:id/promotions", userCtx, venueService.ListPromotions)
	app.Patch("/promotions/:promo_id", userCtx, venueService.UpdatePromotion)

	// Social graph
	app.Post("/follows/:user_id", userCtx, socialService.Follow)
	app.Delete("/follows/:user_id", userCtx, socialService.Unfollow)
	app.Get("/me/feed", userCtx, socialService.FriendsFeed)
}

// handlers/referral_routes.go
package handlers

import (
	"errors"

	"nightlife-platform/middleware"
	"nightlife-platform/models"
	"nightlife-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app *fiber.App, referralService *services.ReferralService) {
	// Leaderboard is part of the public venue page
	app.Get("/venues/:id/leaderboard", func(c *fiber.Ctx) error {
		entries, err := referralService.GetLeaderboard(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load leaderboard"})
		}
		return c.JSON(entries)
	})

	userCtx := middleware.UserContextMiddleware()

	// First-contact profile bootstrap; mints the referral code.
	app.Post("/me/profile", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Username     string `json:"username"`
			Email        string `json:"email"`
			ReferralCode string `json:"referral_code"` // who referred this signup, if anyone
			VenueID      string `json:"venue_id"`      // venue the signup was attributed through
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		profile, err := referralService.EnsureProfile(userID, req.Username, req.Email)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create profile"})
		}

		var referral *services.ReferralResult
		if req.ReferralCode != "" && req.VenueID != "" {
			res, rerr := referralService.RecordReferral(req.ReferralCode, userID, models.ReferralKindSignup, req.VenueID)
			if rerr != nil {
				return referralErrorResponse(c, rerr)
			}
			referral = res
		}

		return c.JSON(fiber.Map{"profile": profile, "referral": referral})
	})

	// Explicit attribution endpoint — surfaces the full ledger contract
	// (success / already credited / typed error) to the caller.
	app.Post("/referrals", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			ReferralCode string `json:"referral_code"`
			Kind         string `json:"kind"` // signup | rsvp
			TargetID     string `json:"target_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		result, err := referralService.RecordReferral(req.ReferralCode, userID, req.Kind, req.TargetID)
		if err != nil {
			return referralErrorResponse(c, err)
		}
		status := fiber.StatusCreated
		if result.AlreadyCredited {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(result)
	})

	app.Get("/me/promoter", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		status, err := referralService.GetTierStatus(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load tier status"})
		}
		return c.JSON(status)
	})
}

func referralErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidReferral):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid referral"})
	case errors.Is(err, services.ErrUnknownReferralCode):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown referral code"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Referral failed", "cause": err.Error()})
	}
}

package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"nightlife-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketService struct {
	DB        *gorm.DB
	Referrals *ReferralService
}

func NewTicketService(db *gorm.DB, referrals *ReferralService) *TicketService {
	return &TicketService{DB: db, Referrals: referrals}
}

// loadOpenEvent fetches an event that can still take tickets.
func (s *TicketService) loadOpenEvent(c *fiber.Ctx, eventID string) (*models.Event, error) {
	var event models.Event
	if err := s.DB.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if event.Status != models.EventStatusPublished || event.IsCancelled {
		return nil, c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Event is not open for tickets"})
	}
	if event.Capacity > 0 {
		var sold int64
		s.DB.Model(&models.Ticket{}).
			Where("event_id = ? AND status = ?", event.ID, models.TicketStatusConfirmed).
			Count(&sold)
		if sold >= int64(event.Capacity) {
			return nil, c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Event is sold out"})
		}
	}
	return &event, nil
}

// attributeReferral runs best-effort RSVP attribution when a code rides along
// with a ticket. Ledger errors never fail the ticket itself — the ticket is
// the product, the credit is a side channel — but the outcome is reported
// back so the client can show "code not recognized".
func (s *TicketService) attributeReferral(code, userID, eventID string) *ReferralResult {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	res, err := s.Referrals.RecordReferral(code, userID, models.ReferralKindRSVP, eventID)
	if err != nil {
		log.Printf("⚠️ Referral attribution skipped for %s on %s: %v", userID, eventID, err)
		return nil
	}
	return res
}

// RSVP creates a free confirmed ticket for the current user. Submitting twice
// returns the existing ticket rather than duplicating it.
func (s *TicketService) RSVP(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	event, ferr := s.loadOpenEvent(c, c.Params("id"))
	if event == nil {
		return ferr
	}

	var req struct {
		ReferralCode string `json:"referral_code"`
	}
	_ = c.BodyParser(&req) // body is optional for RSVP

	var existing models.Ticket
	err := s.DB.Where("event_id = ? AND user_id = ? AND status = ?",
		event.ID, userID, models.TicketStatusConfirmed).First(&existing).Error
	if err == nil {
		return c.JSON(fiber.Map{"ticket": existing, "already_registered": true})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	ticket := models.Ticket{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		UserID:        userID,
		PaymentStatus: models.PaymentStatusUnpaid,
		Status:        models.TicketStatusConfirmed,
	}
	if err := s.DB.Create(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a double-submit race to the idx_ticket_active guard —
			// hand back the winner's ticket.
			if err2 := s.DB.Where("event_id = ? AND user_id = ? AND status = ?",
				event.ID, userID, models.TicketStatusConfirmed).First(&existing).Error; err2 == nil {
				return c.JSON(fiber.Map{"ticket": existing, "already_registered": true})
			}
		}
		log.Printf("DB Error creating RSVP ticket: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to RSVP"})
	}

	referral := s.attributeReferral(req.ReferralCode, userID, event.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ticket": ticket, "referral": referral})
}

// PurchaseTicket records a paid ticket. The checkout itself happened at the
// payment provider — the client hands us the captured reference and amount,
// which is everything a later refund needs.
func (s *TicketService) PurchaseTicket(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	event, ferr := s.loadOpenEvent(c, c.Params("id"))
	if event == nil {
		return ferr
	}

	var req struct {
		PaymentRef   string  `json:"payment_ref"`
		AmountPaid   float64 `json:"amount_paid"`
		ReferralCode string  `json:"referral_code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.PaymentRef == "" || req.AmountPaid <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_ref and amount_paid are required"})
	}

	ticket := models.Ticket{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		UserID:        userID,
		PaymentStatus: models.PaymentStatusPaid,
		AmountPaid:    req.AmountPaid,
		PaymentRef:    req.PaymentRef,
		Status:        models.TicketStatusConfirmed,
	}
	if err := s.DB.Create(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already holding a ticket for this event"})
		}
		log.Printf("DB Error creating paid ticket: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record ticket"})
	}

	referral := s.attributeReferral(req.ReferralCode, userID, event.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ticket": ticket, "referral": referral})
}

// MyTickets lists the current user's tickets, newest event first
func (s *TicketService) MyTickets(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var tickets []models.Ticket
	if err := s.DB.Where("user_id = ?", userID).
		Preload("Event").Preload("Event.Venue").
		Order("created_at DESC").
		Find(&tickets).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(tickets)
}

// CheckIn marks a confirmed ticket as checked in at the door (venue owner
// only). Check-in is an orthogonal flag — the ticket stays confirmed — and
// repeating it is a no-op.
func (s *TicketService) CheckIn(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var ticket models.Ticket
	if err := s.DB.Preload("Event").Preload("Event.Venue").
		First(&ticket, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Ticket not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if ticket.Event == nil || ticket.Event.Venue == nil || ticket.Event.Venue.OwnerUserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the venue owner"})
	}
	if ticket.Status != models.TicketStatusConfirmed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only confirmed tickets can be checked in"})
	}

	if !ticket.CheckedIn {
		now := time.Now().UTC()
		updates := map[string]interface{}{"checked_in": true, "checked_in_at": now}
		if err := s.DB.Model(&ticket).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check in"})
		}
		ticket.CheckedIn = true
		ticket.CheckedInAt = &now
	}
	return c.JSON(fiber.Map{"message": "Checked in", "ticket": ticket})
}

// --- VIP reservations ---

// RequestVIP files a table request for an event
func (s *TicketService) RequestVIP(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	event, ferr := s.loadOpenEvent(c, c.Params("id"))
	if event == nil {
		return ferr
	}

	var req struct {
		PartySize    int     `json:"party_size"`
		MinimumSpend float64 `json:"minimum_spend"`
		Notes        string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.PartySize <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "party_size must be positive"})
	}

	vip := models.VIPReservation{
		ID:           uuid.NewString(),
		EventID:      event.ID,
		UserID:       userID,
		PartySize:    req.PartySize,
		MinimumSpend: req.MinimumSpend,
		Notes:        req.Notes,
		Status:       models.VIPStatusRequested,
	}
	if err := s.DB.Create(&vip).Error; err != nil {
		log.Printf("DB Error creating VIP request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to file VIP request"})
	}
	return c.Status(fiber.StatusCreated).JSON(vip)
}

// ListVIPRequests returns an event's VIP requests (venue owner only)
func (s *TicketService) ListVIPRequests(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var event models.Event
	if err := s.DB.Preload("Venue").First(&event, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if event.Venue == nil || event.Venue.OwnerUserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the venue owner"})
	}

	var vips []models.VIPReservation
	if err := s.DB.Where("event_id = ?", event.ID).Order("created_at asc").Find(&vips).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(vips)
}

// DecideVIP approves or declines a pending VIP request (venue owner only)
func (s *TicketService) DecideVIP(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var vip models.VIPReservation
	if err := s.DB.First(&vip, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "VIP request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var event models.Event
	if err := s.DB.Preload("Venue").First(&event, "id = ?", vip.EventID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if event.Venue == nil || event.Venue.OwnerUserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the venue owner"})
	}
	if vip.Status != models.VIPStatusRequested {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "VIP request already decided"})
	}

	var req struct {
		Decision string `json:"decision"` // approve | decline
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	switch req.Decision {
	case "approve":
		vip.Status = models.VIPStatusApproved
	case "decline":
		vip.Status = models.VIPStatusDeclined
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "decision must be approve or decline"})
	}
	now := time.Now().UTC()
	vip.DecidedAt = &now

	if err := s.DB.Save(&vip).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save decision"})
	}
	return c.JSON(vip)
}

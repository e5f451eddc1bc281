package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"nightlife-platform/models"
	"nightlife-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"gorm.io/gorm"
)

type EventService struct {
	DB *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

func (s *EventService) requireOwnedEvent(c *fiber.Ctx, eventID string) (*models.Event, error) {
	userID := c.Locals("user_id").(string)
	var event models.Event
	if err := s.DB.Preload("Venue").First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if event.Venue == nil || event.Venue.OwnerUserID != userID {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the venue owner"})
	}
	return &event, nil
}

// CreateEvent adds an event under a venue the current user owns. Status may
// be draft, published, or scheduled with a publish_at for the scheduler.
func (s *EventService) CreateEvent(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		VenueID     string     `json:"venue_id"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		StartsAt    time.Time  `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
		TicketPrice float64    `json:"ticket_price"`
		Capacity    int        `json:"capacity"`
		Status      string     `json:"status"`
		PublishAt   *time.Time `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" || req.VenueID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and venue_id are required"})
	}
	if req.StartsAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "starts_at is required"})
	}
	if req.TicketPrice < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ticket_price cannot be negative"})
	}

	var venue models.Venue
	if err := s.DB.First(&venue, "id = ?", req.VenueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Venue not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if venue.OwnerUserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the venue owner"})
	}

	status := req.Status
	switch status {
	case "", models.EventStatusDraft:
		status = models.EventStatusDraft
	case models.EventStatusPublished:
	case models.EventStatusScheduled:
		if req.PublishAt == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at is required for scheduled events"})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}

	event := models.Event{
		ID:          uuid.NewString(),
		VenueID:     venue.ID,
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		TicketPrice: req.TicketPrice,
		Capacity:    req.Capacity,
		Status:      status,
		PublishAt:   req.PublishAt,
	}
	if err := s.DB.Create(&event).Error; err != nil {
		log.Printf("DB Error creating event: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create event"})
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// UpdateEvent edits event details (owner only). Cancellation is not handled
// here — that goes through the cancellation workflow endpoint.
func (s *EventService) UpdateEvent(c *fiber.Ctx) error {
	event, ferr := s.requireOwnedEvent(c, c.Params("id"))
	if event == nil {
		return ferr
	}
	if event.IsCancelled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Cancelled events cannot be edited"})
	}

	var req struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
		TicketPrice *float64   `json:"ticket_price"`
		Capacity    *int       `json:"capacity"`
		Status      *string    `json:"status"`
		PublishAt   *time.Time `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		event.Name = *req.Name
		event.Slug = slug.Make(*req.Name)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt
	}
	if req.TicketPrice != nil && *req.TicketPrice >= 0 {
		event.TicketPrice = *req.TicketPrice
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if req.Status != nil {
		switch *req.Status {
		case models.EventStatusDraft, models.EventStatusPublished:
			event.Status = *req.Status
		case models.EventStatusScheduled:
			if req.PublishAt == nil && event.PublishAt == nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at is required for scheduled events"})
			}
			event.Status = models.EventStatusScheduled
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
	}
	if req.PublishAt != nil {
		event.PublishAt = req.PublishAt
	}

	if err := s.DB.Save(event).Error; err != nil {
		log.Printf("DB Error updating event: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update event"})
	}
	return c.JSON(event)
}

// UploadFlyer stores the event flyer on R2 (local uploads dir as fallback)
func (s *EventService) UploadFlyer(c *fiber.Ctx) error {
	event, ferr := s.requireOwnedEvent(c, c.Params("id"))
	if event == nil {
		return ferr
	}

	fileHeader, err := c.FormFile("flyer")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "flyer file is required"})
	}

	key := fmt.Sprintf("events/%s/flyer-%s%s", event.ID, uuid.NewString()[:8], utils.SafeExt(fileHeader.Filename))
	url, err := utils.StoreUpload(fileHeader, key)
	if err != nil {
		log.Printf("Upload failed for event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store flyer"})
	}

	event.FlyerURL = url
	if err := s.DB.Save(event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save flyer URL"})
	}
	return c.JSON(fiber.Map{"flyer_url": url})
}

// GetEvent returns a published event with its venue (public)
func (s *EventService) GetEvent(c *fiber.Ctx) error {
	var event models.Event
	if err := s.DB.Preload("Venue").First(&event, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if event.Status != models.EventStatusPublished {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
	}
	return c.JSON(event)
}

// ListEvents returns upcoming published events for the map/browse view,
// optionally filtered by city, venue or search text.
func (s *EventService) ListEvents(c *fiber.Ctx) error {
	city := c.Query("city", "")
	venueID := c.Query("venue_id", "")
	query := c.Query("q", "")

	db := s.DB.Model(&models.Event{}).
		Preload("Venue").
		Where("status = ? AND is_cancelled = ? AND starts_at >= ?",
			models.EventStatusPublished, false, time.Now().UTC()).
		Limit(200)

	if venueID != "" {
		db = db.Where("venue_id = ?", venueID)
	}
	if city != "" {
		db = db.Where("venue_id IN (SELECT id FROM venues WHERE LOWER(city) = ?)", strings.ToLower(city))
	}
	if query != "" {
		searchTerm := "%" + strings.ToLower(unidecode.Unidecode(strings.TrimSpace(query))) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var events []models.Event
	if err := db.Order("starts_at asc").Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}
	return c.JSON(events)
}

// ListVenueEvents returns all of a venue's events, drafts included (owner only)
func (s *EventService) ListVenueEvents(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var venue models.Venue
	if err := s.DB.First(&venue, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Venue not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if venue.OwnerUserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the venue owner"})
	}

	var events []models.Event
	if err := s.DB.Where("venue_id = ?", venue.ID).Order("starts_at DESC").Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(events)
}

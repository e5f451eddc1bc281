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

type VenueService struct {
	DB *gorm.DB
}

func NewVenueService(db *gorm.DB) *VenueService {
	return &VenueService{DB: db}
}

// uniqueVenueSlug derives a URL slug from the name, suffixing on collision.
func (s *VenueService) uniqueVenueSlug(name string) string {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		s.DB.Model(&models.Venue{}).Where("slug = ?", candidate).Count(&count)
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// CreateVenue registers a venue owned by the current user
func (s *VenueService) CreateVenue(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Address     string  `json:"address"`
		City        string  `json:"city"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}

	venue := models.Venue{
		ID:          uuid.NewString(),
		OwnerUserID: userID,
		Name:        req.Name,
		Slug:        s.uniqueVenueSlug(req.Name),
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	if err := s.DB.Create(&venue).Error; err != nil {
		log.Printf("DB Error creating venue: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create venue"})
	}
	return c.Status(fiber.StatusCreated).JSON(venue)
}

// requireOwnedVenue loads a venue and checks the current user owns it.
func (s *VenueService) requireOwnedVenue(c *fiber.Ctx, venueID string) (*models.Venue, error) {
	userID := c.Locals("user_id").(string)
	var venue models.Venue
	if err := s.DB.First(&venue, "id = ?", venueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Venue not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if venue.OwnerUserID != userID {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the venue owner"})
	}
	return &venue, nil
}

// UpdateVenue updates venue details (owner only)
func (s *VenueService) UpdateVenue(c *fiber.Ctx) error {
	venue, ferr := s.requireOwnedVenue(c, c.Params("id"))
	if venue == nil {
		return ferr
	}

	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Address     *string  `json:"address"`
		City        *string  `json:"city"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		venue.Name = *req.Name
	}
	if req.Description != nil {
		venue.Description = *req.Description
	}
	if req.Address != nil {
		venue.Address = *req.Address
	}
	if req.City != nil {
		venue.City = *req.City
	}
	if req.Latitude != nil {
		venue.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		venue.Longitude = *req.Longitude
	}

	if err := s.DB.Save(venue).Error; err != nil {
		log.Printf("DB Error updating venue: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update venue"})
	}
	return c.JSON(venue)
}

// UploadCoverPhoto stores the venue cover image on R2 (local uploads dir as fallback)
func (s *VenueService) UploadCoverPhoto(c *fiber.Ctx) error {
	venue, ferr := s.requireOwnedVenue(c, c.Params("id"))
	if venue == nil {
		return ferr
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is required"})
	}

	key := fmt.Sprintf("venues/%s/cover-%s%s", venue.ID, uuid.NewString()[:8], utils.SafeExt(fileHeader.Filename))
	url, err := utils.StoreUpload(fileHeader, key)
	if err != nil {
		log.Printf("Upload failed for venue %s: %v", venue.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store photo"})
	}

	venue.CoverPhotoURL = url
	if err := s.DB.Save(venue).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save photo URL"})
	}
	return c.JSON(fiber.Map{"cover_photo_url": url})
}

// GetVenueBySlug returns the public venue page data: venue, its published
// promotions and upcoming published events.
func (s *VenueService) GetVenueBySlug(c *fiber.Ctx) error {
	var venue models.Venue
	if err := s.DB.Where("slug = ?", c.Params("slug")).First(&venue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Venue not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	now := time.Now().UTC()
	var promos []models.Promotion
	s.DB.Where("venue_id = ? AND published = ?", venue.ID, true).
		Where("(ends_at IS NULL OR ends_at >= ?)", now).
		Order("starts_at asc").
		Find(&promos)

	var events []models.Event
	s.DB.Where("venue_id = ? AND status = ? AND is_cancelled = ? AND starts_at >= ?",
		venue.ID, models.EventStatusPublished, false, now).
		Order("starts_at asc").
		Find(&events)

	return c.JSON(fiber.Map{
		"venue":      venue,
		"promotions": promos,
		"events":     events,
	})
}

// SearchVenues filters venues by city and free-text query. The query is
// unidecoded so "Café Réalité" matches "cafe realite".
func (s *VenueService) SearchVenues(c *fiber.Ctx) error {
	query := c.Query("q", "")
	city := c.Query("city", "")

	db := s.DB.Model(&models.Venue{}).Limit(100)
	if city != "" {
		db = db.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if query != "" {
		searchTerm := "%" + strings.ToLower(unidecode.Unidecode(strings.TrimSpace(query))) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var venues []models.Venue
	if err := db.Order("name asc").Find(&venues).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}
	return c.JSON(venues)
}

// --- Promotions ---

// CreatePromotion adds a promo entry to the venue page (owner only)
func (s *VenueService) CreatePromotion(c *fiber.Ctx) error {
	venue, ferr := s.requireOwnedVenue(c, c.Params("id"))
	if venue == nil {
		return ferr
	}

	var req struct {
		Title     string     `json:"title"`
		Details   string     `json:"details"`
		StartsAt  *time.Time `json:"starts_at"`
		EndsAt    *time.Time `json:"ends_at"`
		Published bool       `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ends_at must be after starts_at"})
	}

	promo := models.Promotion{
		ID:        uuid.NewString(),
		VenueID:   venue.ID,
		Title:     req.Title,
		Details:   req.Details,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Published: req.Published,
	}
	if err := s.DB.Create(&promo).Error; err != nil {
		log.Printf("DB Error creating promotion: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create promotion"})
	}
	return c.Status(fiber.StatusCreated).JSON(promo)
}

// ListPromotions returns all of the venue's promos, drafts included (owner only)
func (s *VenueService) ListPromotions(c *fiber.Ctx) error {
	venue, ferr := s.requireOwnedVenue(c, c.Params("id"))
	if venue == nil {
		return ferr
	}
	var promos []models.Promotion
	if err := s.DB.Where("venue_id = ?", venue.ID).Order("created_at DESC").Find(&promos).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(promos)
}

// UpdatePromotion edits or (un)publishes a promo (owner only)
func (s *VenueService) UpdatePromotion(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var promo models.Promotion
	if err := s.DB.First(&promo, "id = ?", c.Params("promo_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Promotion not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var venue models.Venue
	if err := s.DB.First(&venue, "id = ?", promo.VenueID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if venue.OwnerUserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the venue owner"})
	}

	var req struct {
		Title     *string    `json:"title"`
		Details   *string    `json:"details"`
		StartsAt  *time.Time `json:"starts_at"`
		EndsAt    *time.Time `json:"ends_at"`
		Published *bool      `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Title != nil {
		promo.Title = *req.Title
	}
	if req.Details != nil {
		promo.Details = *req.Details
	}
	if req.StartsAt != nil {
		promo.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		promo.EndsAt = req.EndsAt
	}
	if req.Published != nil {
		promo.Published = *req.Published
	}

	if err := s.DB.Save(&promo).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update promotion"})
	}
	return c.JSON(promo)
}

package services

import (
	"errors"
	"time"

	"nightlife-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SocialService struct {
	DB *gorm.DB
}

func NewSocialService(db *gorm.DB) *SocialService {
	return &SocialService{DB: db}
}

// Follow adds the target user to the current user's follow list (idempotent)
func (s *SocialService) Follow(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	targetID := c.Params("user_id")
	if targetID == "" || targetID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid target user"})
	}

	follow := models.Follow{
		ID:             uuid.NewString(),
		FollowerUserID: userID,
		FolloweeUserID: targetID,
	}
	if err := s.DB.Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(fiber.Map{"message": "Already following"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to follow"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Following"})
}

// Unfollow removes the target from the current user's follow list
func (s *SocialService) Unfollow(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	targetID := c.Params("user_id")

	result := s.DB.Where("follower_user_id = ? AND followee_user_id = ?", userID, targetID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to unfollow"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not following"})
	}
	return c.JSON(fiber.Map{"message": "Unfollowed"})
}

// FriendsFeed lists upcoming events that people the current user follows are
// going to, newest RSVP first.
func (s *SocialService) FriendsFeed(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	type FeedItem struct {
		Username  string    `json:"username"`
		UserID    string    `json:"user_id"`
		EventID   string    `json:"event_id"`
		EventName string    `json:"event_name"`
		VenueName string    `json:"venue_name"`
		StartsAt  time.Time `json:"starts_at"`
		CreatedAt time.Time `json:"created_at"`
	}

	var items []FeedItem
	err := s.DB.Raw(`
		SELECT up.username, t.user_id, t.event_id, e.name AS event_name,
		       v.name AS venue_name, e.starts_at, t.created_at
		FROM tickets t
		INNER JOIN events e ON e.id = t.event_id
		INNER JOIN venues v ON v.id = e.venue_id
		LEFT JOIN user_profiles up ON up.external_user_id = t.user_id
		WHERE t.user_id IN (SELECT followee_user_id FROM follows WHERE follower_user_id = ?)
		  AND t.status = 'confirmed'
		  AND e.is_cancelled = ?
		  AND e.starts_at >= ?
		ORDER BY t.created_at DESC
		LIMIT 50
	`, userID, false, time.Now().UTC()).Scan(&items).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load feed"})
	}
	return c.JSON(items)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"nightlife-platform/models"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PushPayload is what the service worker receives.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

type PushService struct {
	DB *gorm.DB

	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string

	// send is swappable in tests; returns the provider's HTTP status code.
	send func(ctx context.Context, payload []byte, sub *models.PushSubscription) (int, error)
}

func NewPushService(db *gorm.DB) *PushService {
	s := &PushService{
		DB:              db,
		vapidPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		vapidPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		subscriber:      os.Getenv("VAPID_SUBSCRIBER"),
	}
	s.send = s.sendWebPush
	if s.vapidPublicKey == "" || s.vapidPrivateKey == "" {
		log.Println("⚠️  VAPID keys not set — push notifications disabled")
	}
	return s
}

func (s *PushService) sendWebPush(ctx context.Context, payload []byte, sub *models.PushSubscription) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.vapidPublicKey,
		VAPIDPrivateKey: s.vapidPrivateKey,
		TTL:             60,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// NotifyUser fans a payload out to every subscription the user holds.
// Subscriptions the push service reports gone (404/410) are deleted on the
// spot; other failures are counted and left alone — an individual dead
// endpoint must never stop the rest of the fan-out.
func (s *PushService) NotifyUser(ctx context.Context, userID string, payload PushPayload) (sent, removed int, err error) {
	if s.vapidPublicKey == "" || s.vapidPrivateKey == "" {
		return 0, 0, nil
	}

	var subs []models.PushSubscription
	if err := s.DB.Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return 0, 0, err
	}

	body, _ := json.Marshal(payload)
	for i := range subs {
		status, sendErr := s.send(ctx, body, &subs[i])
		if sendErr != nil {
			log.Printf("⚠️ Push send failed for %s: %v", subs[i].Endpoint, sendErr)
			continue
		}
		if status == http.StatusNotFound || status == http.StatusGone {
			if delErr := s.DB.Delete(&models.PushSubscription{}, "id = ?", subs[i].ID).Error; delErr != nil {
				log.Printf("⚠️ Failed to remove dead subscription %s: %v", subs[i].ID, delErr)
			} else {
				removed++
			}
			continue
		}
		if status >= 200 && status < 300 {
			sent++
		}
	}
	return sent, removed, nil
}

// --- Fiber handlers ---

// Subscribe registers (or re-registers) a push endpoint for the current user
func (s *PushService) Subscribe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endpoint and keys are required"})
	}

	sub := models.PushSubscription{
		ID:       uuid.NewString(),
		UserID:   userID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.DB.Create(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Same endpoint re-registered (possibly after login on the same
			// device) — refresh ownership and keys.
			updates := map[string]interface{}{
				"user_id": userID,
				"p256dh":  req.Keys.P256dh,
				"auth":    req.Keys.Auth,
			}
			if err := s.DB.Model(&models.PushSubscription{}).
				Where("endpoint = ?", req.Endpoint).
				Updates(updates).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to refresh subscription"})
			}
			return c.JSON(fiber.Map{"message": "Subscription refreshed"})
		}
		log.Printf("DB Error creating push subscription: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save subscription"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Subscribed", "id": sub.ID})
}

// Unsubscribe removes a push endpoint owned by the current user
func (s *PushService) Unsubscribe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.BodyParser(&req); err != nil || req.Endpoint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endpoint is required"})
	}

	result := s.DB.Where("user_id = ? AND endpoint = ?", userID, req.Endpoint).
		Delete(&models.PushSubscription{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove subscription"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subscription not found"})
	}
	return c.JSON(fiber.Map{"message": "Unsubscribed"})
}

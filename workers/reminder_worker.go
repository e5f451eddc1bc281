package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"nightlife-platform/models"
	"nightlife-platform/services"

	"gorm.io/gorm"
)

// ReminderWorker pushes "starts soon" notifications to ticket holders for
// events starting within the lookahead window. Each ticket is reminded at
// most once (reminder_sent_at gate), and a failed push for one holder never
// blocks the rest of the sweep.
type ReminderWorker struct {
	DB        *gorm.DB
	Push      *services.PushService
	Lookahead time.Duration
}

func NewReminderWorker(db *gorm.DB, push *services.PushService) *ReminderWorker {
	return &ReminderWorker{
		DB:        db,
		Push:      push,
		Lookahead: 24 * time.Hour,
	}
}

// Start runs the reminder sweep on a ticker until ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context, interval time.Duration) {
	log.Println("Starting event reminder worker...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder worker stopped.")
			return
		case <-ticker.C:
			sent, err := w.RunOnce(ctx)
			if err != nil {
				log.Printf("❌ Reminder sweep failed: %v", err)
				continue
			}
			if sent > 0 {
				log.Printf("🔔 Sent %d event reminder(s)", sent)
			}
		}
	}
}

// RunOnce performs a single sweep and returns how many reminders went out.
func (w *ReminderWorker) RunOnce(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	windowEnd := now.Add(w.Lookahead)

	var tickets []models.Ticket
	err := w.DB.
		Preload("Event").Preload("Event.Venue").
		Joins("INNER JOIN events ON events.id = tickets.event_id").
		Where("tickets.status = ? AND tickets.reminder_sent_at IS NULL", models.TicketStatusConfirmed).
		Where("events.status = ? AND events.is_cancelled = ?", models.EventStatusPublished, false).
		Where("events.starts_at BETWEEN ? AND ?", now, windowEnd).
		Find(&tickets).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.Event == nil {
			continue
		}

		venueName := ""
		if ticket.Event.Venue != nil {
			venueName = ticket.Event.Venue.Name
		}
		payload := services.PushPayload{
			Title: "Tonight: " + ticket.Event.Name,
			Body:  fmt.Sprintf("%s starts at %s — see you at %s!", ticket.Event.Name, ticket.Event.StartsAt.Format("15:04"), venueName),
			URL:   "/events/" + ticket.Event.ID,
		}

		n, _, pushErr := w.Push.NotifyUser(ctx, ticket.UserID, payload)
		if pushErr != nil {
			log.Printf("⚠️ Reminder push failed for user %s: %v", ticket.UserID, pushErr)
		}
		sent += n

		// Mark the attempt either way — reminders are best-effort and must
		// not re-fire every sweep for users with dead endpoints.
		if err := w.DB.Model(ticket).Update("reminder_sent_at", now).Error; err != nil {
			log.Printf("⚠️ Failed to mark reminder for ticket %s: %v", ticket.ID, err)
		}
	}
	return sent, nil
}

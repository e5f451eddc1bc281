package services

import (
	"context"
	"errors"
	"log"
	"time"

	"nightlife-platform/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrEventNotFound = errors.New("event not found")
)

// RefundProvider is the payments collaborator. Full refunds only; the amount
// is always the ticket's recorded paid amount.
type RefundProvider interface {
	Refund(ctx context.Context, paymentRef string, amount float64) error
}

// CancellationNotice is the per-user payload handed to the notifier.
type CancellationNotice struct {
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	EventName      string    `json:"event_name"`
	VenueName      string    `json:"venue_name"`
	EventDate      time.Time `json:"event_date"`
	WasPaid        bool      `json:"was_paid"`
	AmountRefunded float64   `json:"amount_refunded"`
}

// CancellationNotifier is the email collaborator. Sends are informational and
// best-effort; the workflow swallows failures.
type CancellationNotifier interface {
	SendCancellationNotice(ctx context.Context, notice CancellationNotice) error
}

// CancellationOutcome aggregates one CancelEvent run. Not persisted.
// NotificationsAttempted counts dispatch attempts, not deliveries; failures
// are swallowed further down.
type CancellationOutcome struct {
	TicketsAffected        int `json:"tickets_affected"`
	RefundsSucceeded       int `json:"refunds_succeeded"`
	RefundsFailed          int `json:"refunds_failed"`
	NotificationsAttempted int `json:"notifications_attempted"`
}

type CancellationService struct {
	DB       *gorm.DB
	Payments RefundProvider
	Notifier CancellationNotifier
}

func NewCancellationService(db *gorm.DB, payments RefundProvider, notifier CancellationNotifier) *CancellationService {
	return &CancellationService{DB: db, Payments: payments, Notifier: notifier}
}

// CancelEvent flips the event to cancelled and reconciles its confirmed
// tickets. The flip is a compare-and-set (single guarded UPDATE), so the
// refund loop runs at most once per event no matter how many cancel requests
// race; losers get the zero-count no-op outcome. The flip lands before any
// refund attempt — a crash mid-loop leaves the event correctly cancelled and
// the unprocessed tickets visibly confirmed for reprocessing.
func (s *CancellationService) CancelEvent(ctx context.Context, eventID, requestedBy string) (*CancellationOutcome, error) {
	var event models.Event
	if err := s.DB.Preload("Venue").First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.Venue == nil || event.Venue.OwnerUserID != requestedBy {
		return nil, ErrNotAuthorized
	}

	now := time.Now().UTC()
	res := s.DB.Model(&models.Event{}).
		Where("id = ? AND is_cancelled = ?", eventID, false).
		Updates(map[string]interface{}{"is_cancelled": true, "cancelled_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Already cancelled (or lost the race) — never re-run refunds.
		return &CancellationOutcome{}, nil
	}

	log.Printf("🚫 Event cancelled: %s (%s) by %s", event.Name, event.ID, requestedBy)
	return s.reconcileTickets(ctx, &event)
}

// ReprocessRefunds re-runs the refund loop for an already-cancelled event's
// tickets that are still confirmed (i.e. earlier refund attempts failed).
// Operator-triggered only; cancellation itself never retries.
func (s *CancellationService) ReprocessRefunds(ctx context.Context, eventID, requestedBy string) (*CancellationOutcome, error) {
	var event models.Event
	if err := s.DB.Preload("Venue").First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.Venue == nil || event.Venue.OwnerUserID != requestedBy {
		return nil, ErrNotAuthorized
	}
	if !event.IsCancelled {
		return &CancellationOutcome{}, nil
	}
	return s.reconcileTickets(ctx, &event)
}

// reconcileTickets walks the event's confirmed tickets. Each ticket is
// processed independently — one failed refund must not abort the rest — and
// the counters fold per-item outcomes into the aggregate report.
func (s *CancellationService) reconcileTickets(ctx context.Context, event *models.Event) (*CancellationOutcome, error) {
	var tickets []models.Ticket
	if err := s.DB.Where("event_id = ? AND status = ?", event.ID, models.TicketStatusConfirmed).
		Find(&tickets).Error; err != nil {
		return nil, err
	}

	outcome := &CancellationOutcome{TicketsAffected: len(tickets)}
	for i := range tickets {
		ticket := &tickets[i]
		wasPaid := ticket.PaymentStatus == models.PaymentStatusPaid &&
			ticket.AmountPaid > 0 && ticket.PaymentRef != ""
		refunded := 0.0

		if wasPaid {
			if err := s.Payments.Refund(ctx, ticket.PaymentRef, ticket.AmountPaid); err != nil {
				// Leave the ticket confirmed so the failure stays visible and
				// retriable; never mark an unrefunded ticket resolved.
				log.Printf("❌ Refund failed for ticket %s (ref %s): %v", ticket.ID, ticket.PaymentRef, err)
				outcome.RefundsFailed++
			} else {
				updates := map[string]interface{}{
					"status":          models.TicketStatusRefunded,
					"refunded_amount": ticket.AmountPaid,
				}
				if err := s.DB.Model(ticket).Updates(updates).Error; err != nil {
					log.Printf("❌ Refunded ticket %s but failed to persist status: %v", ticket.ID, err)
					outcome.RefundsFailed++
				} else {
					refunded = ticket.AmountPaid
					outcome.RefundsSucceeded++
				}
			}
		} else {
			if err := s.DB.Model(ticket).Update("status", models.TicketStatusCancelled).Error; err != nil {
				log.Printf("❌ Failed to cancel free ticket %s: %v", ticket.ID, err)
			}
		}

		s.notifyHolder(ctx, event, ticket, wasPaid, refunded, outcome)
	}

	log.Printf("📋 Cancellation reconciled for %s: %d tickets, %d refunded, %d failed",
		event.ID, outcome.TicketsAffected, outcome.RefundsSucceeded, outcome.RefundsFailed)
	return outcome, nil
}

// notifyHolder best-effort dispatches the cancellation email. Failures are
// logged and swallowed — notification is informational, not transactional.
func (s *CancellationService) notifyHolder(ctx context.Context, event *models.Event, ticket *models.Ticket, wasPaid bool, refunded float64, outcome *CancellationOutcome) {
	outcome.NotificationsAttempted++

	var holder models.UserProfile
	if err := s.DB.Where("external_user_id = ?", ticket.UserID).First(&holder).Error; err != nil {
		log.Printf("⚠️ No profile for ticket holder %s, skipping notice: %v", ticket.UserID, err)
		return
	}

	name := holder.DisplayName
	if name == "" {
		name = cases.Title(language.English).String(holder.Username)
	}
	venueName := ""
	if event.Venue != nil {
		venueName = event.Venue.Name
	}

	notice := CancellationNotice{
		Email:          holder.Email,
		Name:           name,
		EventName:      event.Name,
		VenueName:      venueName,
		EventDate:      event.StartsAt,
		WasPaid:        wasPaid,
		AmountRefunded: refunded,
	}
	if err := s.Notifier.SendCancellationNotice(ctx, notice); err != nil {
		log.Printf("⚠️ Cancellation notice failed for %s: %v", holder.Email, err)
	}
}

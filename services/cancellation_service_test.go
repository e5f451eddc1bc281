package services

import (
	"context"
	"errors"
	"testing"

	"nightlife-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRefunder struct {
	calls   []string // payment refs in call order
	failRef string   // refunds for this ref fail
}

func (f *fakeRefunder) Refund(ctx context.Context, paymentRef string, amount float64) error {
	f.calls = append(f.calls, paymentRef)
	if paymentRef == f.failRef {
		return errors.New("provider declined")
	}
	return nil
}

type fakeNotifier struct {
	notices []CancellationNotice
	fail    bool
}

func (f *fakeNotifier) SendCancellationNotice(ctx context.Context, notice CancellationNotice) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.notices = append(f.notices, notice)
	return nil
}

func seedTicket(t *testing.T, db *gorm.DB, event *models.Event, userID string, paid bool, amount float64, ref string) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		ID:      uuid.NewString(),
		EventID: event.ID,
		UserID:  userID,
		Status:  models.TicketStatusConfirmed,
	}
	if paid {
		ticket.PaymentStatus = models.PaymentStatusPaid
		ticket.AmountPaid = amount
		ticket.PaymentRef = ref
	} else {
		ticket.PaymentStatus = models.PaymentStatusUnpaid
	}
	require.NoError(t, db.Create(ticket).Error)
	return ticket
}

func ticketByID(t *testing.T, db *gorm.DB, id string) *models.Ticket {
	t.Helper()
	var ticket models.Ticket
	require.NoError(t, db.First(&ticket, "id = ?", id).Error)
	return &ticket
}

func TestCancelEventMixedOutcome(t *testing.T) {
	db := openTestDB(t)
	refunder := &fakeRefunder{failRef: "pay-2"}
	notifier := &fakeNotifier{}
	svc := NewCancellationService(db, refunder, notifier)

	seedProfile(t, db, "holder-1", "ana", "CODEAAAA")
	seedProfile(t, db, "holder-2", "ben", "CODEBBBB")
	seedProfile(t, db, "holder-3", "cam", "CODECCCC")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")

	paidOK := seedTicket(t, db, event, "holder-1", true, 40, "pay-1")
	paidFail := seedTicket(t, db, event, "holder-2", true, 25, "pay-2")
	free := seedTicket(t, db, event, "holder-3", false, 0, "")

	outcome, err := svc.CancelEvent(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.TicketsAffected)
	assert.Equal(t, 1, outcome.RefundsSucceeded)
	assert.Equal(t, 1, outcome.RefundsFailed)
	assert.Equal(t, 3, outcome.NotificationsAttempted)

	// Event is cancelled regardless of refund outcomes.
	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, "id = ?", event.ID).Error)
	assert.True(t, reloaded.IsCancelled)
	require.NotNil(t, reloaded.CancelledAt)

	// Refunded ticket records the amount; failed one stays confirmed and
	// visibly retriable; free one is plain cancelled.
	assert.Equal(t, models.TicketStatusRefunded, ticketByID(t, db, paidOK.ID).Status)
	assert.InDelta(t, 40, ticketByID(t, db, paidOK.ID).RefundedAmount, 1e-9)
	assert.Equal(t, models.TicketStatusConfirmed, ticketByID(t, db, paidFail.ID).Status)
	assert.InDelta(t, 0, ticketByID(t, db, paidFail.ID).RefundedAmount, 1e-9)
	assert.Equal(t, models.TicketStatusCancelled, ticketByID(t, db, free.ID).Status)

	// Notices carry the refund facts per holder.
	require.Len(t, notifier.notices, 3)
	byEmail := map[string]CancellationNotice{}
	for _, n := range notifier.notices {
		byEmail[n.Email] = n
	}
	assert.True(t, byEmail["ana@example.com"].WasPaid)
	assert.InDelta(t, 40, byEmail["ana@example.com"].AmountRefunded, 1e-9)
	assert.True(t, byEmail["ben@example.com"].WasPaid)
	assert.InDelta(t, 0, byEmail["ben@example.com"].AmountRefunded, 1e-9)
	assert.False(t, byEmail["cam@example.com"].WasPaid)
	assert.Equal(t, "Friday Night", byEmail["cam@example.com"].EventName)
	assert.Equal(t, "Club Mono", byEmail["cam@example.com"].VenueName)
}

func TestCancelEventSecondCallIsNoOp(t *testing.T) {
	db := openTestDB(t)
	refunder := &fakeRefunder{}
	notifier := &fakeNotifier{}
	svc := NewCancellationService(db, refunder, notifier)

	seedProfile(t, db, "holder-1", "ana", "CODEAAAA")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")
	seedTicket(t, db, event, "holder-1", true, 40, "pay-1")

	first, err := svc.CancelEvent(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TicketsAffected)
	assert.Len(t, refunder.calls, 1)

	second, err := svc.CancelEvent(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.TicketsAffected)
	assert.Equal(t, 0, second.RefundsSucceeded)
	assert.Len(t, refunder.calls, 1, "no further refund attempts on repeat cancel")
}

func TestCancelEventNotAuthorized(t *testing.T) {
	db := openTestDB(t)
	svc := NewCancellationService(db, &fakeRefunder{}, &fakeNotifier{})

	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")

	_, err := svc.CancelEvent(context.Background(), event.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, "id = ?", event.ID).Error)
	assert.False(t, reloaded.IsCancelled)
}

func TestCancelEventNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := NewCancellationService(db, &fakeRefunder{}, &fakeNotifier{})

	_, err := svc.CancelEvent(context.Background(), uuid.NewString(), "owner-1")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCancelEventNoTickets(t *testing.T) {
	db := openTestDB(t)
	refunder := &fakeRefunder{}
	svc := NewCancellationService(db, refunder, &fakeNotifier{})

	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")

	outcome, err := svc.CancelEvent(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.TicketsAffected)
	assert.Empty(t, refunder.calls)

	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, "id = ?", event.ID).Error)
	assert.True(t, reloaded.IsCancelled)
}

func TestCancelEventNotifierFailureIsSwallowed(t *testing.T) {
	db := openTestDB(t)
	notifier := &fakeNotifier{fail: true}
	svc := NewCancellationService(db, &fakeRefunder{}, notifier)

	seedProfile(t, db, "holder-1", "ana", "CODEAAAA")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")
	paid := seedTicket(t, db, event, "holder-1", true, 40, "pay-1")

	outcome, err := svc.CancelEvent(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)

	// The refund still lands and the attempt is counted even though the
	// notifier is down — the counter tracks attempts, not deliveries.
	assert.Equal(t, 1, outcome.RefundsSucceeded)
	assert.Equal(t, 1, outcome.NotificationsAttempted)
	assert.Empty(t, notifier.notices)
	assert.Equal(t, models.TicketStatusRefunded, ticketByID(t, db, paid.ID).Status)
}

func TestCancelEventSkipsTerminalTickets(t *testing.T) {
	db := openTestDB(t)
	refunder := &fakeRefunder{}
	svc := NewCancellationService(db, refunder, &fakeNotifier{})

	seedProfile(t, db, "holder-1", "ana", "CODEAAAA")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")

	already := seedTicket(t, db, event, "holder-1", true, 40, "pay-1")
	require.NoError(t, db.Model(already).Update("status", models.TicketStatusRefunded).Error)

	outcome, err := svc.CancelEvent(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.TicketsAffected)
	assert.Empty(t, refunder.calls)
}

func TestReprocessRefundsRetriesOnlyFailed(t *testing.T) {
	db := openTestDB(t)
	refunder := &fakeRefunder{failRef: "pay-2"}
	notifier := &fakeNotifier{}
	svc := NewCancellationService(db, refunder, notifier)

	seedProfile(t, db, "holder-1", "ana", "CODEAAAA")
	seedProfile(t, db, "holder-2", "ben", "CODEBBBB")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")

	ok := seedTicket(t, db, event, "holder-1", true, 40, "pay-1")
	failing := seedTicket(t, db, event, "holder-2", true, 25, "pay-2")

	_, err := svc.CancelEvent(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusConfirmed, ticketByID(t, db, failing.ID).Status)

	// Provider recovers; operator re-runs the loop.
	refunder.failRef = ""
	outcome, err := svc.ReprocessRefunds(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.TicketsAffected, "only the still-confirmed ticket is touched")
	assert.Equal(t, 1, outcome.RefundsSucceeded)
	assert.Equal(t, models.TicketStatusRefunded, ticketByID(t, db, failing.ID).Status)
	assert.InDelta(t, 25, ticketByID(t, db, failing.ID).RefundedAmount, 1e-9)
	assert.Equal(t, models.TicketStatusRefunded, ticketByID(t, db, ok.ID).Status)
}

func TestReprocessRefundsRequiresCancelledEvent(t *testing.T) {
	db := openTestDB(t)
	refunder := &fakeRefunder{}
	svc := NewCancellationService(db, refunder, &fakeNotifier{})

	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")
	seedTicket(t, db, event, "holder-1", true, 40, "pay-1")

	outcome, err := svc.ReprocessRefunds(context.Background(), event.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.TicketsAffected)
	assert.Empty(t, refunder.calls)
}

package services

import (
	"testing"

	"nightlife-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// A double-submitted RSVP/purchase that slips past the read-then-insert check
// must still fail on idx_ticket_active rather than duplicating the ticket.
func TestConfirmedTicketUniquePerUserAndEvent(t *testing.T) {
	db := openTestDB(t)

	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")
	seedTicket(t, db, event, "holder-1", false, 0, "")

	dup := &models.Ticket{
		ID:      uuid.NewString(),
		EventID: event.ID,
		UserID:  "holder-1",
		Status:  models.TicketStatusConfirmed,
	}
	assert.ErrorIs(t, db.Create(dup).Error, gorm.ErrDuplicatedKey)

	// A second holder on the same event is unaffected.
	seedTicket(t, db, event, "holder-2", false, 0, "")

	// Terminal tickets drop out of the guard: once the first is refunded a
	// fresh confirmed ticket for the same holder is allowed again.
	require.NoError(t, db.Model(&models.Ticket{}).
		Where("event_id = ? AND user_id = ?", event.ID, "holder-1").
		Update("status", models.TicketStatusRefunded).Error)
	require.NoError(t, db.Create(&models.Ticket{
		ID:      uuid.NewString(),
		EventID: event.ID,
		UserID:  "holder-1",
		Status:  models.TicketStatusConfirmed,
	}).Error)
}

package models

import "time"

const (
	TicketStatusConfirmed = "confirmed"
	TicketStatusCancelled = "cancelled"
	TicketStatusRefunded  = "refunded"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Ticket ties one user to one event. Status only moves forward
// (confirmed → cancelled | refunded); check-in is an orthogonal flag,
// not a status replacement. The partial unique index idx_ticket_active
// allows at most one confirmed ticket per (event, user) — double-submitted
// RSVPs and purchases fail the insert instead of duplicating, while
// cancelled/refunded tickets drop out of the guard.
type Ticket struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	EventID string `gorm:"index;uniqueIndex:idx_ticket_active,where:status = 'confirmed';not null" json:"event_id"`
	Event   *Event `json:"event,omitempty" gorm:"foreignKey:EventID"`
	UserID  string `gorm:"index;uniqueIndex:idx_ticket_active;not null" json:"user_id"` // ExternalUserID of the holder

	// 💳 Payment (checkout itself happens at the payment provider; we only
	// keep the reference needed to refund)
	PaymentStatus  string  `json:"payment_status" gorm:"type:varchar(16);default:'unpaid'"`
	AmountPaid     float64 `json:"amount_paid" gorm:"default:0"`
	PaymentRef     string  `json:"payment_ref,omitempty"`
	RefundedAmount float64 `json:"refunded_amount" gorm:"default:0"`

	Status string `json:"status" gorm:"type:varchar(16);default:'confirmed';index"`

	// 🚪 Door check-in
	CheckedIn   bool       `json:"checked_in" gorm:"default:false"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	Timestamps
}

const (
	VIPStatusRequested = "requested"
	VIPStatusApproved  = "approved"
	VIPStatusDeclined  = "declined"
)

// VIPReservation is a table request for an event, decided by the venue owner.
type VIPReservation struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	EventID      string     `gorm:"index;not null" json:"event_id"`
	UserID       string     `gorm:"index;not null" json:"user_id"`
	PartySize    int        `gorm:"not null" json:"party_size"`
	MinimumSpend float64    `json:"minimum_spend" gorm:"default:0"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
	Status       string     `json:"status" gorm:"type:varchar(16);default:'requested'"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`

	Timestamps
}

package models

import "time"

const (
	EventStatusDraft     = "draft"
	EventStatusScheduled = "scheduled"
	EventStatusPublished = "published"
)

// Event belongs to one Venue. Cancellation is a one-way flag: once
// IsCancelled flips to true the refund workflow runs exactly once and
// repeated cancel calls are no-ops.
type Event struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	VenueID     string `gorm:"index;not null" json:"venue_id"`
	Venue       *Venue `json:"venue,omitempty" gorm:"foreignKey:VenueID"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"index;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	FlyerURL string `json:"flyer_url,omitempty"`

	StartsAt    time.Time  `gorm:"index;not null" json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	TicketPrice float64    `json:"ticket_price" gorm:"default:0"` // 0 = free / RSVP only
	Capacity    int        `json:"capacity" gorm:"default:0"`     // 0 = unlimited

	// 🎛️ Publishing state
	Status    string     `json:"status" gorm:"default:'draft'"` // draft | scheduled | published
	PublishAt *time.Time `json:"publish_at"`                    // only used if scheduled

	IsCancelled bool       `json:"is_cancelled" gorm:"default:false"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Timestamps
}

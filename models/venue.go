package models

import "time"

// Venue is a nightlife location managed by its owner through the portal.
type Venue struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerUserID string `gorm:"index;not null" json:"owner_user_id"` // ExternalUserID of the owner
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	// 📍 Map placement
	Address   string  `json:"address"`
	City      string  `gorm:"index" json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	CoverPhotoURL string `json:"cover_photo_url,omitempty"`

	Timestamps
}

// Promotion is a venue-owned promo entry shown on the venue page.
type Promotion struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	VenueID   string     `gorm:"index;not null" json:"venue_id"`
	Title     string     `gorm:"not null" json:"title"`
	Details   string     `gorm:"type:text" json:"details"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	Published bool       `gorm:"default:false" json:"published"`

	Timestamps
}

package models

import "time"

const (
	ReferralKindSignup = "signup"
	ReferralKindRSVP   = "rsvp"
)

// ReferralEvent records one attribution. The composite unique index on
// (referred_user_id, kind, target_id) is the idempotency guarantee: a
// retried or concurrent duplicate submission fails the insert instead of
// double-crediting. Rows are immutable once created.
type ReferralEvent struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerUserID string `gorm:"index;not null" json:"referrer_user_id"`
	ReferredUserID string `gorm:"uniqueIndex:idx_referral_natural;not null" json:"referred_user_id"`
	Kind           string `gorm:"uniqueIndex:idx_referral_natural;type:varchar(16);not null" json:"kind"` // signup | rsvp
	TargetID       string `gorm:"uniqueIndex:idx_referral_natural;not null" json:"target_id"`             // event id (rsvp) or venue id (signup)
	Points         int64  `gorm:"not null" json:"points"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// PromoterStats is the denormalized running total per referrer. It must
// always equal the sum over the referrer's ReferralEvents, so it is only
// ever moved by store-level `total_points + ?` updates in the same
// transaction as the event insert.
type PromoterStats struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string `gorm:"uniqueIndex;not null" json:"user_id"` // ExternalUserID of the referrer
	TotalPoints int64  `json:"total_points" gorm:"default:0"`
	SignupCount int64  `json:"signup_count" gorm:"default:0"`
	RSVPCount   int64  `json:"rsvp_count" gorm:"default:0"`

	Timestamps
}

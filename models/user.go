package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProfile is the platform's local snapshot of a user.
// Identity and sessions are owned by the auth gateway; the gateway forwards
// the canonical user id via X-User-ID and we key everything off it.
type UserProfile struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // gateway's user id
	Username       string  `gorm:"index;not null" json:"username"`
	Email          string  `json:"email,omitempty"`
	DisplayName    string  `json:"display_name,omitempty"`
	AvatarURL      *string `json:"avatar_url,omitempty"`

	// Referral code is minted once at profile creation and never changes.
	ReferralCode string `gorm:"uniqueIndex;not null" json:"referral_code"`

	LastSeen *time.Time `json:"last_seen,omitempty"`
	IsBanned bool       `json:"is_banned" gorm:"default:false"`

	Timestamps
}

// Follow links a follower to another user for the friends feed.
type Follow struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerUserID string    `gorm:"uniqueIndex:idx_follow_pair;not null" json:"follower_user_id"`
	FolloweeUserID string    `gorm:"uniqueIndex:idx_follow_pair;not null" json:"followee_user_id"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

package models

import "time"

// PushSubscription stores one browser push endpoint for a user. A user can
// hold several (one per device/browser). Subscriptions the push service
// reports gone (404/410) are deleted during fan-out.
type PushSubscription struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"index;not null" json:"user_id"`
	Endpoint string `gorm:"uniqueIndex;type:text;not null" json:"endpoint"`
	P256dh   string `gorm:"not null" json:"p256dh"`
	Auth     string `gorm:"not null" json:"auth"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

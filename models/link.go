package models

import (
	"time"
)

// Link maps a short id to its redirect target. ShortID, UserID and CreatedAt
// are immutable after creation; Clicks only ever grows.
type Link struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	ShortID     string     `json:"short_id" gorm:"uniqueIndex;size:14;not null"`
	RedirectURL string     `json:"redirect_url" gorm:"not null"`
	Remark      string     `json:"remark" gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Clicks      []Click    `json:"clicks,omitempty" gorm:"foreignKey:LinkID"`
}

// Expired reports whether the link is past its expiration at the given
// instant. A link without an expiration date never expires.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

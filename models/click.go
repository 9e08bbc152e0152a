package models

import (
	"time"

	"shortlink/clientinfo"
)

// Click is one recorded visit to a link's redirect endpoint. Rows are
// append-only: a plain INSERT per click, never a read-modify-write of the
// parent link, so concurrent redirects cannot lose each other's updates.
type Click struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LinkID    uint      `json:"link_id" gorm:"index;not null"`
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ip_address" gorm:"size:64;default:'Unknown'"`
	Device    string    `json:"device" gorm:"size:32;default:'Unknown'"`
	OS        string    `json:"os" gorm:"size:64;default:'Unknown'"`
}

// ClickEvent is the lightweight payload queued from the redirect handler to
// the click workers.
type ClickEvent struct {
	ShortID string
	Client  clientinfo.Context
}

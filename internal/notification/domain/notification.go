package domain

import "time"

// Notification is the user-facing record written when a document lands.
type Notification struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	OwnerID    string    `json:"owner_id" gorm:"index;not null"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	DocumentID string    `json:"document_id"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// DeviceToken maps an owner to a push-capable device.
type DeviceToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}

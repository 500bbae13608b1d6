package domain

import (
	"time"

	ingestiondomain "docuflow-backend/internal/ingestion/domain"
)

// Integration is one tenant's connected mailbox: its OAuth tokens, the sync
// cursor, and the push subscription state. At most one active row exists per
// (owner, mailbox) pair; Upsert enforces that. Rows are never hard-deleted,
// disconnecting flips IsActive.
type Integration struct {
	ID                    string    `json:"id" gorm:"primaryKey"`
	OwnerID               string    `json:"owner_id" gorm:"index:idx_owner_mailbox;not null"`
	EmailAddress          string    `json:"email_address" gorm:"index:idx_owner_mailbox;index"`
	AccessToken           string    `json:"-"`
	RefreshToken          string    `json:"-"`
	ExpiresAt             time.Time `json:"expires_at"`
	LastHistoryID         uint64    `json:"last_history_id"`
	SubscriptionExpiresAt time.Time `json:"subscription_expires_at"`
	IsActive              bool      `json:"is_active" gorm:"index"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Credential returns the token material for provider calls.
func (i *Integration) Credential() ingestiondomain.Credential {
	return ingestiondomain.Credential{
		AccessToken:  i.AccessToken,
		RefreshToken: i.RefreshToken,
		ExpiresAt:    i.ExpiresAt,
	}
}

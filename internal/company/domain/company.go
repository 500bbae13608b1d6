package domain

import (
	"errors"
	"time"
)

// ErrCompanyNameUnresolved means none of the naming rules produced a usable
// name. The message is skipped rather than filed under an "Unknown" company.
var ErrCompanyNameUnresolved = errors.New("company name could not be resolved")

// Company is a tenant-scoped sender bucket that documents are filed under.
// Identity is (OwnerID, CanonicalEmail); the name is inferred from the first
// qualifying message and never overwritten by later ones.
type Company struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	OwnerID        string    `json:"owner_id" gorm:"index:idx_owner_email,unique;not null"`
	Name           string    `json:"name"`
	CanonicalEmail string    `json:"canonical_email" gorm:"index:idx_owner_email,unique;not null"`
	Metadata       string    `json:"metadata,omitempty"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

package repository

import (
	"time"

	"docuflow-backend/internal/integration/domain"
)

// IntegrationRepository is the credential store: one row per connected
// mailbox, upserted by owner.
type IntegrationRepository interface {
	FindByOwner(ownerID string) (*domain.Integration, error)
	FindByEmailAddress(email string) (*domain.Integration, error)
	ListActive() ([]*domain.Integration, error)
	ListExpiringWatches(before time.Time) ([]*domain.Integration, error)
	// Upsert updates the active row for (owner, mailbox) in place if one
	// exists, otherwise inserts. Runs in a transaction so concurrent
	// authorizations cannot produce two active rows for the same owner.
	Upsert(integration *domain.Integration) (*domain.Integration, error)
	UpdateTokens(id, accessToken, refreshToken string, expiresAt time.Time) error
	// AdvanceHistoryID moves the sync cursor forward. Writes with a cursor
	// lower than the stored one are dropped (monotonic advance).
	AdvanceHistoryID(id string, historyID uint64) error
	UpdateSubscription(id string, expiresAt time.Time) error
	Deactivate(ownerID string) error
}

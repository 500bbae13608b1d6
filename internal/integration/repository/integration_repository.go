package repository

import (
	"errors"
	"time"

	"docuflow-backend/internal/integration/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// integrationRepository implements IntegrationRepository
type integrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates a new instance of integrationRepository
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{
		db: db,
	}
}

func (r *integrationRepository) FindByOwner(ownerID string) (*domain.Integration, error) {
	var integration domain.Integration
	err := r.db.Where("owner_id = ? AND is_active = ?", ownerID, true).First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) FindByEmailAddress(email string) (*domain.Integration, error) {
	var integration domain.Integration
	err := r.db.Where("email_address = ? AND is_active = ?", email, true).First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) ListActive() ([]*domain.Integration, error) {
	var integrations []*domain.Integration
	err := r.db.Where("is_active = ?", true).Order("created_at asc").Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *integrationRepository) ListExpiringWatches(before time.Time) ([]*domain.Integration, error) {
	var integrations []*domain.Integration
	err := r.db.Where("is_active = ? AND subscription_expires_at < ?", true, before).Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *integrationRepository) Upsert(integration *domain.Integration) (*domain.Integration, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.Integration
		err := tx.Where("owner_id = ? AND email_address = ? AND is_active = ?",
			integration.OwnerID, integration.EmailAddress, true).First(&existing).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			integration.ID = uuid.New().String()
			integration.IsActive = true
			integration.CreatedAt = time.Now()
			integration.UpdatedAt = time.Now()
			return tx.Create(integration).Error
		}

		// Update in place, preserving identity and the sync cursor unless
		// the caller brings a newer one.
		integration.ID = existing.ID
		integration.CreatedAt = existing.CreatedAt
		integration.IsActive = true
		if integration.LastHistoryID < existing.LastHistoryID {
			integration.LastHistoryID = existing.LastHistoryID
		}
		integration.UpdatedAt = time.Now()
		return tx.Save(integration).Error
	})
	if err != nil {
		return nil, err
	}
	return integration, nil
}

func (r *integrationRepository) UpdateTokens(id, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.db.Model(&domain.Integration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_at":    expiresAt,
		"updated_at":    time.Now(),
	}).Error
}

func (r *integrationRepository) AdvanceHistoryID(id string, historyID uint64) error {
	// Guard in SQL so concurrent invocations cannot move the cursor back.
	return r.db.Model(&domain.Integration{}).
		Where("id = ? AND last_history_id < ?", id, historyID).
		Updates(map[string]interface{}{
			"last_history_id": historyID,
			"updated_at":      time.Now(),
		}).Error
}

func (r *integrationRepository) UpdateSubscription(id string, expiresAt time.Time) error {
	return r.db.Model(&domain.Integration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"subscription_expires_at": expiresAt,
		"updated_at":              time.Now(),
	}).Error
}

func (r *integrationRepository) Deactivate(ownerID string) error {
	return r.db.Model(&domain.Integration{}).Where("owner_id = ?", ownerID).Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	}).Error
}

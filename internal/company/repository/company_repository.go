package repository

import (
	"errors"
	"time"

	"docuflow-backend/internal/company/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// companyRepository implements CompanyRepository
type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new instance of companyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{
		db: db,
	}
}

func (r *companyRepository) FindByEmail(ownerID, email string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.Where("owner_id = ? AND canonical_email = ?", ownerID, email).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) UpsertByEmail(ownerID, name, email string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("owner_id = ? AND canonical_email = ?", ownerID, email).First(&company).Error
		if err == nil {
			// Repeat contact: only the activity timestamp moves. The name
			// stays as inferred from the first message.
			company.LastActivityAt = time.Now()
			company.UpdatedAt = time.Now()
			return tx.Save(&company).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		company = domain.Company{
			ID:             uuid.New().String(),
			OwnerID:        ownerID,
			Name:           name,
			CanonicalEmail: email,
			LastActivityAt: time.Now(),
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		if createErr := tx.Create(&company).Error; createErr != nil {
			// A concurrent invocation may have created the row between the
			// lookup and the write; the unique index on (owner_id,
			// canonical_email) rejects the duplicate. Re-fetch and treat it
			// as a repeat contact.
			if fetchErr := tx.Where("owner_id = ? AND canonical_email = ?", ownerID, email).First(&company).Error; fetchErr != nil {
				return createErr
			}
			company.LastActivityAt = time.Now()
			company.UpdatedAt = time.Now()
			return tx.Save(&company).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

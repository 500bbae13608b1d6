package repository

import (
	"time"

	"docuflow-backend/internal/document/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// documentRepository implements DocumentRepository
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new instance of documentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{
		db: db,
	}
}

func (r *documentRepository) Insert(document *domain.Document) error {
	if document.ID == "" {
		document.ID = uuid.New().String()
	}
	document.CreatedAt = time.Now()
	return r.db.Create(document).Error
}

func (r *documentRepository) ExistsBySource(companyID, messageID, attachmentID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Document{}).
		Where("company_id = ? AND source_message_id = ? AND source_attachment_id = ?",
			companyID, messageID, attachmentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *documentRepository) ListByCompany(companyID string, limit, offset int) ([]*domain.Document, error) {
	var documents []*domain.Document
	err := r.db.Where("company_id = ?", companyID).
		Order("uploaded_at desc").
		Limit(limit).
		Offset(offset).
		Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

package repository

import "docuflow-backend/internal/document/domain"

type DocumentRepository interface {
	Insert(document *domain.Document) error
	// ExistsBySource reports whether an attachment of a message was already
	// filed under the company. This is the durable dedup layer; the
	// in-memory guard only covers one process lifetime.
	ExistsBySource(companyID, messageID, attachmentID string) (bool, error)
	ListByCompany(companyID string, limit, offset int) ([]*domain.Document, error)
}

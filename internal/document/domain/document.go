package domain

import "time"

// Document is an ingested attachment: immutable once created, except for
// deletion through the CRUD surface. StorageRef points at the uploaded blob.
// SourceMessageID/SourceAttachmentID record where it came from so repeated
// webhook deliveries of the same mail do not file the attachment twice.
type Document struct {
	ID                 string    `json:"id" gorm:"primaryKey"`
	CompanyID          string    `json:"company_id" gorm:"index:idx_company_storage,unique;index:idx_company_source;not null"`
	Filename           string    `json:"filename"`
	MimeType           string    `json:"mime_type"`
	SizeBytes          int64     `json:"size_bytes"`
	StorageRef         string    `json:"storage_ref" gorm:"index:idx_company_storage,unique"`
	UploadedAt         time.Time `json:"uploaded_at"`
	UploadedBy         string    `json:"uploaded_by"`
	SourceMessageID    string    `json:"source_message_id" gorm:"index:idx_company_source"`
	SourceAttachmentID string    `json:"source_attachment_id" gorm:"index:idx_company_source"`
	CreatedAt          time.Time `json:"created_at"`
}

package usecase

import "docuflow-backend/internal/ingestion/domain"

// MaxAttachmentSize is the per-file cap: 10 MiB.
const MaxAttachmentSize = 10 * 1024 * 1024

// allowedMimeTypes is the exact allow-list of attachment types the pipeline
// stores: documents, common office formats, plain text, common raster images.
var allowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.ms-powerpoint":                                             {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"text/plain": {},
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/bmp":  {},
	"image/tiff": {},
}

// AttachmentFilter gates messages and attachments. Zero value is not usable;
// construct with NewAttachmentFilter.
type AttachmentFilter struct {
	maxSize int64
}

func NewAttachmentFilter() *AttachmentFilter {
	return &AttachmentFilter{maxSize: MaxAttachmentSize}
}

// HasQualifyingAttachment reports whether the message carries at least one
// attachment part anywhere in its part tree. Messages without one are skipped
// before any other processing, so no company is ever created for plain mail.
func (f *AttachmentFilter) HasQualifyingAttachment(msg *domain.MessageEnvelope) bool {
	return hasAttachmentPart(msg.Parts)
}

// Attachments flattens the part tree into the attachment parts, in order.
func (f *AttachmentFilter) Attachments(msg *domain.MessageEnvelope) []domain.Part {
	var attachments []domain.Part
	collectAttachments(msg.Parts, &attachments)
	return attachments
}

// IsEligible reports whether an attachment is within the size cap and on the
// MIME allow-list. Ineligible attachments are skipped, not errors.
func (f *AttachmentFilter) IsEligible(part domain.Part) bool {
	if part.SizeBytes > f.maxSize {
		return false
	}
	_, ok := allowedMimeTypes[part.MimeType]
	return ok
}

func hasAttachmentPart(parts []domain.Part) bool {
	for _, part := range parts {
		if part.Filename != "" && part.AttachmentID != "" {
			return true
		}
		if hasAttachmentPart(part.Parts) {
			return true
		}
	}
	return false
}

func collectAttachments(parts []domain.Part, out *[]domain.Part) {
	for _, part := range parts {
		if part.Filename != "" && part.AttachmentID != "" {
			*out = append(*out, part)
		}
		collectAttachments(part.Parts, out)
	}
}

package domain

import "errors"

// Pipeline error taxonomy. Each failure is isolated at the smallest unit of
// work that owns it: attachment errors never fail the message, message errors
// never fail the integration, integration errors never fail the run.
var (
	// ErrCredentialExpired means the access token is invalid and there is no
	// usable refresh path. The integration is skipped for the current cycle.
	ErrCredentialExpired = errors.New("credential expired with no refresh path")

	// ErrStaleCursor is returned by the provider when the history cursor is
	// unknown or expired. Callers fall back to the recent-unread scan.
	ErrStaleCursor = errors.New("history cursor unknown to provider")

	// ErrHistoryFetchFailed means the delta query kept failing after the
	// retry budget. The integration is skipped for the current cycle.
	ErrHistoryFetchFailed = errors.New("history fetch failed")

	// ErrMessageFetchFailed skips only the message it occurred on.
	ErrMessageFetchFailed = errors.New("message fetch failed")

	// ErrAttachmentIneligible marks an attachment outside the size cap or
	// MIME allow-list. A skip, not a failure.
	ErrAttachmentIneligible = errors.New("attachment not eligible")

	// ErrBlobUploadFailed skips the attachment; no document record is
	// written for it.
	ErrBlobUploadFailed = errors.New("blob upload failed")

	// ErrDocumentPersistFailed is logged after a successful upload; the
	// orphaned blob is accepted and not retried.
	ErrDocumentPersistFailed = errors.New("document persist failed")
)

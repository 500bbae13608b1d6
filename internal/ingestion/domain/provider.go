package domain

import (
	"context"
	"time"
)

// Credential is the token material needed to call the mail provider on
// behalf of one connected mailbox.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Profile is the lightweight identity returned by the provider; fetching it
// doubles as a token validity probe.
type Profile struct {
	EmailAddress string
	HistoryID    uint64
}

// HistoryDelta is the result of a history query: the IDs of messages added
// since the cursor, and the cursor to resume from next time. Removals and
// label changes are not surfaced.
type HistoryDelta struct {
	AddedMessageIDs []string
	NewHistoryID    uint64
}

// WatchResult describes an established push notification channel.
type WatchResult struct {
	HistoryID  uint64
	Expiration time.Time
}

// MailProvider is the capability interface over the mail provider API.
// pkg/gmail implements it; tests substitute fakes.
type MailProvider interface {
	GetProfile(ctx context.Context, cred Credential) (*Profile, error)
	// ListHistorySince returns ErrStaleCursor when the provider no longer
	// knows the given cursor.
	ListHistorySince(ctx context.Context, cred Credential, sinceHistoryID uint64, maxResults int64) (*HistoryDelta, error)
	ListRecentUnread(ctx context.Context, cred Credential, maxResults int64) ([]string, error)
	GetMessage(ctx context.Context, cred Credential, messageID string) (*MessageEnvelope, error)
	GetAttachmentBytes(ctx context.Context, cred Credential, messageID, attachmentID string) ([]byte, error)
	RefreshAccessToken(ctx context.Context, cred Credential) (*Credential, error)
	Watch(ctx context.Context, cred Credential, topicName string) (*WatchResult, error)
	Stop(ctx context.Context, cred Credential) error
}

// BlobStore is the capability interface over the document blob storage.
type BlobStore interface {
	// GenerateUploadTarget mints a fresh storage reference for an upload.
	GenerateUploadTarget(filename string) string
	Upload(ctx context.Context, ref string, data []byte, mimeType string) error
}

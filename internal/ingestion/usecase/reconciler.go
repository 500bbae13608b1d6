package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"docuflow-backend/internal/ingestion/domain"
)

const (
	historyMaxResults    = 100
	fallbackUnreadLimit  = 10
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 500 * time.Millisecond
)

// HistoryReconciler turns a sync cursor into the set of message IDs added
// since that cursor. A stale or empty cursor degrades to a bounded scan of
// recent unread mail; that path may resurface already-handled messages, which
// the idempotency layers absorb.
type HistoryReconciler struct {
	provider domain.MailProvider
	attempts int
	backoff  time.Duration
}

func NewHistoryReconciler(provider domain.MailProvider) *HistoryReconciler {
	return &HistoryReconciler{
		provider: provider,
		attempts: defaultRetryAttempts,
		backoff:  defaultRetryBackoff,
	}
}

// ChangedMessageIDs returns the added message IDs since sinceHistoryID and
// the cursor to store for the next cycle. The returned cursor equals
// sinceHistoryID when the provider gave us nothing newer.
func (r *HistoryReconciler) ChangedMessageIDs(ctx context.Context, cred domain.Credential, sinceHistoryID uint64) ([]string, uint64, error) {
	if sinceHistoryID == 0 {
		ids, err := r.recentUnread(ctx, cred)
		return ids, sinceHistoryID, err
	}

	var delta *domain.HistoryDelta
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		delta, err = r.provider.ListHistorySince(ctx, cred, sinceHistoryID, historyMaxResults)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrStaleCursor) {
			log.Printf("[Reconcile] Cursor %d no longer known, falling back to recent unread", sinceHistoryID)
			ids, fbErr := r.recentUnread(ctx, cred)
			return ids, sinceHistoryID, fbErr
		}
		if attempt < r.attempts {
			if waitErr := sleepCtx(ctx, r.backoff*time.Duration(attempt)); waitErr != nil {
				return nil, sinceHistoryID, waitErr
			}
		}
	}
	if err != nil {
		return nil, sinceHistoryID, fmt.Errorf("%w: %v", domain.ErrHistoryFetchFailed, err)
	}

	newCursor := sinceHistoryID
	if delta.NewHistoryID > newCursor {
		newCursor = delta.NewHistoryID
	}

	if len(delta.AddedMessageIDs) == 0 {
		ids, fbErr := r.recentUnread(ctx, cred)
		return ids, newCursor, fbErr
	}
	return delta.AddedMessageIDs, newCursor, nil
}

func (r *HistoryReconciler) recentUnread(ctx context.Context, cred domain.Credential) ([]string, error) {
	ids, err := r.provider.ListRecentUnread(ctx, cred, fallbackUnreadLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrHistoryFetchFailed, err)
	}
	return ids, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

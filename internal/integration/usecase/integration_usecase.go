package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	ingestiondomain "docuflow-backend/internal/ingestion/domain"
	"docuflow-backend/internal/integration/domain"
	"docuflow-backend/internal/integration/repository"
)

// IntegrationUsecase manages connected mailboxes: credential lifecycle and
// the push subscription (watch) that keeps webhooks flowing.
type IntegrationUsecase interface {
	// EnsureValid probes the credential and refreshes it when the probe
	// fails. Returns ingestiondomain.ErrCredentialExpired when there is no
	// refresh token or the exchange fails; callers skip the integration for
	// the current cycle.
	EnsureValid(ctx context.Context, integration *domain.Integration) (*domain.Integration, error)
	Connect(ctx context.Context, ownerID, accessToken, refreshToken string, expiresAt time.Time) (*domain.Integration, error)
	Disconnect(ctx context.Context, ownerID string) error
	List(ctx context.Context) ([]*domain.Integration, error)
	// StartWatchRenewal re-establishes push subscriptions that are about to
	// lapse, on a fixed interval, until ctx is done.
	StartWatchRenewal(ctx context.Context, interval time.Duration)
}

// integrationUsecase implements IntegrationUsecase
type integrationUsecase struct {
	repo      repository.IntegrationRepository
	provider  ingestiondomain.MailProvider
	topicName string
}

func NewIntegrationUsecase(repo repository.IntegrationRepository, provider ingestiondomain.MailProvider, topicName string) IntegrationUsecase {
	return &integrationUsecase{
		repo:      repo,
		provider:  provider,
		topicName: topicName,
	}
}

func (u *integrationUsecase) EnsureValid(ctx context.Context, integration *domain.Integration) (*domain.Integration, error) {
	if _, err := u.provider.GetProfile(ctx, integration.Credential()); err == nil {
		return integration, nil
	}

	if integration.RefreshToken == "" {
		return nil, ingestiondomain.ErrCredentialExpired
	}

	// Single refresh attempt: either the exchange works or the integration
	// sits this cycle out.
	fresh, err := u.provider.RefreshAccessToken(ctx, integration.Credential())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingestiondomain.ErrCredentialExpired, err)
	}

	if err := u.repo.UpdateTokens(integration.ID, fresh.AccessToken, fresh.RefreshToken, fresh.ExpiresAt); err != nil {
		return nil, fmt.Errorf("persist refreshed tokens: %w", err)
	}

	updated := *integration
	updated.AccessToken = fresh.AccessToken
	updated.RefreshToken = fresh.RefreshToken
	updated.ExpiresAt = fresh.ExpiresAt
	return &updated, nil
}

// Connect upserts the integration for the owner's mailbox and starts a watch
// on it. The watch result seeds the sync cursor for a brand-new integration.
func (u *integrationUsecase) Connect(ctx context.Context, ownerID, accessToken, refreshToken string, expiresAt time.Time) (*domain.Integration, error) {
	cred := ingestiondomain.Credential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}

	profile, err := u.provider.GetProfile(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}

	integration := &domain.Integration{
		OwnerID:      ownerID,
		EmailAddress: profile.EmailAddress,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}

	if u.topicName != "" {
		watch, err := u.provider.Watch(ctx, cred, u.topicName)
		if err != nil {
			return nil, fmt.Errorf("start mailbox watch: %w", err)
		}
		integration.LastHistoryID = watch.HistoryID
		integration.SubscriptionExpiresAt = watch.Expiration
	} else if profile.HistoryID > 0 {
		integration.LastHistoryID = profile.HistoryID
	}

	return u.repo.Upsert(integration)
}

func (u *integrationUsecase) Disconnect(ctx context.Context, ownerID string) error {
	integration, err := u.repo.FindByOwner(ownerID)
	if err != nil {
		return err
	}
	if integration == nil {
		return nil
	}

	if err := u.provider.Stop(ctx, integration.Credential()); err != nil {
		log.Printf("[Integration] Failed to stop watch for %s: %v", integration.EmailAddress, err)
	}
	return u.repo.Deactivate(ownerID)
}

func (u *integrationUsecase) List(ctx context.Context) ([]*domain.Integration, error) {
	return u.repo.ListActive()
}

func (u *integrationUsecase) StartWatchRenewal(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				u.renewExpiringWatches(ctx)
			}
		}
	}()
}

func (u *integrationUsecase) renewExpiringWatches(ctx context.Context) {
	// Gmail watches lapse after about a week; renew anything inside the
	// next day's window.
	expiring, err := u.repo.ListExpiringWatches(time.Now().Add(24 * time.Hour))
	if err != nil {
		log.Printf("[Integration] Failed to list expiring watches: %v", err)
		return
	}

	for _, stale := range expiring {
		integration, err := u.EnsureValid(ctx, stale)
		if err != nil {
			log.Printf("[Integration] Skipping watch renewal for %s: %v", stale.EmailAddress, err)
			continue
		}
		watch, err := u.provider.Watch(ctx, integration.Credential(), u.topicName)
		if err != nil {
			log.Printf("[Integration] Watch renewal failed for %s: %v", integration.EmailAddress, err)
			continue
		}
		if err := u.repo.UpdateSubscription(integration.ID, watch.Expiration); err != nil {
			log.Printf("[Integration] Failed to persist renewed watch for %s: %v", integration.EmailAddress, err)
		}
	}
}

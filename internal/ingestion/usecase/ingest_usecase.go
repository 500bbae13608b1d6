package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	companydomain "docuflow-backend/internal/company/domain"
	companyrepo "docuflow-backend/internal/company/repository"
	companyusecase "docuflow-backend/internal/company/usecase"
	documentdomain "docuflow-backend/internal/document/domain"
	documentrepo "docuflow-backend/internal/document/repository"
	"docuflow-backend/internal/ingestion/domain"
	integrationdomain "docuflow-backend/internal/integration/domain"
	integrationrepo "docuflow-backend/internal/integration/repository"
)

// TokenRefresher makes sure an integration's credential is usable, refreshing
// and persisting it when the access token has gone stale.
type TokenRefresher interface {
	EnsureValid(ctx context.Context, integration *integrationdomain.Integration) (*integrationdomain.Integration, error)
}

// Notifier is the fire-and-forget notification sink.
type Notifier interface {
	DocumentStored(ctx context.Context, ownerID, companyName string, document *documentdomain.Document)
}

// IngestUsecase drives the mailbox-to-document pipeline.
type IngestUsecase interface {
	// IngestAll reconciles every active integration. Per-integration
	// failures are logged and do not abort the remaining ones.
	IngestAll(ctx context.Context) error
	// IngestIntegration reconciles a single integration.
	IngestIntegration(ctx context.Context, integration *integrationdomain.Integration) error
}

// ingestUsecase implements IngestUsecase
type ingestUsecase struct {
	integrationRepo integrationrepo.IntegrationRepository
	companyRepo     companyrepo.CompanyRepository
	documentRepo    documentrepo.DocumentRepository
	provider        domain.MailProvider
	blobs           domain.BlobStore
	refresher       TokenRefresher
	reconciler      *HistoryReconciler
	guard           *IdempotencyGuard
	filter          *AttachmentFilter
	resolver        *companyusecase.Resolver
	notifier        Notifier
}

// NewIngestUsecase creates a new instance of ingestUsecase. The guard is
// injected so callers control its lifetime: production wires one per process,
// tests construct a fresh one per test.
func NewIngestUsecase(
	integrationRepo integrationrepo.IntegrationRepository,
	companyRepo companyrepo.CompanyRepository,
	documentRepo documentrepo.DocumentRepository,
	provider domain.MailProvider,
	blobs domain.BlobStore,
	refresher TokenRefresher,
	guard *IdempotencyGuard,
	notifier Notifier,
) IngestUsecase {
	return &ingestUsecase{
		integrationRepo: integrationRepo,
		companyRepo:     companyRepo,
		documentRepo:    documentRepo,
		provider:        provider,
		blobs:           blobs,
		refresher:       refresher,
		reconciler:      NewHistoryReconciler(provider),
		guard:           guard,
		filter:          NewAttachmentFilter(),
		resolver:        companyusecase.NewResolver(),
		notifier:        notifier,
	}
}

func (u *ingestUsecase) IngestAll(ctx context.Context) error {
	integrations, err := u.integrationRepo.ListActive()
	if err != nil {
		return fmt.Errorf("list active integrations: %w", err)
	}

	for _, integration := range integrations {
		if err := u.IngestIntegration(ctx, integration); err != nil {
			log.Printf("[Ingest] Integration %s skipped this cycle: %v", integration.ID, err)
		}
	}
	return nil
}

func (u *ingestUsecase) IngestIntegration(ctx context.Context, integration *integrationdomain.Integration) error {
	integration, err := u.refresher.EnsureValid(ctx, integration)
	if err != nil {
		return fmt.Errorf("credential check: %w", err)
	}
	cred := integration.Credential()

	messageIDs, newCursor, err := u.reconciler.ChangedMessageIDs(ctx, cred, integration.LastHistoryID)
	if err != nil {
		return fmt.Errorf("reconcile history: %w", err)
	}

	for _, messageID := range messageIDs {
		if u.guard.AlreadySeenMessage(messageID) {
			continue
		}
		if err := u.processMessage(ctx, integration, cred, messageID); err != nil {
			// Skip only this message; the rest of the batch still runs.
			log.Printf("[Ingest] Message %s skipped: %v", messageID, err)
			continue
		}
		u.guard.MarkMessageSeen(messageID)
	}

	if newCursor > integration.LastHistoryID {
		if err := u.integrationRepo.AdvanceHistoryID(integration.ID, newCursor); err != nil {
			log.Printf("[Ingest] Failed to advance cursor for integration %s: %v", integration.ID, err)
		}
	}
	return nil
}

func (u *ingestUsecase) processMessage(ctx context.Context, integration *integrationdomain.Integration, cred domain.Credential, messageID string) error {
	msg, err := u.provider.GetMessage(ctx, cred, messageID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMessageFetchFailed, err)
	}

	// Hard gate: mail without attachments never creates a company.
	if !u.filter.HasQualifyingAttachment(msg) {
		return nil
	}

	resolved, err := u.resolver.Resolve(msg.Subject(), msg.From())
	if err != nil {
		if errors.Is(err, companydomain.ErrCompanyNameUnresolved) {
			log.Printf("[Ingest] No company name inferable for message %s, skipping", messageID)
			return nil
		}
		return err
	}

	company, err := u.companyRepo.UpsertByEmail(integration.OwnerID, resolved.Name, resolved.Email)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}

	for _, attachment := range u.filter.Attachments(msg) {
		u.processAttachment(ctx, integration, cred, company, messageID, attachment)
	}
	return nil
}

// processAttachment handles one attachment end to end. Failures are logged
// and absorbed here so sibling attachments in the same message still process.
func (u *ingestUsecase) processAttachment(ctx context.Context, integration *integrationdomain.Integration, cred domain.Credential, company *companydomain.Company, messageID string, attachment domain.Part) {
	if !u.filter.IsEligible(attachment) {
		log.Printf("[Ingest] %v: %q (%s, %d bytes)", domain.ErrAttachmentIneligible, attachment.Filename, attachment.MimeType, attachment.SizeBytes)
		return
	}
	if u.guard.AlreadySeenAttachment(messageID, attachment.AttachmentID) {
		return
	}

	exists, err := u.documentRepo.ExistsBySource(company.ID, messageID, attachment.AttachmentID)
	if err != nil {
		log.Printf("[Ingest] Dedup lookup failed for attachment %q: %v", attachment.Filename, err)
		return
	}
	if exists {
		u.guard.MarkAttachmentSeen(messageID, attachment.AttachmentID)
		return
	}

	data, err := u.provider.GetAttachmentBytes(ctx, cred, messageID, attachment.AttachmentID)
	if err != nil {
		log.Printf("[Ingest] Failed to fetch attachment %q of message %s: %v", attachment.Filename, messageID, err)
		return
	}

	ref := u.blobs.GenerateUploadTarget(attachment.Filename)
	if err := u.blobs.Upload(ctx, ref, data, attachment.MimeType); err != nil {
		// No upload, no document record: metadata never points at a blob
		// that does not exist.
		log.Printf("[Ingest] %v for %q: %v", domain.ErrBlobUploadFailed, attachment.Filename, err)
		return
	}

	document := &documentdomain.Document{
		CompanyID:          company.ID,
		Filename:           attachment.Filename,
		MimeType:           attachment.MimeType,
		SizeBytes:          int64(len(data)),
		StorageRef:         ref,
		UploadedAt:         time.Now(),
		UploadedBy:         integration.OwnerID,
		SourceMessageID:    messageID,
		SourceAttachmentID: attachment.AttachmentID,
	}
	if err := u.documentRepo.Insert(document); err != nil {
		// The blob is orphaned now; accepted and logged, no compensating
		// delete (see DESIGN.md).
		log.Printf("[Ingest] %v for %q (blob %s orphaned): %v", domain.ErrDocumentPersistFailed, attachment.Filename, ref, err)
		return
	}

	u.guard.MarkAttachmentSeen(messageID, attachment.AttachmentID)
	u.notifier.DocumentStored(ctx, integration.OwnerID, company.Name, document)
}

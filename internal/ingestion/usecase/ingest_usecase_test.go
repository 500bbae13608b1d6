package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuflow-backend/internal/ingestion/domain"
	integrationdomain "docuflow-backend/internal/integration/domain"
	integrationusecase "docuflow-backend/internal/integration/usecase"
)

func invoiceMessage(id string) *domain.MessageEnvelope {
	return &domain.MessageEnvelope{
		ID: id,
		Headers: []domain.Header{
			{Name: "Subject", Value: "Invoice - Acme Corp"},
			{Name: "From", Value: "Billing <billing@acme.com>"},
		},
		Parts: []domain.Part{
			{MimeType: "text/plain"},
			{Filename: "invoice.pdf", MimeType: "application/pdf", SizeBytes: 2 * 1024 * 1024, AttachmentID: "att-1"},
		},
		ReceivedAt: time.Now(),
	}
}

type pipeline struct {
	provider        *fakeProvider
	integrationRepo *fakeIntegrationRepo
	companyRepo     *fakeCompanyRepo
	documentRepo    *fakeDocumentRepo
	blobs           *fakeBlobStore
	notifier        *fakeNotifier
	guard           *IdempotencyGuard
	usecase         IngestUsecase
}

func newPipeline(provider *fakeProvider) *pipeline {
	p := &pipeline{
		provider: provider,
		integrationRepo: &fakeIntegrationRepo{
			integrations: []*integrationdomain.Integration{{
				ID:            "int-1",
				OwnerID:       "owner-1",
				EmailAddress:  "me@example.com",
				AccessToken:   "token",
				LastHistoryID: 100,
				IsActive:      true,
			}},
		},
		companyRepo:  newFakeCompanyRepo(),
		documentRepo: &fakeDocumentRepo{},
		blobs:        newFakeBlobStore(),
		notifier:     &fakeNotifier{},
		guard:        NewIdempotencyGuard(DefaultGuardCapacity),
	}
	p.usecase = NewIngestUsecase(
		p.integrationRepo, p.companyRepo, p.documentRepo,
		provider, p.blobs, passRefresher{}, p.guard, p.notifier,
	)
	return p
}

func TestIngestAll_StoresDocumentAndCompany(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = invoiceMessage("m1")
	provider.attachments["m1/att-1"] = []byte("pdf bytes")

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	company, err := p.companyRepo.FindByEmail("owner-1", "billing@acme.com")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "Acme Corp", company.Name)

	require.Len(t, p.documentRepo.documents, 1)
	doc := p.documentRepo.documents[0]
	assert.Equal(t, "invoice.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Equal(t, company.ID, doc.CompanyID)
	assert.Equal(t, "m1", doc.SourceMessageID)
	assert.Equal(t, int64(len("pdf bytes")), doc.SizeBytes)
	assert.NotEmpty(t, doc.StorageRef)
	assert.Contains(t, p.blobs.uploads, doc.StorageRef)

	assert.Equal(t, []string{"invoice.pdf"}, p.notifier.notified)
	assert.Equal(t, uint64(150), p.integrationRepo.integrations[0].LastHistoryID)
}

func TestIngestAll_DuplicateDeliveryIsIdempotent(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = invoiceMessage("m1")
	provider.attachments["m1/att-1"] = []byte("pdf bytes")

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestAll(context.Background()))
	fetchesAfterFirst := provider.getMessageCalls

	// Second webhook for the same change arrives before the cursor is read
	// again; the guard short-circuits before any message fetch.
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	assert.Len(t, p.documentRepo.documents, 1)
	assert.Len(t, p.notifier.notified, 1)
	assert.Equal(t, fetchesAfterFirst, provider.getMessageCalls)
}

func TestIngestAll_DurableDedupBacksUpColdGuard(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = invoiceMessage("m1")
	provider.attachments["m1/att-1"] = []byte("pdf bytes")

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	// Simulate a restart: fresh guard, same database.
	p.guard = NewIdempotencyGuard(DefaultGuardCapacity)
	p.usecase = NewIngestUsecase(
		p.integrationRepo, p.companyRepo, p.documentRepo,
		provider, p.blobs, passRefresher{}, p.guard, p.notifier,
	)
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	assert.Len(t, p.documentRepo.documents, 1)
	assert.Len(t, p.notifier.notified, 1)
}

func TestIngestAll_NoAttachmentCreatesNothing(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = &domain.MessageEnvelope{
		ID: "m1",
		Headers: []domain.Header{
			{Name: "Subject", Value: "Invoice - Acme Corp"},
			{Name: "From", Value: "Billing <billing@acme.com>"},
		},
		Parts: []domain.Part{{MimeType: "text/plain"}},
	}

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	assert.Empty(t, p.companyRepo.companies)
	assert.Empty(t, p.documentRepo.documents)
	assert.Empty(t, p.notifier.notified)
	assert.Equal(t, uint64(150), p.integrationRepo.integrations[0].LastHistoryID)
}

func TestIngestAll_IneligibleAttachmentsSkippedSiblingProcessed(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = &domain.MessageEnvelope{
		ID: "m1",
		Headers: []domain.Header{
			{Name: "Subject", Value: "Invoice - Acme Corp"},
			{Name: "From", Value: "Billing <billing@acme.com>"},
		},
		Parts: []domain.Part{
			{Filename: "huge.pdf", MimeType: "application/pdf", SizeBytes: 20 * 1024 * 1024, AttachmentID: "att-big"},
			{Filename: "setup.exe", MimeType: "application/x-msdownload", SizeBytes: 1024, AttachmentID: "att-exe"},
			{Filename: "invoice.pdf", MimeType: "application/pdf", SizeBytes: 2 * 1024 * 1024, AttachmentID: "att-ok"},
		},
	}
	provider.attachments["m1/att-ok"] = []byte("pdf bytes")

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	require.Len(t, p.documentRepo.documents, 1)
	assert.Equal(t, "invoice.pdf", p.documentRepo.documents[0].Filename)
}

func TestIngestAll_CompanyNameFirstSeenWins(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1", "m2"}, NewHistoryID: 150}
	provider.messages["m1"] = invoiceMessage("m1")
	second := invoiceMessage("m2")
	second.Headers[0].Value = "Statement - Acme Corporation Ltd"
	second.Parts[1].AttachmentID = "att-2"
	second.Parts[1].Filename = "statement.pdf"
	provider.messages["m2"] = second
	provider.attachments["m1/att-1"] = []byte("pdf one")
	provider.attachments["m2/att-2"] = []byte("pdf two")

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	company, err := p.companyRepo.FindByEmail("owner-1", "billing@acme.com")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "Acme Corp", company.Name)
	assert.Len(t, p.documentRepo.documents, 2)
}

func TestIngestAll_UnresolvableNameSkipsMessage(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = &domain.MessageEnvelope{
		ID: "m1",
		Headers: []domain.Header{
			{Name: "Subject", Value: "hello"},
			{Name: "From", Value: "undisclosed-recipients"},
		},
		Parts: []domain.Part{
			{Filename: "doc.pdf", MimeType: "application/pdf", SizeBytes: 1024, AttachmentID: "att-1"},
		},
	}

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	assert.Empty(t, p.companyRepo.companies)
	assert.Empty(t, p.documentRepo.documents)
}

func TestIngestAll_StaleCursorFallsBackToRecentUnread(t *testing.T) {
	provider := newFakeProvider()
	provider.staleCursor = true
	provider.recentUnread = []string{"m1"}
	provider.messages["m1"] = invoiceMessage("m1")
	provider.attachments["m1/att-1"] = []byte("pdf bytes")

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	assert.Len(t, p.documentRepo.documents, 1)
	// The cursor stays put until the provider hands out a fresh one.
	assert.Equal(t, uint64(100), p.integrationRepo.integrations[0].LastHistoryID)
}

func TestIngestAll_ExpiredTokenRefreshedMidRun(t *testing.T) {
	provider := newFakeProvider()
	provider.badTokens["stale-token"] = true
	provider.refreshResult = &domain.Credential{
		AccessToken:  "fresh-token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = invoiceMessage("m1")
	provider.attachments["m1/att-1"] = []byte("pdf bytes")

	p := newPipeline(provider)
	p.integrationRepo.integrations[0].AccessToken = "stale-token"
	p.integrationRepo.integrations[0].RefreshToken = "refresh"
	refresher := integrationusecase.NewIntegrationUsecase(p.integrationRepo, provider, "")
	p.usecase = NewIngestUsecase(
		p.integrationRepo, p.companyRepo, p.documentRepo,
		provider, p.blobs, refresher, p.guard, p.notifier,
	)

	require.NoError(t, p.usecase.IngestAll(context.Background()))

	// Processing finished in the same invocation with the refreshed token.
	assert.Len(t, p.documentRepo.documents, 1)
	assert.Equal(t, 1, p.integrationRepo.tokenUpdates)
	assert.Equal(t, "fresh-token", p.integrationRepo.integrations[0].AccessToken)
}

func TestIngestAll_ExpiredTokenWithoutRefreshSkipsIntegration(t *testing.T) {
	provider := newFakeProvider()
	provider.badTokens["stale-token"] = true
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = invoiceMessage("m1")

	p := newPipeline(provider)
	p.integrationRepo.integrations[0].AccessToken = "stale-token"
	p.integrationRepo.integrations[0].RefreshToken = ""
	refresher := integrationusecase.NewIntegrationUsecase(p.integrationRepo, provider, "")
	p.usecase = NewIngestUsecase(
		p.integrationRepo, p.companyRepo, p.documentRepo,
		provider, p.blobs, refresher, p.guard, p.notifier,
	)

	// IngestAll absorbs the per-integration failure.
	require.NoError(t, p.usecase.IngestAll(context.Background()))
	assert.Empty(t, p.documentRepo.documents)
	assert.Equal(t, uint64(100), p.integrationRepo.integrations[0].LastHistoryID)
}

func TestIngestIntegration_MessageFetchFailureSkipsOnlyThatMessage(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m-bad", "m1"}, NewHistoryID: 150}
	provider.messageErrs["m-bad"] = errors.New("transient 500")
	provider.messages["m1"] = invoiceMessage("m1")
	provider.attachments["m1/att-1"] = []byte("pdf bytes")

	p := newPipeline(provider)
	require.NoError(t, p.usecase.IngestIntegration(context.Background(), p.integrationRepo.integrations[0]))

	assert.Len(t, p.documentRepo.documents, 1)
	// The failed message was not marked seen, so a later cycle retries it.
	assert.True(t, p.guard.AlreadySeenMessage("m1"))
	assert.False(t, p.guard.AlreadySeenMessage("m-bad"))
}

func TestIngestIntegration_UploadFailureLeavesNoDocument(t *testing.T) {
	provider := newFakeProvider()
	provider.delta = &domain.HistoryDelta{AddedMessageIDs: []string{"m1"}, NewHistoryID: 150}
	provider.messages["m1"] = invoiceMessage("m1")
	provider.attachments["m1/att-1"] = []byte("pdf bytes")

	p := newPipeline(provider)
	p.blobs.uploadErr = errors.New("bucket unavailable")
	require.NoError(t, p.usecase.IngestAll(context.Background()))

	assert.Empty(t, p.documentRepo.documents)
	assert.Empty(t, p.notifier.notified)
	// The attachment was not marked seen, so a retry after restart stores it.
	assert.False(t, p.guard.AlreadySeenAttachment("m1", "att-1"))
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	companydomain "docuflow-backend/internal/company/domain"
	documentdomain "docuflow-backend/internal/document/domain"
	"docuflow-backend/internal/ingestion/domain"
	integrationdomain "docuflow-backend/internal/integration/domain"
)

// fakeProvider is an in-memory MailProvider with per-call failure knobs.
type fakeProvider struct {
	mu sync.Mutex

	profile       domain.Profile
	badTokens     map[string]bool // access tokens that fail the profile probe
	refreshResult *domain.Credential
	refreshErr    error

	delta           *domain.HistoryDelta
	historyErr      error
	historyFailures int // fail this many calls before succeeding
	staleCursor     bool
	recentUnread    []string
	recentErr       error

	messages      map[string]*domain.MessageEnvelope
	messageErrs   map[string]error
	attachments   map[string][]byte
	attachmentErr error

	historyCalls    int
	getMessageCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		badTokens:   make(map[string]bool),
		messages:    make(map[string]*domain.MessageEnvelope),
		messageErrs: make(map[string]error),
		attachments: make(map[string][]byte),
	}
}

func (p *fakeProvider) GetProfile(_ context.Context, cred domain.Credential) (*domain.Profile, error) {
	if p.badTokens[cred.AccessToken] {
		return nil, errors.New("invalid credentials")
	}
	profile := p.profile
	return &profile, nil
}

func (p *fakeProvider) ListHistorySince(_ context.Context, cred domain.Credential, since uint64, _ int64) (*domain.HistoryDelta, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.historyCalls++
	if p.badTokens[cred.AccessToken] {
		return nil, errors.New("invalid credentials")
	}
	if p.staleCursor {
		return nil, domain.ErrStaleCursor
	}
	if p.historyFailures > 0 {
		p.historyFailures--
		return nil, errors.New("backend unavailable")
	}
	if p.historyErr != nil {
		return nil, p.historyErr
	}
	if p.delta == nil {
		return &domain.HistoryDelta{NewHistoryID: since}, nil
	}
	delta := *p.delta
	return &delta, nil
}

func (p *fakeProvider) ListRecentUnread(_ context.Context, _ domain.Credential, max int64) ([]string, error) {
	if p.recentErr != nil {
		return nil, p.recentErr
	}
	if int64(len(p.recentUnread)) > max {
		return p.recentUnread[:max], nil
	}
	return p.recentUnread, nil
}

func (p *fakeProvider) GetMessage(_ context.Context, _ domain.Credential, messageID string) (*domain.MessageEnvelope, error) {
	p.mu.Lock()
	p.getMessageCalls++
	p.mu.Unlock()
	if err := p.messageErrs[messageID]; err != nil {
		return nil, err
	}
	msg, ok := p.messages[messageID]
	if !ok {
		return nil, errors.New("message not found")
	}
	return msg, nil
}

func (p *fakeProvider) GetAttachmentBytes(_ context.Context, _ domain.Credential, messageID, attachmentID string) ([]byte, error) {
	if p.attachmentErr != nil {
		return nil, p.attachmentErr
	}
	data, ok := p.attachments[messageID+"/"+attachmentID]
	if !ok {
		return nil, errors.New("attachment not found")
	}
	return data, nil
}

func (p *fakeProvider) RefreshAccessToken(_ context.Context, _ domain.Credential) (*domain.Credential, error) {
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	if p.refreshResult == nil {
		return nil, errors.New("no refresh configured")
	}
	cred := *p.refreshResult
	return &cred, nil
}

func (p *fakeProvider) Watch(_ context.Context, _ domain.Credential, _ string) (*domain.WatchResult, error) {
	return &domain.WatchResult{HistoryID: 1, Expiration: time.Now().Add(7 * 24 * time.Hour)}, nil
}

func (p *fakeProvider) Stop(_ context.Context, _ domain.Credential) error {
	return nil
}

// fakeIntegrationRepo keeps integrations in memory.
type fakeIntegrationRepo struct {
	mu           sync.Mutex
	integrations []*integrationdomain.Integration
	tokenUpdates int
}

func (r *fakeIntegrationRepo) FindByOwner(ownerID string) (*integrationdomain.Integration, error) {
	for _, i := range r.integrations {
		if i.OwnerID == ownerID && i.IsActive {
			return i, nil
		}
	}
	return nil, nil
}

func (r *fakeIntegrationRepo) FindByEmailAddress(email string) (*integrationdomain.Integration, error) {
	for _, i := range r.integrations {
		if i.EmailAddress == email && i.IsActive {
			return i, nil
		}
	}
	return nil, nil
}

func (r *fakeIntegrationRepo) ListActive() ([]*integrationdomain.Integration, error) {
	var active []*integrationdomain.Integration
	for _, i := range r.integrations {
		if i.IsActive {
			copied := *i
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (r *fakeIntegrationRepo) ListExpiringWatches(before time.Time) ([]*integrationdomain.Integration, error) {
	return nil, nil
}

func (r *fakeIntegrationRepo) Upsert(integration *integrationdomain.Integration) (*integrationdomain.Integration, error) {
	integration.IsActive = true
	r.integrations = append(r.integrations, integration)
	return integration, nil
}

func (r *fakeIntegrationRepo) UpdateTokens(id, accessToken, refreshToken string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenUpdates++
	for _, i := range r.integrations {
		if i.ID == id {
			i.AccessToken = accessToken
			i.RefreshToken = refreshToken
			i.ExpiresAt = expiresAt
		}
	}
	return nil
}

func (r *fakeIntegrationRepo) AdvanceHistoryID(id string, historyID uint64) error {
	for _, i := range r.integrations {
		if i.ID == id && i.LastHistoryID < historyID {
			i.LastHistoryID = historyID
		}
	}
	return nil
}

func (r *fakeIntegrationRepo) UpdateSubscription(id string, expiresAt time.Time) error {
	return nil
}

func (r *fakeIntegrationRepo) Deactivate(ownerID string) error {
	for _, i := range r.integrations {
		if i.OwnerID == ownerID {
			i.IsActive = false
		}
	}
	return nil
}

// fakeCompanyRepo mirrors the first-seen-name-wins upsert semantics.
type fakeCompanyRepo struct {
	companies map[string]*companydomain.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: make(map[string]*companydomain.Company)}
}

func (r *fakeCompanyRepo) FindByEmail(ownerID, email string) (*companydomain.Company, error) {
	return r.companies[ownerID+"|"+email], nil
}

func (r *fakeCompanyRepo) UpsertByEmail(ownerID, name, email string) (*companydomain.Company, error) {
	key := ownerID + "|" + email
	if existing, ok := r.companies[key]; ok {
		existing.LastActivityAt = time.Now()
		return existing, nil
	}
	company := &companydomain.Company{
		ID:             fmt.Sprintf("company-%d", len(r.companies)+1),
		OwnerID:        ownerID,
		Name:           name,
		CanonicalEmail: email,
		LastActivityAt: time.Now(),
	}
	r.companies[key] = company
	return company, nil
}

// fakeDocumentRepo keeps documents in a slice.
type fakeDocumentRepo struct {
	documents []*documentdomain.Document
	insertErr error
}

func (r *fakeDocumentRepo) Insert(document *documentdomain.Document) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if document.ID == "" {
		document.ID = fmt.Sprintf("doc-%d", len(r.documents)+1)
	}
	r.documents = append(r.documents, document)
	return nil
}

func (r *fakeDocumentRepo) ExistsBySource(companyID, messageID, attachmentID string) (bool, error) {
	for _, d := range r.documents {
		if d.CompanyID == companyID && d.SourceMessageID == messageID && d.SourceAttachmentID == attachmentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDocumentRepo) ListByCompany(companyID string, limit, offset int) ([]*documentdomain.Document, error) {
	var out []*documentdomain.Document
	for _, d := range r.documents {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out, nil
}

// fakeBlobStore records uploads keyed by ref.
type fakeBlobStore struct {
	uploads   map[string][]byte
	uploadErr error
	counter   int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string][]byte)}
}

func (b *fakeBlobStore) GenerateUploadTarget(filename string) string {
	b.counter++
	return fmt.Sprintf("blob-%d", b.counter)
}

func (b *fakeBlobStore) Upload(_ context.Context, ref string, data []byte, _ string) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.uploads[ref] = data
	return nil
}

// fakeNotifier counts sink invocations.
type fakeNotifier struct {
	notified []string
}

func (n *fakeNotifier) DocumentStored(_ context.Context, ownerID, companyName string, document *documentdomain.Document) {
	n.notified = append(n.notified, document.Filename)
}

// passRefresher returns the integration untouched.
type passRefresher struct{}

func (passRefresher) EnsureValid(_ context.Context, integration *integrationdomain.Integration) (*integrationdomain.Integration, error) {
	return integration, nil
}

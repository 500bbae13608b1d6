// Package gmail implements the MailProvider capability interface on top of
// the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"docuflow-backend/internal/ingestion/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// client builds a Gmail client bound to the given access token. The token is
// used as-is: refresh is an explicit operation (RefreshAccessToken), not a
// side effect of arbitrary calls, so a stale token surfaces as an auth error
// the caller can act on.
func (s *Service) client(ctx context.Context, cred domain.Credential) (*gmailapi.Service, error) {
	token := &oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

func (s *Service) GetProfile(ctx context.Context, cred domain.Credential) (*domain.Profile, error) {
	srv, err := s.client(ctx, cred)
	if err != nil {
		return nil, err
	}

	profile, err := srv.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get profile: %v", err)
	}
	return &domain.Profile{
		EmailAddress: profile.EmailAddress,
		HistoryID:    profile.HistoryId,
	}, nil
}

// ListHistorySince queries the history delta API. Only messageAdded events
// are surfaced; removals and label changes are dropped here. A 404 means the
// cursor is too old for the provider and maps to ErrStaleCursor.
func (s *Service) ListHistorySince(ctx context.Context, cred domain.Credential, sinceHistoryID uint64, maxResults int64) (*domain.HistoryDelta, error) {
	srv, err := s.client(ctx, cred)
	if err != nil {
		return nil, err
	}

	delta := &domain.HistoryDelta{NewHistoryID: sinceHistoryID}
	seen := make(map[string]struct{})
	pageToken := ""

	for {
		call := srv.Users.History.List("me").
			StartHistoryId(sinceHistoryID).
			HistoryTypes("messageAdded").
			MaxResults(maxResults).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == http.StatusNotFound {
				return nil, domain.ErrStaleCursor
			}
			return nil, fmt.Errorf("unable to list history: %v", err)
		}

		for _, record := range resp.History {
			for _, added := range record.MessagesAdded {
				if added.Message == nil {
					continue
				}
				if _, dup := seen[added.Message.Id]; dup {
					continue
				}
				seen[added.Message.Id] = struct{}{}
				delta.AddedMessageIDs = append(delta.AddedMessageIDs, added.Message.Id)
			}
		}
		if resp.HistoryId > delta.NewHistoryID {
			delta.NewHistoryID = resp.HistoryId
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || int64(len(delta.AddedMessageIDs)) >= maxResults {
			break
		}
	}

	return delta, nil
}

func (s *Service) ListRecentUnread(ctx context.Context, cred domain.Credential, maxResults int64) ([]string, error) {
	srv, err := s.client(ctx, cred)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Users.Messages.List("me").
		LabelIds("INBOX").
		Q("is:unread").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list unread messages: %v", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}
	return ids, nil
}

func (s *Service) GetMessage(ctx context.Context, cred domain.Credential, messageID string) (*domain.MessageEnvelope, error) {
	srv, err := s.client(ctx, cred)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message: %v", err)
	}
	return convertMessage(msg), nil
}

func (s *Service) GetAttachmentBytes(ctx context.Context, cred domain.Credential, messageID, attachmentID string) ([]byte, error) {
	srv, err := s.client(ctx, cred)
	if err != nil {
		return nil, err
	}

	part, err := srv.Users.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve attachment: %v", err)
	}

	data, err := base64.URLEncoding.DecodeString(part.Data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode attachment data: %v", err)
	}
	return data, nil
}

// RefreshAccessToken exchanges the refresh token for a fresh access token.
// Forcing Expiry to now makes the oauth2 token source perform the exchange
// immediately instead of reusing the stale access token.
func (s *Service) RefreshAccessToken(ctx context.Context, cred domain.Credential) (*domain.Credential, error) {
	if cred.RefreshToken == "" {
		return nil, domain.ErrCredentialExpired
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}
	stale := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now(),
	}

	fresh, err := config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("unable to refresh access token: %v", err)
	}

	refreshToken := fresh.RefreshToken
	if refreshToken == "" {
		refreshToken = cred.RefreshToken
	}
	return &domain.Credential{
		AccessToken:  fresh.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    fresh.Expiry,
	}, nil
}

// Watch sets up push notifications for the user's inbox. Any existing watch
// is stopped first to avoid the "only one push client allowed" error.
func (s *Service) Watch(ctx context.Context, cred domain.Credential, topicName string) (*domain.WatchResult, error) {
	srv, err := s.client(ctx, cred)
	if err != nil {
		return nil, err
	}

	_ = srv.Users.Stop("me").Do()

	resp, err := srv.Users.Watch("me", &gmailapi.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to watch mailbox: %v", err)
	}

	return &domain.WatchResult{
		HistoryID:  resp.HistoryId,
		Expiration: time.Unix(0, resp.Expiration*int64(time.Millisecond)),
	}, nil
}

func (s *Service) Stop(ctx context.Context, cred domain.Credential) error {
	srv, err := s.client(ctx, cred)
	if err != nil {
		return err
	}
	if err := srv.Users.Stop("me").Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %v", err)
	}
	return nil
}

func convertMessage(msg *gmailapi.Message) *domain.MessageEnvelope {
	envelope := &domain.MessageEnvelope{
		ID:         msg.Id,
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0),
	}
	if msg.Payload == nil {
		return envelope
	}

	for _, header := range msg.Payload.Headers {
		envelope.Headers = append(envelope.Headers, domain.Header{
			Name:  header.Name,
			Value: header.Value,
		})
	}
	envelope.Parts = convertParts(msg.Payload.Parts)
	return envelope
}

func convertParts(parts []*gmailapi.MessagePart) []domain.Part {
	var out []domain.Part
	for _, part := range parts {
		converted := domain.Part{
			Filename: part.Filename,
			MimeType: part.MimeType,
			Parts:    convertParts(part.Parts),
		}
		if part.Body != nil {
			converted.SizeBytes = part.Body.Size
			converted.AttachmentID = part.Body.AttachmentId
		}
		out = append(out, converted)
	}
	return out
}

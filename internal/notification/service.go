package notification

import (
	"context"
	"fmt"
	"log"

	documentdomain "docuflow-backend/internal/document/domain"
	"docuflow-backend/internal/notification/domain"
	"docuflow-backend/internal/notification/repository"
	"docuflow-backend/pkg/fcm"
)

// Service is a fire-and-forget notification sink. A failure here must never
// fail the ingestion that triggered it, so every error is logged and dropped.
type Service struct {
	notificationRepo repository.NotificationRepository
	tokenRepo        repository.DeviceTokenRepository
	fcmClient        *fcm.Client
}

func NewService(notificationRepo repository.NotificationRepository, tokenRepo repository.DeviceTokenRepository, fcmClient *fcm.Client) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		tokenRepo:        tokenRepo,
		fcmClient:        fcmClient,
	}
}

// DocumentStored records a notification for a newly filed document and, when
// FCM is configured, pushes it to the owner's devices.
func (s *Service) DocumentStored(ctx context.Context, ownerID, companyName string, document *documentdomain.Document) {
	title := fmt.Sprintf("New document from %s", companyName)
	body := document.Filename

	err := s.notificationRepo.Insert(&domain.Notification{
		OwnerID:    ownerID,
		Title:      title,
		Body:       body,
		DocumentID: document.ID,
	})
	if err != nil {
		log.Printf("[Notify] Failed to insert notification for owner %s: %v", ownerID, err)
	}

	if s.fcmClient == nil || s.tokenRepo == nil {
		return
	}

	tokens, err := s.tokenRepo.TokensByOwner(ownerID)
	if err != nil {
		log.Printf("[Notify] Failed to load device tokens for owner %s: %v", ownerID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	failed, err := s.fcmClient.SendToDevices(ctx, tokens, fcm.PushMessage{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":        "document_stored",
			"document_id": document.ID,
			"company_id":  document.CompanyID,
		},
	})
	if err != nil {
		log.Printf("[Notify] FCM send failed for owner %s: %v", ownerID, err)
		return
	}
	for _, token := range failed {
		if delErr := s.tokenRepo.Delete(token); delErr != nil {
			log.Printf("[Notify] Failed to clean up dead token: %v", delErr)
		}
	}
}

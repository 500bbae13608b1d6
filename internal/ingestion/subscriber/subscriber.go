// Package subscriber consumes Gmail push notifications from a Pub/Sub pull
// subscription. It is the alternative inlet to the HTTP webhook: both feed
// the same ingestion pipeline.
package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"docuflow-backend/internal/ingestion/usecase"
	integrationrepo "docuflow-backend/internal/integration/repository"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// gmailNotification is the payload Gmail publishes to the topic.
type gmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

type Service struct {
	pubsubClient    *pubsub.Client
	integrationRepo integrationrepo.IntegrationRepository
	ingestUsecase   usecase.IngestUsecase
	topicName       string
	subName         string

	// Gmail re-publishes aggressively; track the highest historyId handled
	// per mailbox so bursts collapse into one reconciliation.
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(projectID, topicName, credentialsFile string, integrationRepo integrationrepo.IntegrationRepository, ingestUsecase usecase.IngestUsecase) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(context.Background(), projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Service{
		pubsubClient:    client,
		integrationRepo: integrationRepo,
		ingestUsecase:   ingestUsecase,
		topicName:       topicName,
		subName:         topicName + "-sub",
		lastHistoryID:   make(map[string]uint64),
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting subscriber on topic %s, subscription %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification gmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	if s.isDuplicate(notification) {
		return
	}

	integration, err := s.integrationRepo.FindByEmailAddress(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding integration for %s: %v", notification.EmailAddress, err)
		return
	}
	if integration == nil {
		log.Printf("[PubSub] No active integration for mailbox %s", notification.EmailAddress)
		return
	}

	if err := s.ingestUsecase.IngestIntegration(ctx, integration); err != nil {
		log.Printf("[PubSub] Integration %s skipped this cycle: %v", integration.ID, err)
	}
}

func (s *Service) isDuplicate(notification gmailNotification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastHistoryID[notification.EmailAddress]
	if ok && notification.HistoryID <= last {
		return true
	}
	s.lastHistoryID[notification.EmailAddress] = notification.HistoryID
	return false
}

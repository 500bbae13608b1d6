package main

import (
	"context"
	"log"
	"strings"

	api "docuflow-backend/cmd/api"
	companydomain "docuflow-backend/internal/company/domain"
	companyRepo "docuflow-backend/internal/company/repository"
	documentdomain "docuflow-backend/internal/document/domain"
	documentRepo "docuflow-backend/internal/document/repository"
	"docuflow-backend/internal/ingestion/subscriber"
	ingestionUsecase "docuflow-backend/internal/ingestion/usecase"
	integrationdomain "docuflow-backend/internal/integration/domain"
	integrationRepo "docuflow-backend/internal/integration/repository"
	integrationUsecase "docuflow-backend/internal/integration/usecase"
	"docuflow-backend/internal/notification"
	notificationdomain "docuflow-backend/internal/notification/domain"
	notificationRepo "docuflow-backend/internal/notification/repository"
	"docuflow-backend/pkg/config"
	"docuflow-backend/pkg/database"
	"docuflow-backend/pkg/fcm"
	"docuflow-backend/pkg/gmail"
	"docuflow-backend/pkg/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&integrationdomain.Integration{},
		&companydomain.Company{},
		&documentdomain.Document{},
		&notificationdomain.Notification{},
		&notificationdomain.DeviceToken{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	integrationRepository := integrationRepo.NewIntegrationRepository(db)
	companyRepository := companyRepo.NewCompanyRepository(db)
	documentRepository := documentRepo.NewDocumentRepository(db)
	notificationRepository := notificationRepo.NewNotificationRepository(db)
	deviceTokenRepository := notificationRepo.NewDeviceTokenRepository(db)

	// Initialize Gmail provider
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)

	// Initialize blob store
	blobStore, err := storage.NewS3Store(cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Region, cfg.S3Bucket)
	if err != nil {
		log.Fatal("Failed to initialize blob store:", err)
	}

	// Initialize FCM client (optional, notifications degrade to DB records)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		}
	}
	notificationSink := notification.NewService(notificationRepository, deviceTokenRepository, fcmClient)

	// Initialize use cases (dependency injection)
	integrationUsecaseInstance := integrationUsecase.NewIntegrationUsecase(integrationRepository, gmailService, cfg.GooglePubSubTopic)
	guard := ingestionUsecase.NewIdempotencyGuard(ingestionUsecase.DefaultGuardCapacity)
	ingestUsecaseInstance := ingestionUsecase.NewIngestUsecase(
		integrationRepository,
		companyRepository,
		documentRepository,
		gmailService,
		blobStore,
		integrationUsecaseInstance,
		guard,
		notificationSink,
	)

	// Keep push subscriptions alive
	integrationUsecaseInstance.StartWatchRenewal(context.Background(), cfg.WatchRenewalInterval)

	// Start the Pub/Sub pull subscriber when a project is configured; the
	// HTTP webhook works either way.
	if cfg.GoogleProjectID != "" {
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		subscriberService, err := subscriber.NewService(cfg.GoogleProjectID, topicName, cfg.GoogleCredentials, integrationRepository, ingestUsecaseInstance)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize pubsub subscriber: %v", err)
		} else {
			go subscriberService.Start(context.Background())
		}
	}

	// Initialize HTTP handler
	handler := api.NewHandler(ingestUsecaseInstance, integrationUsecaseInstance, documentRepository, deviceTokenRepository, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

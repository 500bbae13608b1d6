package api

import (
	documentDelivery "docuflow-backend/internal/document/delivery"
	documentRepo "docuflow-backend/internal/document/repository"
	ingestionDelivery "docuflow-backend/internal/ingestion/delivery"
	ingestionUsecase "docuflow-backend/internal/ingestion/usecase"
	integrationDelivery "docuflow-backend/internal/integration/delivery"
	integrationUsecase "docuflow-backend/internal/integration/usecase"
	notificationDelivery "docuflow-backend/internal/notification/delivery"
	notificationRepo "docuflow-backend/internal/notification/repository"
	"docuflow-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ingestUsecase      ingestionUsecase.IngestUsecase
	integrationUsecase integrationUsecase.IntegrationUsecase
	documentRepository documentRepo.DocumentRepository
	deviceTokenRepo    notificationRepo.DeviceTokenRepository
	config             *config.Config
}

func NewHandler(ingestUc ingestionUsecase.IngestUsecase, integrationUc integrationUsecase.IntegrationUsecase, documentRepository documentRepo.DocumentRepository, deviceTokenRepo notificationRepo.DeviceTokenRepository, cfg *config.Config) *Handler {
	return &Handler{
		ingestUsecase:      ingestUc,
		integrationUsecase: integrationUc,
		documentRepository: documentRepository,
		deviceTokenRepo:    deviceTokenRepo,
		config:             cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	webhookHandler := ingestionDelivery.NewWebhookHandler(h.ingestUsecase)
	integrationHandler := integrationDelivery.NewIntegrationHandler(h.integrationUsecase)
	documentHandler := documentDelivery.NewDocumentHandler(h.documentRepository)
	notificationHandler := notificationDelivery.NewNotificationHandler(h.deviceTokenRepo)

	SetupRoutes(r, webhookHandler, integrationHandler, documentHandler, notificationHandler)

	return r.Run(addr)
}

package api

import (
	"net/http"

	documentDelivery "docuflow-backend/internal/document/delivery"
	ingestionDelivery "docuflow-backend/internal/ingestion/delivery"
	integrationDelivery "docuflow-backend/internal/integration/delivery"
	notificationDelivery "docuflow-backend/internal/notification/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, webhookHandler *ingestionDelivery.WebhookHandler, integrationHandler *integrationDelivery.IntegrationHandler, documentHandler *documentDelivery.DocumentHandler, notificationHandler *notificationDelivery.NotificationHandler) {
	// Push endpoint lives at the root: the push platform is configured with
	// this exact path.
	r.POST("/gmail/webhook", webhookHandler.HandleGmailWebhook)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		integrations := api.Group("/integrations")
		{
			integrations.POST("", integrationHandler.Connect)
			integrations.GET("", integrationHandler.List)
			integrations.DELETE("/:ownerId", integrationHandler.Disconnect)
		}

		api.GET("/companies/:companyId/documents", documentHandler.ListByCompany)
		api.POST("/device-tokens", notificationHandler.RegisterToken)
	}
}

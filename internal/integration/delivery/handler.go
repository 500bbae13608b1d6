package delivery

import (
	"net/http"
	"time"

	"docuflow-backend/internal/integration/usecase"

	"github.com/gin-gonic/gin"
)

type IntegrationHandler struct {
	integrationUsecase usecase.IntegrationUsecase
}

func NewIntegrationHandler(integrationUsecase usecase.IntegrationUsecase) *IntegrationHandler {
	return &IntegrationHandler{
		integrationUsecase: integrationUsecase,
	}
}

type connectRequest struct {
	OwnerID      string    `json:"owner_id" binding:"required"`
	AccessToken  string    `json:"access_token" binding:"required"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (h *IntegrationHandler) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	integration, err := h.integrationUsecase.Connect(c.Request.Context(), req.OwnerID, req.AccessToken, req.RefreshToken, req.ExpiresAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, integration)
}

func (h *IntegrationHandler) List(c *gin.Context) {
	integrations, err := h.integrationUsecase.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"integrations": integrations})
}

func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	ownerID := c.Param("ownerId")
	if err := h.integrationUsecase.Disconnect(c.Request.Context(), ownerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

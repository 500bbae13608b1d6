package delivery

import (
	"net/http"

	"docuflow-backend/internal/notification/domain"
	"docuflow-backend/internal/notification/repository"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	tokenRepo repository.DeviceTokenRepository
}

func NewNotificationHandler(tokenRepo repository.DeviceTokenRepository) *NotificationHandler {
	return &NotificationHandler{
		tokenRepo: tokenRepo,
	}
}

type registerTokenRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Token   string `json:"token" binding:"required"`
}

// RegisterToken saves a device token so document pushes reach the device.
// Saving the same token again just reassigns it to the owner.
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req registerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.tokenRepo.Save(&domain.DeviceToken{
		Token:   req.Token,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

package delivery

import (
	"net/http"
	"strconv"

	"docuflow-backend/internal/document/repository"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documentRepo repository.DocumentRepository
}

func NewDocumentHandler(documentRepo repository.DocumentRepository) *DocumentHandler {
	return &DocumentHandler{
		documentRepo: documentRepo,
	}
}

// ListByCompany returns the documents filed under a company, newest first.
func (h *DocumentHandler) ListByCompany(c *gin.Context) {
	companyID := c.Param("companyId")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	documents, err := h.documentRepo.ListByCompany(companyID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

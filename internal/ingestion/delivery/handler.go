package delivery

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"docuflow-backend/internal/ingestion/usecase"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives Gmail push notifications. Delivery retries from the
// push platform must be safe, so the handler acknowledges with 200 on every
// decodable-or-ignorable body and only reports 500 when dispatch itself
// fails.
type WebhookHandler struct {
	ingestUsecase usecase.IngestUsecase
}

func NewWebhookHandler(ingestUsecase usecase.IngestUsecase) *WebhookHandler {
	return &WebhookHandler{
		ingestUsecase: ingestUsecase,
	}
}

// pushEnvelope is the Pub/Sub push wrapper: Data carries base64 JSON.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
}

type notificationPayload struct {
	EmailAddress string          `json:"emailAddress"`
	HistoryID    json.RawMessage `json:"historyId"`
}

func (h *WebhookHandler) HandleGmailWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read_failed", "message": err.Error()})
		return
	}

	historyID, ok := decodeHistoryID(body)
	if !ok {
		// Webhook senders probe with arbitrary bodies; acknowledge and move on.
		log.Printf("[Webhook] Ignoring undecodable payload (%d bytes)", len(body))
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	log.Printf("[Webhook] Push received (historyId %s), reconciling active integrations", historyID)
	if err := h.ingestUsecase.IngestAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion_dispatch_failed", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// decodeHistoryID accepts either the Pub/Sub push envelope (base64 JSON in
// message.data) or a raw {"historyId": ...} body, with the id as a string or
// a number. Anything else is reported as undecodable, not an error.
func decodeHistoryID(body []byte) (string, bool) {
	var envelope pushEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			decoded, err = base64.URLEncoding.DecodeString(envelope.Message.Data)
		}
		if err == nil {
			if id, ok := parseHistoryID(decoded); ok {
				return id, true
			}
		}
		return "", false
	}
	return parseHistoryID(body)
}

func parseHistoryID(raw []byte) (string, bool) {
	var payload notificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", false
	}
	if len(payload.HistoryID) == 0 {
		return "", false
	}

	var asString string
	if err := json.Unmarshal(payload.HistoryID, &asString); err == nil {
		return asString, asString != ""
	}
	var asNumber json.Number
	if err := json.Unmarshal(payload.HistoryID, &asNumber); err == nil {
		return asNumber.String(), true
	}
	return "", false
}

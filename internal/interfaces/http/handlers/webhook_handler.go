package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	"mark/internal/interfaces/http/response"
	"mark/internal/usecases"
)

// EventQueue is the subset of usecases.Queue the webhook handler needs.
type EventQueue interface {
	Enqueue(ctx context.Context, entry usecases.Entry) bool
}

// WebhookHandler turns Goldsky's indexer webhooks into queue entries.
type WebhookHandler struct {
	queue          EventQueue
	secret         string
	minBlockNumber int64
}

// NewWebhookHandler wires a WebhookHandler. secret is compared in constant
// time against the inbound goldsky-webhook-secret header; minBlockNumber
// filters out events the indexer has already redelivered from before a
// restart.
func NewWebhookHandler(queue EventQueue, secret string, minBlockNumber int64) *WebhookHandler {
	return &WebhookHandler{queue: queue, secret: secret, minBlockNumber: minBlockNumber}
}

type webhookPayload struct {
	GsGID       string `json:"_gs_gid"`
	Intent      string `json:"intent"`
	BlockNumber int64  `json:"block_number"`
}

type decodedIntent struct {
	IntentID string `json:"intentId"`
}

// HandleWebhook handles POST /webhook?name=invoice-enqueued|settlement-enqueued
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	eventType, ok := eventTypeForName(c.Query("name"))
	if !ok {
		response.Error(c, domainerrors.BadRequest("unknown webhook name"))
		return
	}

	if subtle.ConstantTimeCompare([]byte(c.GetHeader("goldsky-webhook-secret")), []byte(h.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	webhookID := payload.GsGID
	if webhookID == "" {
		webhookID = uuid.NewString()
	}

	if payload.BlockNumber < h.minBlockNumber {
		c.JSON(http.StatusOK, gin.H{"message": "stale event dropped", "processed": false, "webhookId": webhookID})
		return
	}

	invoiceID, err := decodeIntentID(payload.Intent)
	if err != nil {
		response.Error(c, domainerrors.InternalError(fmt.Errorf("decode intent: %w", err)))
		return
	}

	// Enqueue detaches from the request context: processing continues in the
	// background via Queue's own goroutine, well after this handler returns
	// and gin cancels c.Request.Context().
	h.queue.Enqueue(context.Background(), usecases.Entry{ID: invoiceID, Type: eventType, EnqueuedAt: time.Now()})

	c.JSON(http.StatusOK, gin.H{"message": "accepted", "processed": true, "webhookId": webhookID})
}

func eventTypeForName(name string) (entities.EventType, bool) {
	switch name {
	case "invoice-enqueued":
		return entities.EventTypeInvoiceEnqueued, true
	case "settlement-enqueued":
		return entities.EventTypeSettlementEnqueued, true
	default:
		return "", false
	}
}

func decodeIntentID(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	var intent decodedIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return "", err
	}
	if intent.IntentID == "" {
		return "", fmt.Errorf("intent payload missing intentId")
	}
	return intent.IntentID, nil
}

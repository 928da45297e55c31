package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"medbook_backend/internal/logger"
	"medbook_backend/internal/services"
	"medbook_backend/internal/services/dto"
	"medbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

type WebhookHandler struct {
	*BaseHandler
	webhookService *services.WebhookService
	limiter        gin.HandlerFunc // may be nil
}

func NewWebhookHandler(base *BaseHandler, webhookService *services.WebhookService, limiter gin.HandlerFunc) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    base,
		webhookService: webhookService,
		limiter:        limiter,
	}
}

func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	webhooks := r.Group("/webhooks")
	if h.limiter != nil {
		webhooks.Use(h.limiter)
	}
	{
		webhooks.POST("/calendar", h.HandleCalendarEvent)
	}
}

// HandleCalendarEvent ingests a signed callback from the scheduling
// provider. Once the signature checks out we acknowledge with 200 even
// if processing fails internally: the event row is persisted and the
// retry worker picks it up, so asking the provider to redeliver would
// only produce duplicates.
func (h *WebhookHandler) HandleCalendarEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read request body"))
		return
	}

	if !h.webhookService.VerifySignature(body, c.GetHeader(SignatureHeader)) {
		logger.CtxWarn(ctx, "webhook signature rejected", "ip", c.ClientIP())
		apperrors.HandleError(c, apperrors.ErrWebhookBadSignature)
		return
	}

	var event dto.ProviderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Malformed event payload"))
		return
	}
	if event.EventID == "" || event.EventType == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Event is missing event_id or event_type"))
		return
	}

	if err := h.webhookService.Ingest(ctx, &event, body); err != nil {
		// Persistence failed; this is the one case where redelivery helps
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

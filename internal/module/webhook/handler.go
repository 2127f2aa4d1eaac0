package webhook

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/provider"
	"github.com/payflow/server/internal/shared/metrics"
	"github.com/payflow/server/internal/shared/response"
)

// Handler receives provider webhook deliveries. The signature is verified
// against the raw body before anything in the payload is trusted or parsed.
type Handler struct {
	gateway    provider.Gateway
	dispatcher *Dispatcher
	eventStore EventStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(gateway provider.Gateway, dispatcher *Dispatcher, eventStore EventStore, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		gateway:    gateway,
		dispatcher: dispatcher,
		eventStore: eventStore,
		metrics:    m,
		logger:     logger,
	}
}

// RegisterRoutes registers the webhook routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/stripe", h.HandleWebhook)
}

// HandleWebhook verifies, deduplicates and dispatches a webhook delivery.
// Unrecognized event types are acknowledged with 200 so the provider stops
// redelivering them.
func (h *Handler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		response.BadRequest(c, "failed to read body")
		return
	}

	ev, err := h.gateway.VerifyWebhookSignature(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		h.metrics.RecordWebhookEvent("unknown", "rejected")
		response.Unauthorized(c, "invalid signature")
		return
	}

	ctx := c.Request.Context()

	fresh, err := h.eventStore.MarkProcessed(ctx, ev.ID)
	if err != nil {
		// Dedup is an optimization; the terminal-state guards make
		// re-dispatch safe, so keep going.
		h.logger.Error("webhook dedup check failed", zap.Error(err),
			zap.String("event_id", ev.ID))
		fresh = true
	}
	if !fresh {
		h.logger.Info("webhook event already processed",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type),
		)
		h.metrics.RecordWebhookEvent(ev.Type, "duplicate")
		c.JSON(http.StatusOK, gin.H{"status": "already_processed"})
		return
	}

	outcome, err := h.dispatcher.Dispatch(ctx, ev)
	h.metrics.RecordWebhookEvent(ev.Type, string(outcome))
	if err != nil {
		// Drop the dedup record so the provider's retry gets processed.
		if ferr := h.eventStore.Forget(ctx, ev.ID); ferr != nil {
			h.logger.Error("failed to forget webhook event", zap.Error(ferr),
				zap.String("event_id", ev.ID))
		}
		h.logger.Error("failed to process webhook event",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type),
			zap.Error(err),
		)
		response.InternalError(c, "processing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(outcome)})
}

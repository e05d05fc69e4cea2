package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/infrastructure/logger"
	"github.com/dukaandost/backend/internal/infrastructure/metrics"
	"github.com/dukaandost/backend/internal/infrastructure/telemetry"
	"github.com/dukaandost/backend/internal/infrastructure/whatsapp"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// webhookAck is the body Meta expects for every accepted delivery
const webhookAck = "ok"

// MessageRouter handles one inbound chat message
type MessageRouter interface {
	Handle(ctx context.Context, from, text string)
}

// WebhookMetrics counts inbound messages by outcome
type WebhookMetrics interface {
	WebhookMessage(ctx context.Context, result string)
}

// WebhookConfig holds the Meta webhook secrets
type WebhookConfig struct {
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 verification when set
	AppSecret string
	// DedupeTTL is how long a message id is remembered
	DedupeTTL time.Duration
}

// WebhookHandler receives WhatsApp Cloud API webhooks
type WebhookHandler struct {
	BaseHandler
	cfg     WebhookConfig
	router  MessageRouter
	store   shared.IdempotencyStore
	metrics WebhookMetrics
	logger  *zap.Logger
}

// WebhookOption configures a WebhookHandler
type WebhookOption func(*WebhookHandler)

// WithWebhookMetrics sets the counter sink
func WithWebhookMetrics(m WebhookMetrics) WebhookOption {
	return func(h *WebhookHandler) {
		h.metrics = m
	}
}

// NewWebhookHandler creates a WebhookHandler. store may be nil, in which
// case redelivered messages are routed again.
func NewWebhookHandler(cfg WebhookConfig, router MessageRouter, store shared.IdempotencyStore, log *zap.Logger, opts ...WebhookOption) *WebhookHandler {
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = shared.DefaultIdempotencyConfig().TTL
	}
	h := &WebhookHandler{
		cfg:     cfg,
		router:  router,
		store:   store,
		metrics: metrics.NewSink(),
		logger:  log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Verify answers Meta's subscription handshake by echoing hub.challenge
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	if h.cfg.VerifyToken == "" || token != h.cfg.VerifyToken || (mode != "" && mode != "subscribe") {
		h.logger.Warn("Webhook verification failed", zap.String("mode", mode))
		c.String(http.StatusForbidden, "Verification failed")
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// Receive routes every message of a delivery. Well-formed deliveries are
// always acknowledged with 200 so Meta does not redeliver them.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		h.BadRequest(c, "failed to read request body")
		return
	}

	if h.cfg.AppSecret != "" && !whatsapp.VerifySignature(h.cfg.AppSecret, body, c.GetHeader(whatsapp.SignatureHeader)) {
		h.logger.Warn("Webhook signature mismatch")
		h.Unauthorized(c, "invalid signature")
		return
	}

	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.BadRequest(c, "malformed webhook payload")
		return
	}

	// Replies keep going if Meta hangs up early
	ctx := context.WithoutCancel(c.Request.Context())
	for _, msg := range payload.Messages() {
		h.handleMessage(ctx, msg)
	}
	c.String(http.StatusOK, webhookAck)
}

func (h *WebhookHandler) handleMessage(ctx context.Context, msg whatsapp.InboundMessage) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook", "message",
		telemetry.WithAttribute(telemetry.SpanAttrCustomer, msg.From),
	)
	defer span.End()

	ctx, log := logger.WithInbound(ctx, h.logger, msg.From, msg.ID)
	if msg.From == "" {
		log.Debug("Skipping message without sender")
		h.metrics.WebhookMessage(ctx, metrics.WebhookIgnored)
		return
	}

	if msg.ID != "" && h.store != nil {
		fresh, err := h.store.MarkProcessed(ctx, msg.ID, h.cfg.DedupeTTL)
		switch {
		case err != nil:
			log.Warn("Message de-duplication unavailable", zap.Error(err))
		case !fresh:
			log.Info("Skipping redelivered message")
			h.metrics.WebhookMessage(ctx, metrics.WebhookDuplicate)
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Message handling panicked", zap.Any("panic", r), zap.Stack("stacktrace"))
			telemetry.RecordError(span, errors.New("message handling panicked"))
			h.metrics.WebhookMessage(ctx, metrics.WebhookFailed)
		}
	}()

	// Non-text messages carry no body and get the invalid-option reply
	h.router.Handle(ctx, msg.From, msg.Text.Body)
	h.metrics.WebhookMessage(ctx, metrics.WebhookHandled)
}

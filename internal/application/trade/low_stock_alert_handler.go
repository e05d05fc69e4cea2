package trade

import (
	"context"
	"fmt"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/messaging"
	"github.com/dukaandost/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AdminDirectory lists the identities currently signed in as shop owner
type AdminDirectory interface {
	Members() []string
}

// LowStockAlertHandler handles StockLowEvent by messaging every signed-in owner.
// Delivery failures are logged and never fail the order that caused the event.
type LowStockAlertHandler struct {
	admins    AdminDirectory
	messenger messaging.Messenger
	metrics   Metrics
	logger    *zap.Logger
}

// NewLowStockAlertHandler creates a new handler for low stock events
func NewLowStockAlertHandler(admins AdminDirectory, messenger messaging.Messenger, logger *zap.Logger, metrics Metrics) *LowStockAlertHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &LowStockAlertHandler{
		admins:    admins,
		messenger: messenger,
		metrics:   metrics,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{catalog.EventTypeStockLow}
}

// Handle sends the low stock alert
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	lowStock, ok := event.(*catalog.StockLowEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", catalog.EventTypeStockLow),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			catalog.EventTypeStockLow, event.EventType())
	}

	text := LowStockText(lowStock.ProductName, lowStock.Stock)
	for _, admin := range h.admins.Members() {
		if err := h.messenger.SendText(ctx, admin, text); err != nil {
			h.metrics.NotificationSent(ctx, NotificationLowStock, ResultFailed)
			h.logger.Warn("failed to send low stock alert",
				zap.String("admin", admin),
				zap.String("product", lowStock.ProductName),
				zap.Error(err),
			)
			continue
		}
		h.metrics.NotificationSent(ctx, NotificationLowStock, ResultSent)
	}

	h.logger.Info("low stock alert dispatched",
		zap.String("product", lowStock.ProductName),
		zap.Int("stock", lowStock.Stock),
	)
	return nil
}

// Ensure LowStockAlertHandler implements EventHandler
var _ shared.EventHandler = (*LowStockAlertHandler)(nil)

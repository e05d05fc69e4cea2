package trade

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dukaandost/backend/internal/domain/messaging"
	"github.com/dukaandost/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// StatusNotifier tells customers when their order status changes.
//
// It keeps the last status it saw for every order. The first sighting of an
// order only seeds that cache, so orders already in the ledger at start-up
// never trigger a message. Each later change produces exactly one message.
type StatusNotifier struct {
	ledger    trade.OrderLedger
	messenger messaging.Messenger
	metrics   Metrics
	logger    *zap.Logger

	mu        sync.Mutex
	lastKnown map[string]trade.OrderStatus
}

// NewStatusNotifier creates a notifier with an empty status cache
func NewStatusNotifier(ledger trade.OrderLedger, messenger messaging.Messenger, logger *zap.Logger, metrics Metrics) *StatusNotifier {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &StatusNotifier{
		ledger:    ledger,
		messenger: messenger,
		metrics:   metrics,
		logger:    logger,
		lastKnown: make(map[string]trade.OrderStatus),
	}
}

// DetectAndNotify compares the ledger with the cached statuses and messages
// the customer of every order that changed. It returns how many messages
// were delivered. Failed sends are logged and not retried.
func (n *StatusNotifier) DetectAndNotify(ctx context.Context) (int, error) {
	orders, err := n.ledger.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load orders: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	sent := 0
	for _, o := range orders {
		current := trade.OrderStatus(strings.TrimSpace(o.Status.String()))
		previous, seen := n.lastKnown[o.ID]
		if !seen {
			n.lastKnown[o.ID] = current
			continue
		}
		if previous == current {
			continue
		}
		n.lastKnown[o.ID] = current

		customer := strings.TrimSpace(o.Customer)
		if customer == "" {
			continue
		}
		if err := n.messenger.SendText(ctx, customer, StatusUpdateText(o)); err != nil {
			n.metrics.NotificationSent(ctx, NotificationStatusUpdate, ResultFailed)
			n.logger.Warn("failed to send order status update",
				zap.String("order_id", o.ID),
				zap.String("customer", customer),
				zap.Error(err),
			)
			continue
		}
		n.metrics.NotificationSent(ctx, NotificationStatusUpdate, ResultSent)
		sent++
	}
	return sent, nil
}

// LastKnownStatus returns the cached status of an order
func (n *StatusNotifier) LastKnownStatus(orderID string) (trade.OrderStatus, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	status, ok := n.lastKnown[orderID]
	return status, ok
}

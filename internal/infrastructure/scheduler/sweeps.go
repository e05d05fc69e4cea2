package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dukaandost/backend/internal/domain/trade"
)

// Job names
const (
	JobAdvanceOrders = "order-status-advance"
	JobNotifyOrders  = "order-status-notify"
)

// Default sweep intervals
const (
	DefaultAdvanceInterval = 5 * time.Minute
	DefaultNotifyInterval  = 30 * time.Second
)

// OrderAdvancer moves at most one order forward per call
type OrderAdvancer interface {
	AdvanceOneOrder(ctx context.Context) (*trade.StatusChange, error)
}

// StatusNotifier tells customers about status changes since the last call
type StatusNotifier interface {
	DetectAndNotify(ctx context.Context) (int, error)
}

// AdvanceOrdersJob simulates fulfillment by advancing one order per run
func AdvanceOrdersJob(advancer OrderAdvancer, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     JobAdvanceOrders,
		Interval: interval,
		Run: func(ctx context.Context) error {
			change, err := advancer.AdvanceOneOrder(ctx)
			if err != nil {
				return err
			}
			if change != nil {
				logger.Info("Order advanced",
					zap.String("order_id", change.OrderID),
					zap.String("from", change.From.String()),
					zap.String("to", change.To.String()),
				)
			}
			return nil
		},
	}
}

// NotifyOrdersJob pushes status updates to customers
func NotifyOrdersJob(notifier StatusNotifier, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     JobNotifyOrders,
		Interval: interval,
		Run: func(ctx context.Context) error {
			sent, err := notifier.DetectAndNotify(ctx)
			if err != nil {
				return err
			}
			if sent > 0 {
				logger.Info("Status notifications sent", zap.Int("count", sent))
			}
			return nil
		},
	}
}

package trade

import "context"

// Notification kinds and outcomes reported to Metrics
const (
	NotificationStatusUpdate = "status_update"
	NotificationLowStock     = "low_stock"

	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Metrics receives order lifecycle counters
type Metrics interface {
	OrderPlaced(ctx context.Context)
	OrderFailed(ctx context.Context, reason string)
	StatusTransition(ctx context.Context, status string)
	NotificationSent(ctx context.Context, kind, result string)
}

type noopMetrics struct{}

func (noopMetrics) OrderPlaced(context.Context)                      {}
func (noopMetrics) OrderFailed(context.Context, string)              {}
func (noopMetrics) StatusTransition(context.Context, string)         {}
func (noopMetrics) NotificationSent(context.Context, string, string) {}

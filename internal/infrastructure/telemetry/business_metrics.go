package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("NewBusinessMetrics: meter cannot be nil")

// BusinessMetrics records shop activity as OpenTelemetry instruments.
// It mirrors the Prometheus counters so both backends see the same events.
type BusinessMetrics struct {
	ordersPlaced      *Counter
	orderFailures     *Counter
	statusTransitions *Counter
	notifications     *Counter
	webhookMessages   *Counter
	sweepRuns         *Counter
	sweepDuration     *Histogram
}

// NewBusinessMetrics creates the instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BusinessMetrics{}
	counters := []struct {
		target      **Counter
		name, descr string
	}{
		{&bm.ordersPlaced, "dukaan.orders.placed", "Orders appended to the ledger"},
		{&bm.orderFailures, "dukaan.orders.failed", "Order attempts that were rejected or failed"},
		{&bm.statusTransitions, "dukaan.orders.transitions", "Order status transitions applied by the sweep"},
		{&bm.notifications, "dukaan.notifications", "Outbound WhatsApp notifications"},
		{&bm.webhookMessages, "dukaan.webhook.messages", "Inbound webhook messages"},
		{&bm.sweepRuns, "dukaan.sweep.runs", "Scheduled sweep executions"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.descr, "{count}")
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.sweepDuration, err = NewHistogram(meter, "dukaan.sweep.duration", "Sweep execution time", "s", SweepDurationBuckets...)
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// OrderPlaced counts a successful order
func (m *BusinessMetrics) OrderPlaced(ctx context.Context) {
	m.ordersPlaced.Inc(ctx)
}

// OrderFailed counts a failed order attempt
func (m *BusinessMetrics) OrderFailed(ctx context.Context, reason string) {
	m.orderFailures.Inc(ctx, AttrReason.String(reason))
}

// StatusTransition counts an order reaching status
func (m *BusinessMetrics) StatusTransition(ctx context.Context, status string) {
	m.statusTransitions.Inc(ctx, AttrStatus.String(status))
}

// NotificationSent counts an outbound notification
func (m *BusinessMetrics) NotificationSent(ctx context.Context, kind, result string) {
	m.notifications.Inc(ctx, AttrKind.String(kind), AttrResult.String(result))
}

// WebhookMessage counts an inbound message by outcome
func (m *BusinessMetrics) WebhookMessage(ctx context.Context, result string) {
	m.webhookMessages.Inc(ctx, AttrResult.String(result))
}

// SweepRun records one sweep execution
func (m *BusinessMetrics) SweepRun(ctx context.Context, job, result string, elapsed time.Duration) {
	m.sweepRuns.Inc(ctx, AttrJob.String(job), AttrResult.String(result))
	m.sweepDuration.RecordDuration(ctx, elapsed, AttrJob.String(job))
}

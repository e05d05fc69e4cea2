package metrics

import (
	"context"
	"time"
)

// Webhook message outcomes
const (
	WebhookHandled   = "handled"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookFailed    = "failed"
)

// Sweep run outcomes
const (
	SweepOK       = "ok"
	SweepError    = "error"
	SweepPanicked = "panic"
)

// Observer receives every shop counter. Recorder and the OpenTelemetry
// business metrics both implement it.
type Observer interface {
	OrderPlaced(ctx context.Context)
	OrderFailed(ctx context.Context, reason string)
	StatusTransition(ctx context.Context, status string)
	NotificationSent(ctx context.Context, kind, result string)
	WebhookMessage(ctx context.Context, result string)
	SweepRun(ctx context.Context, job, result string, elapsed time.Duration)
}

// Sink forwards each observation to every observer in order
type Sink []Observer

// NewSink drops nil observers
func NewSink(observers ...Observer) Sink {
	sink := make(Sink, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			sink = append(sink, o)
		}
	}
	return sink
}

func (s Sink) OrderPlaced(ctx context.Context) {
	for _, o := range s {
		o.OrderPlaced(ctx)
	}
}

func (s Sink) OrderFailed(ctx context.Context, reason string) {
	for _, o := range s {
		o.OrderFailed(ctx, reason)
	}
}

func (s Sink) StatusTransition(ctx context.Context, status string) {
	for _, o := range s {
		o.StatusTransition(ctx, status)
	}
}

func (s Sink) NotificationSent(ctx context.Context, kind, result string) {
	for _, o := range s {
		o.NotificationSent(ctx, kind, result)
	}
}

func (s Sink) WebhookMessage(ctx context.Context, result string) {
	for _, o := range s {
		o.WebhookMessage(ctx, result)
	}
}

func (s Sink) SweepRun(ctx context.Context, job, result string, elapsed time.Duration) {
	for _, o := range s {
		o.SweepRun(ctx, job, result, elapsed)
	}
}

var _ Observer = Sink(nil)

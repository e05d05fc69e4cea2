package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/infrastructure/telemetry"
)

// SyncEventBus delivers every event to its handlers on the publisher's
// goroutine before Publish returns. Handler errors and panics are logged and
// never reach the publisher, so a failed low-stock alert cannot undo an order.
type SyncEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	stopped  atomic.Bool
}

// NewSyncEventBus creates an event bus
func NewSyncEventBus(logger *zap.Logger) *SyncEventBus {
	return &SyncEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
	}
}

// Publish dispatches events in order. Events published after Stop are dropped.
func (b *SyncEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		b.logger.Warn("event bus stopped, dropping events", zap.Int("count", len(events)))
		return nil
	}
	for _, ev := range events {
		for _, handler := range b.registry.HandlersFor(ev.EventType()) {
			if err := b.dispatch(ctx, handler, ev); err != nil {
				b.logger.Error("event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.String("aggregate_id", ev.AggregateID()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for its own EventTypes when none are given
func (b *SyncEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler
func (b *SyncEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start enables delivery
func (b *SyncEventBus) Start(context.Context) error {
	b.stopped.Store(false)
	return nil
}

// Stop disables delivery. Delivery is synchronous so nothing is in flight
// once concurrent Publish calls have returned.
func (b *SyncEventBus) Stop(context.Context) error {
	b.stopped.Store(true)
	return nil
}

func (b *SyncEventBus) dispatch(ctx context.Context, handler shared.EventHandler, ev shared.DomainEvent) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "event", "dispatch."+ev.EventType())
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()
	return handler.Handle(ctx, ev)
}

var _ shared.EventBus = (*SyncEventBus)(nil)

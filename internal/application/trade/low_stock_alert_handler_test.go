package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLowStockAlertHandler_EventTypes(t *testing.T) {
	h := NewLowStockAlertHandler(staticAdmins{}, new(MockMessenger), zap.NewNop(), nil)
	assert.Equal(t, []string{catalog.EventTypeStockLow}, h.EventTypes())
}

func TestLowStockAlertHandler_AlertsEveryAdmin(t *testing.T) {
	ctx := context.Background()
	messenger := new(MockMessenger)
	messenger.On("SendText", ctx, "911", "⚠️ Rice only 7 left, reorder soon!").Return(nil).Once()
	messenger.On("SendText", ctx, "912", "⚠️ Rice only 7 left, reorder soon!").Return(nil).Once()

	h := NewLowStockAlertHandler(staticAdmins{"911", "912"}, messenger, zap.NewNop(), nil)
	err := h.Handle(ctx, catalog.NewStockLowEvent(product("rice", 55, 7), catalog.LowStockThreshold))

	require.NoError(t, err)
	messenger.AssertExpectations(t)
}

func TestLowStockAlertHandler_SendFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	messenger := new(MockMessenger)
	messenger.On("SendText", ctx, "911", "⚠️ Oil only 2 left, reorder soon!").Return(errors.New("timeout")).Once()
	messenger.On("SendText", ctx, "912", "⚠️ Oil only 2 left, reorder soon!").Return(nil).Once()
	metrics := newCountingMetrics()

	h := NewLowStockAlertHandler(staticAdmins{"911", "912"}, messenger, zap.New(core), metrics)
	err := h.Handle(ctx, catalog.NewStockLowEvent(product("oil", 120, 2), catalog.LowStockThreshold))

	require.NoError(t, err)
	messenger.AssertExpectations(t)
	assert.Equal(t, 1, logs.FilterMessage("failed to send low stock alert").Len())
	assert.Equal(t, 1, metrics.notifications["low_stock/failed"])
	assert.Equal(t, 1, metrics.notifications["low_stock/sent"])
}

type otherEvent struct {
	shared.BaseDomainEvent
}

func TestLowStockAlertHandler_RejectsOtherEvents(t *testing.T) {
	h := NewLowStockAlertHandler(staticAdmins{"911"}, new(MockMessenger), zap.NewNop(), nil)
	evt := &otherEvent{BaseDomainEvent: shared.NewBaseDomainEvent("Other", "Thing", "x")}

	err := h.Handle(context.Background(), evt)
	assert.Error(t, err)
}

package trade

import (
	"context"
	"testing"
	"time"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC)

func newTestOrderService(products *memProductRepository, ledger *memOrderLedger, opts ...OrderServiceOption) *OrderService {
	opts = append([]OrderServiceOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewOrderService(products, ledger, zap.NewNop(), opts...)
}

func TestOrderService_PlaceOrder_FreshStore(t *testing.T) {
	products := newMemProducts(catalog.DefaultProducts()...)
	ledger := &memOrderLedger{}
	svc := newTestOrderService(products, ledger)

	order, err := svc.PlaceOrder(context.Background(), "rice", 3, "919900000001")
	require.NoError(t, err)

	assert.Equal(t, "10001", order.ID)
	assert.Equal(t, trade.OrderStatusProcessing, order.Status)
	assert.Equal(t, "2 days", order.ETA)
	assert.Equal(t, "Cash/UPI on Delivery", order.Payment)
	assert.Equal(t, "919900000001", order.Customer)
	assert.Equal(t, "2026-10-15", order.Date)
	assert.Equal(t, 7, products.stock("rice"))

	orders, err := ledger.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "rice", orders[0].Product)
	assert.Equal(t, 3, orders[0].Quantity)
}

func TestOrderService_PlaceOrder_StockArithmetic(t *testing.T) {
	for _, qty := range []int{1, 4, 10} {
		products := newMemProducts(product("oil", 120, 10))
		svc := newTestOrderService(products, &memOrderLedger{})

		_, err := svc.PlaceOrder(context.Background(), "oil", qty, "91")
		require.NoError(t, err)
		assert.Equal(t, 10-qty, products.stock("oil"))
	}
}

func TestOrderService_PlaceOrder_Failures(t *testing.T) {
	tests := []struct {
		name     string
		product  string
		quantity int
		wantErr  error
		reason   string
	}{
		{"unknown product", "salt", 1, catalog.ErrProductNotFound, "PRODUCT_NOT_FOUND"},
		{"zero quantity", "rice", 0, catalog.ErrInvalidQuantity, "INVALID_QUANTITY"},
		{"negative quantity", "rice", -3, catalog.ErrInvalidQuantity, "INVALID_QUANTITY"},
		{"insufficient stock", "rice", 11, shared.ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := newMemProducts(catalog.DefaultProducts()...)
			ledger := &memOrderLedger{}
			metrics := newCountingMetrics()
			svc := newTestOrderService(products, ledger, WithMetrics(metrics))

			order, err := svc.PlaceOrder(context.Background(), tt.product, tt.quantity, "919900000002")
			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 10, products.stock("rice"))
			assert.Zero(t, products.saves)
			assert.Zero(t, ledger.saves)
			assert.Empty(t, ledger.orders)
			assert.Equal(t, 1, metrics.failures[tt.reason])
		})
	}
}

func TestOrderService_PlaceOrder_UnknownProductFirst(t *testing.T) {
	svc := newTestOrderService(newMemProducts(catalog.DefaultProducts()...), &memOrderLedger{})

	_, err := svc.PlaceOrder(context.Background(), "salt", 0, "91")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestOrderService_PlaceOrder_IDsIncrease(t *testing.T) {
	products := newMemProducts(product("rice", 55, 100))
	ledger := &memOrderLedger{}
	svc := newTestOrderService(products, ledger)

	var ids []string
	for i := 0; i < 3; i++ {
		order, err := svc.PlaceOrder(context.Background(), "rice", 1, "91")
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}
	assert.Equal(t, []string{"10001", "10002", "10003"}, ids)
}

func TestOrderService_PlaceOrder_PublishesLowStock(t *testing.T) {
	t.Run("below threshold", func(t *testing.T) {
		publisher := &recordingPublisher{}
		svc := newTestOrderService(newMemProducts(product("rice", 55, 10)), &memOrderLedger{}, WithEventPublisher(publisher))

		_, err := svc.PlaceOrder(context.Background(), "rice", 3, "91")
		require.NoError(t, err)

		require.Len(t, publisher.events, 1)
		evt, ok := publisher.events[0].(*catalog.StockLowEvent)
		require.True(t, ok)
		assert.Equal(t, "rice", evt.ProductName)
		assert.Equal(t, 7, evt.Stock)
	})

	t.Run("at threshold", func(t *testing.T) {
		publisher := &recordingPublisher{}
		svc := newTestOrderService(newMemProducts(product("rice", 55, 15)), &memOrderLedger{}, WithEventPublisher(publisher))

		_, err := svc.PlaceOrder(context.Background(), "rice", 5, "91")
		require.NoError(t, err)
		assert.Empty(t, publisher.events)
	})
}

func TestOrderService_PlaceOrder_LedgerFailureRestoresStock(t *testing.T) {
	products := newMemProducts(product("rice", 55, 10))
	ledger := &memOrderLedger{failWrite: errDiskFull}
	metrics := newCountingMetrics()
	svc := newTestOrderService(products, ledger, WithMetrics(metrics))

	order, err := svc.PlaceOrder(context.Background(), "rice", 3, "91")
	assert.Nil(t, order)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 10, products.stock("rice"))
	assert.Equal(t, 1, metrics.failures["ledger"])
	assert.Zero(t, metrics.placed)
}

func TestOrderService_AdvanceOneOrder(t *testing.T) {
	ledger := &memOrderLedger{orders: []*trade.Order{
		{ID: "10001", Product: "rice", Quantity: 1, Status: trade.OrderStatusShipped, ETA: "Tomorrow"},
		{ID: "10002", Product: "oil", Quantity: 2, Status: trade.OrderStatusProcessing, ETA: "2 days"},
	}}
	metrics := newCountingMetrics()
	svc := newTestOrderService(newMemProducts(), ledger, WithMetrics(metrics))
	ctx := context.Background()

	change, err := svc.AdvanceOneOrder(ctx)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, "10002", change.OrderID)
	assert.Equal(t, trade.OrderStatusShipped, change.To)

	change, err = svc.AdvanceOneOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10001", change.OrderID)
	assert.Equal(t, trade.OrderStatusDelivered, change.To)

	change, err = svc.AdvanceOneOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10002", change.OrderID)

	savesAtFixedPoint := ledger.saves
	change, err = svc.AdvanceOneOrder(ctx)
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.Equal(t, savesAtFixedPoint, ledger.saves)

	orders, _ := ledger.Load(ctx)
	assert.Equal(t, "10001", orders[0].ID)
	for _, o := range orders {
		assert.Equal(t, trade.OrderStatusDelivered, o.Status)
		assert.Equal(t, "Delivered Today", o.ETA)
	}
	assert.Equal(t, 1, metrics.transitions["Shipped"])
	assert.Equal(t, 2, metrics.transitions["Delivered"])
}

func TestOrderService_AdvanceOneOrder_WriteFailure(t *testing.T) {
	ledger := &memOrderLedger{
		orders:    []*trade.Order{{ID: "10001", Status: trade.OrderStatusProcessing}},
		failWrite: errDiskFull,
	}
	svc := newTestOrderService(newMemProducts(), ledger)

	change, err := svc.AdvanceOneOrder(context.Background())
	assert.Nil(t, change)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestOrderService_FindOrder(t *testing.T) {
	ledger := &memOrderLedger{orders: []*trade.Order{{ID: "10001", Product: "rice"}}}
	svc := newTestOrderService(newMemProducts(), ledger)
	ctx := context.Background()

	order, err := svc.FindOrder(ctx, "10001")
	require.NoError(t, err)
	assert.Equal(t, "rice", order.Product)

	_, err = svc.FindOrder(ctx, "10002")
	assert.ErrorIs(t, err, trade.ErrOrderNotFound)

	_, err = svc.FindOrder(ctx, "abc")
	assert.ErrorIs(t, err, trade.ErrInvalidOrderID)
}

package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	catalogapp "github.com/dukaandost/backend/internal/application/catalog"
	promotionapp "github.com/dukaandost/backend/internal/application/promotion"
	reportapp "github.com/dukaandost/backend/internal/application/report"
	tradeapp "github.com/dukaandost/backend/internal/application/trade"
	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/promotion"
	"github.com/dukaandost/backend/internal/domain/report"
	"github.com/dukaandost/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	customer = "919900000001"
	owner    = "919812345678"
)

type sentMessage struct {
	To      string
	Body    string
	Image   string
	Caption string
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *recordingMessenger) SendText(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{To: to, Body: body})
	return nil
}

func (m *recordingMessenger) SendImage(_ context.Context, to, filePath, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{To: to, Image: filePath, Caption: caption})
	return nil
}

func (m *recordingMessenger) drain() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sent
	m.sent = nil
	return out
}

func (m *recordingMessenger) last() string {
	msgs := m.drain()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Body
}

type memProducts struct {
	mu       sync.Mutex
	products []*catalog.Product
}

func (r *memProducts) Load(context.Context) ([]*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(), nil
}

func (r *memProducts) Save(_ context.Context, products []*catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = products
	return nil
}

func (r *memProducts) Update(_ context.Context, fn func([]*catalog.Product) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := r.snapshot()
	if err := fn(products); err != nil {
		return err
	}
	r.products = products
	return nil
}

func (r *memProducts) snapshot() []*catalog.Product {
	out := make([]*catalog.Product, len(r.products))
	for i, p := range r.products {
		cp := *p
		out[i] = &cp
	}
	return out
}

func (r *memProducts) stock(name string) int {
	products, _ := r.Load(context.Background())
	return catalog.FindProduct(products, name).Stock
}

type memLedger struct {
	mu     sync.Mutex
	orders []*trade.Order
	writes int
}

func (l *memLedger) Load(context.Context) ([]*trade.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*trade.Order(nil), l.orders...), nil
}

func (l *memLedger) Save(_ context.Context, orders []*trade.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = orders
	l.writes++
	return nil
}

func (l *memLedger) Update(_ context.Context, fn func([]*trade.Order) ([]*trade.Order, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	orders, err := fn(append([]*trade.Order(nil), l.orders...))
	if err != nil {
		return err
	}
	l.orders = orders
	l.writes++
	return nil
}

type memOffers struct {
	board *promotion.Board
}

func (o *memOffers) Load(context.Context) (*promotion.Board, error) {
	if o.board == nil {
		return nil, promotion.ErrOffersUnavailable
	}
	return promotion.NewBoard(o.board.Lines()), nil
}

func (o *memOffers) Append(_ context.Context, text string) error {
	if o.board == nil {
		o.board = promotion.NewBoard(nil)
	}
	return o.board.Add(text)
}

func (o *memOffers) Save(_ context.Context, board *promotion.Board) error {
	o.board = board
	return nil
}

type MockReports struct {
	mock.Mock
}

func (m *MockReports) ProfitAndLossToday(ctx context.Context) (*reportapp.DailySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.DailySummary), args.Error(1)
}

func (m *MockReports) DemandInsights(ctx context.Context) (*report.DemandInsight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DemandInsight), args.Error(1)
}

func (m *MockReports) SalesChart(ctx context.Context, title string) (string, error) {
	args := m.Called(ctx, title)
	return args.String(0), args.Error(1)
}

type harness struct {
	router    *Router
	messenger *recordingMessenger
	products  *memProducts
	ledger    *memLedger
	offers    *memOffers
	reports   *MockReports
	sessions  *SessionStore
	admins    *AdminRegistry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	h := &harness{
		messenger: &recordingMessenger{},
		products:  &memProducts{products: catalog.DefaultProducts()},
		ledger:    &memLedger{},
		offers:    &memOffers{},
		reports:   new(MockReports),
		sessions:  NewSessionStore(),
		admins:    NewAdminRegistry(),
	}
	orders := tradeapp.NewOrderService(h.products, h.ledger, logger,
		tradeapp.WithClock(func() time.Time { return time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC) }))
	h.router = NewRouter(
		RouterConfig{AdminPIN: "1234", SupportContact: "+91-9996033812"},
		h.messenger,
		catalogapp.NewProductService(h.products, logger),
		orders,
		promotionapp.NewOfferService(h.offers, logger),
		h.reports,
		h.sessions,
		h.admins,
		logger,
	)
	return h
}

func (h *harness) send(from, text string) string {
	h.router.Handle(context.Background(), from, text)
	return h.messenger.last()
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "restock rice,50", Normalize("  Restock RICE,50 \n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestRouter_Greeting(t *testing.T) {
	h := newHarness(t)
	for _, greeting := range []string{"hi", "Hello", " HEY "} {
		assert.Equal(t, customerMenuText, h.send(customer, greeting))
	}
}

func TestRouter_CustomerMenu(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "🛒 Products:\n- Sugar ₹40\n- Rice ₹55\n- Oil ₹120", h.send(customer, "1"))
	assert.Equal(t, "🎉 Today's Offers:\n- 10% off on Rice\n- Buy 1 Get 1 Free on Sugar\n- Flat ₹20 off on Oil", h.send(customer, "4"))
	assert.Equal(t, "📞 Talk to Support: +91-9996033812", h.send(customer, "5"))
	assert.Equal(t, invalidOptionText, h.send(customer, "9"))
	assert.Equal(t, invalidChoiceText, h.send(customer, "what"))
}

func TestRouter_PlaceOrderScenario(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, newOrderPromptText, h.send(customer, "3"))
	assert.Equal(t, SessionAwaitingNewOrder, h.sessions.Peek(customer))

	h.router.Handle(context.Background(), customer, "rice,3")
	msgs := h.messenger.drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, "📝 Order placed: 3 rice\nYour Order ID: 10001\n📅 Estimated Delivery Time: 2 days\n💰 Payment Mode: Cash/UPI on Delivery", msgs[0].Body)
	assert.Equal(t, thankYouText, msgs[1].Body)

	assert.Equal(t, 7, h.products.stock("rice"))
	require.Len(t, h.ledger.orders, 1)
	assert.Equal(t, "10001", h.ledger.orders[0].ID)
	assert.Equal(t, trade.OrderStatusProcessing, h.ledger.orders[0].Status)
	assert.Equal(t, customer, h.ledger.orders[0].Customer)
	assert.Equal(t, SessionIdle, h.sessions.Peek(customer))
}

func TestRouter_UnknownProductLeavesLedgerUntouched(t *testing.T) {
	h := newHarness(t)
	h.send("919900000002", "3")

	assert.Equal(t, "⚠️ Product 'salt' not found.", h.send("919900000002", "salt,1"))
	assert.Empty(t, h.ledger.orders)
	assert.Zero(t, h.ledger.writes)
}

func TestRouter_OrderFailuresAreDistinct(t *testing.T) {
	tests := []struct {
		input string
		reply string
	}{
		{"rice,abc", orderQuantityText},
		{"rice,0", orderQuantityText},
		{"rice,11", "⚠️ Only 10 rice left in stock."},
		{"rice 2", orderFormatText},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h := newHarness(t)
			h.send(customer, "3")
			assert.Equal(t, tt.reply, h.send(customer, tt.input))
			assert.Equal(t, 10, h.products.stock("rice"))
			assert.Equal(t, SessionIdle, h.sessions.Peek(customer))
		})
	}
}

func TestRouter_SessionIsSingleUse(t *testing.T) {
	h := newHarness(t)
	h.send(customer, "3")
	h.send(customer, "rice,1")

	assert.Equal(t, orderIDPromptText, h.send(customer, "2"))
	assert.Equal(t, orderIDDigitsText, h.send(customer, "abc"))

	// The abandoned prompt is not retried: the id is read as a menu command.
	assert.Equal(t, invalidOptionText, h.send(customer, "10001"))
}

func TestRouter_OrderStatusLookup(t *testing.T) {
	h := newHarness(t)
	h.send(customer, "3")
	h.send(customer, "oil,2")

	h.send(customer, "2")
	assert.Equal(t, "✅ Order #10001 (oil x2) is Processing 🚚\n📅 Estimated Delivery Time: 2 days\n💰 Payment Mode: Cash/UPI on Delivery",
		h.send(customer, "10001"))

	h.send(customer, "2")
	assert.Equal(t, orderNotFoundText, h.send(customer, "99999"))
}

func TestRouter_AdminLogin(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, wrongPINText, h.send(owner, "admin 0000"))
	assert.Equal(t, wrongPINText, h.send(owner, "admin"))
	assert.False(t, h.admins.IsAdmin(owner))

	assert.Equal(t, adminActivatedText, h.send(owner, "Admin 1234"))
	assert.True(t, h.admins.IsAdmin(owner))

	assert.Equal(t, adminExitText, h.send(owner, "exit"))
	assert.False(t, h.admins.IsAdmin(owner))

	assert.Equal(t, invalidChoiceText, h.send(owner, "exit"))
}

func TestRouter_AdminRestockScenario(t *testing.T) {
	h := newHarness(t)
	h.send(customer, "3")
	h.send(customer, "rice,3")
	require.Equal(t, 7, h.products.stock("rice"))

	h.send(owner, "admin 1234")
	assert.Equal(t, "✅ Restocked rice by 50. New stock: 57", h.send(owner, "restock rice,50"))
	assert.Equal(t, 57, h.products.stock("rice"))

	assert.Equal(t, restockFormatText, h.send(owner, "restock rice 50"))
	assert.Equal(t, restockQuantityText, h.send(owner, "restock rice,lots"))
	assert.Equal(t, restockPositiveText, h.send(owner, "restock rice,-5"))
	assert.Equal(t, "⚠️ Product 'salt' not found.", h.send(owner, "restock salt,5"))
	assert.Equal(t, 57, h.products.stock("rice"))
}

func TestRouter_AdminOffers(t *testing.T) {
	h := newHarness(t)
	h.send(owner, "admin 1234")

	assert.Equal(t, noOffersFileText, h.send(owner, "remove offer 5% off on oil"))
	assert.Equal(t, "✅ Offer '5% off on oil' added.", h.send(owner, "add offer 5% off on Oil"))
	assert.Equal(t, "🎉 Today's Offers:\n- 5% off on oil", h.send(owner, "offers"))
	assert.Equal(t, "⚠️ Offer 'free delivery' not found.", h.send(owner, "remove offer free delivery"))
	assert.Equal(t, "✅ Offer '5% off on oil' removed.", h.send(owner, "remove offer 5% off on oil"))
	assert.Equal(t, addOfferUsageText, h.send(owner, "add offer"))
	assert.Equal(t, removeOfferUsage, h.send(owner, "remove offer   "))
}

func TestRouter_AdminListings(t *testing.T) {
	h := newHarness(t)
	h.send(owner, "admin 1234")

	assert.Equal(t, "📦 Products:\n- Sugar ₹40 (stock: 10)\n- Rice ₹55 (stock: 10)\n- Oil ₹120 (stock: 10)", h.send(owner, "1"))
	assert.Equal(t, noOrdersText, h.send(owner, "2"))
	assert.Equal(t, "📦 Stock Levels:\n- Sugar: 10 left\n- Rice: 10 left\n- Oil: 10 left", h.send(owner, "5"))
	assert.Equal(t, invalidAdminText, h.send(owner, "7"))
	assert.Equal(t, invalidAdminText, h.send(owner, "hi"))

	h.send(customer, "3")
	h.send(customer, "sugar,2")
	assert.Equal(t, "📝 Orders:\n#10001: sugar x2 - Processing", h.send(owner, "2"))
}

func TestRouter_LowStockReachesAdminsThroughHandler(t *testing.T) {
	h := newHarness(t)
	h.send(owner, "admin 1234")

	handler := tradeapp.NewLowStockAlertHandler(h.admins, h.messenger, zap.NewNop(), nil)
	err := handler.Handle(context.Background(), catalog.NewStockLowEvent(&catalog.Product{Name: "rice", Stock: 7}, 10))
	require.NoError(t, err)

	msgs := h.messenger.drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, owner, msgs[0].To)
	assert.Equal(t, "⚠️ Rice only 7 left, reorder soon!", msgs[0].Body)
}

func TestRouter_AdminReports(t *testing.T) {
	ctx := context.Background()

	t.Run("sales chart", func(t *testing.T) {
		h := newHarness(t)
		h.send(owner, "admin 1234")
		h.reports.On("SalesChart", ctx, salesChartTitle).Return("/tmp/sales.png", nil).Once()

		h.router.Handle(ctx, owner, "3")
		msgs := h.messenger.drain()
		require.Len(t, msgs, 1)
		assert.Equal(t, "/tmp/sales.png", msgs[0].Image)
		assert.Equal(t, salesChartCaption, msgs[0].Caption)
	})

	t.Run("no sales data", func(t *testing.T) {
		h := newHarness(t)
		h.send(owner, "admin 1234")
		h.reports.On("SalesChart", ctx, salesChartTitle).Return("", report.ErrNoSalesData).Once()

		assert.Equal(t, noSalesDataText, h.send(owner, "3"))
	})

	t.Run("profit and loss", func(t *testing.T) {
		h := newHarness(t)
		h.send(owner, "admin 1234")
		h.reports.On("ProfitAndLossToday", ctx).Return(&reportapp.DailySummary{LedgerEmpty: true}, nil).Once()
		assert.Equal(t, "📊 No sales yet.", h.send(owner, "4"))

		h.reports.On("ProfitAndLossToday", ctx).Return(nil, errors.New("boom")).Once()
		assert.Equal(t, pnlErrorText, h.send(owner, "4"))
	})

	t.Run("demand insights with chart", func(t *testing.T) {
		h := newHarness(t)
		h.send(owner, "admin 1234")
		h.reports.On("DemandInsights", ctx).Return(&report.DemandInsight{
			Top:    report.ProductSales{ProductName: "rice"},
			Bottom: report.ProductSales{ProductName: "oil"},
		}, nil).Once()
		h.reports.On("SalesChart", ctx, salesChartTitle).Return("/tmp/sales.png", nil).Once()

		h.router.Handle(ctx, owner, "6")
		msgs := h.messenger.drain()
		require.Len(t, msgs, 2)
		assert.Equal(t, "🔥 In-demand: rice\n❄️ Not in demand: oil", msgs[0].Body)
		assert.Equal(t, demandChartCaption, msgs[1].Caption)
	})

	t.Run("no demand data", func(t *testing.T) {
		h := newHarness(t)
		h.send(owner, "admin 1234")
		h.reports.On("DemandInsights", ctx).Return(nil, report.ErrNoSalesData).Once()
		h.reports.On("SalesChart", ctx, salesChartTitle).Return("", report.ErrNoSalesData).Once()

		h.router.Handle(ctx, owner, "6")
		msgs := h.messenger.drain()
		require.Len(t, msgs, 1)
		assert.Equal(t, noDemandDataText, msgs[0].Body)
	})
}

func TestSessionStore(t *testing.T) {
	s := NewSessionStore()
	assert.Equal(t, SessionIdle, s.Take("a"))

	s.Set("a", SessionAwaitingOrderID)
	assert.Equal(t, SessionAwaitingOrderID, s.Peek("a"))
	assert.Equal(t, SessionAwaitingOrderID, s.Take("a"))
	assert.Equal(t, SessionIdle, s.Take("a"))

	s.Set("b", SessionAwaitingNewOrder)
	s.Set("b", SessionIdle)
	assert.Equal(t, SessionIdle, s.Peek("b"))
	assert.Equal(t, "awaiting_new_order", SessionAwaitingNewOrder.String())
}

func TestAdminRegistry(t *testing.T) {
	r := NewAdminRegistry()
	r.Add("912")
	r.Add("911")
	r.Add("912")
	assert.Equal(t, []string{"911", "912"}, r.Members())

	r.Remove("911")
	assert.False(t, r.IsAdmin("911"))
	assert.True(t, r.IsAdmin("912"))
}

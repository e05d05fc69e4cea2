package trade

import (
	"context"
	"errors"
	"sync"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memProductRepository is an in-memory catalog
type memProductRepository struct {
	mu       sync.Mutex
	products []*catalog.Product
	saves    int
}

func newMemProducts(products ...*catalog.Product) *memProductRepository {
	return &memProductRepository{products: products}
}

func (r *memProductRepository) Load(ctx context.Context) ([]*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyProducts(), nil
}

func (r *memProductRepository) Save(ctx context.Context, products []*catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = products
	r.saves++
	return nil
}

func (r *memProductRepository) Update(ctx context.Context, fn func([]*catalog.Product) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := r.copyProducts()
	if err := fn(products); err != nil {
		return err
	}
	r.products = products
	r.saves++
	return nil
}

func (r *memProductRepository) stock(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return catalog.FindProduct(r.products, name).Stock
}

func (r *memProductRepository) copyProducts() []*catalog.Product {
	out := make([]*catalog.Product, len(r.products))
	for i, p := range r.products {
		cp := *p
		out[i] = &cp
	}
	return out
}

// memOrderLedger is an in-memory ledger that can be told to fail writes
type memOrderLedger struct {
	mu        sync.Mutex
	orders    []*trade.Order
	saves     int
	failWrite error
}

func (l *memOrderLedger) Load(ctx context.Context) ([]*trade.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyOrders(), nil
}

func (l *memOrderLedger) Save(ctx context.Context, orders []*trade.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWrite != nil {
		return l.failWrite
	}
	l.orders = orders
	l.saves++
	return nil
}

func (l *memOrderLedger) Update(ctx context.Context, fn func([]*trade.Order) ([]*trade.Order, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	updated, err := fn(l.copyOrders())
	if err != nil {
		return err
	}
	if l.failWrite != nil {
		return l.failWrite
	}
	l.orders = updated
	l.saves++
	return nil
}

func (l *memOrderLedger) setStatus(id string, status trade.OrderStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	trade.FindOrder(l.orders, id).Status = status
}

func (l *memOrderLedger) copyOrders() []*trade.Order {
	out := make([]*trade.Order, len(l.orders))
	for i, o := range l.orders {
		cp := *o
		out[i] = &cp
	}
	return out
}

// MockMessenger is a mock implementation of messaging.Messenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendText(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

func (m *MockMessenger) SendImage(ctx context.Context, to, filePath, caption string) error {
	args := m.Called(ctx, to, filePath, caption)
	return args.Error(0)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

// countingMetrics records lifecycle counters
type countingMetrics struct {
	mu            sync.Mutex
	placed        int
	failures      map[string]int
	transitions   map[string]int
	notifications map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		failures:      map[string]int{},
		transitions:   map[string]int{},
		notifications: map[string]int{},
	}
}

func (m *countingMetrics) OrderPlaced(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed++
}

func (m *countingMetrics) OrderFailed(_ context.Context, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[reason]++
}

func (m *countingMetrics) StatusTransition(_ context.Context, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[status]++
}

func (m *countingMetrics) NotificationSent(_ context.Context, kind, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[kind+"/"+result]++
}

var errDiskFull = errors.New("disk full")

func product(name string, price int64, stock int) *catalog.Product {
	return &catalog.Product{Name: name, Price: decimal.NewFromInt(price), Stock: stock}
}

type staticAdmins []string

func (a staticAdmins) Members() []string { return a }

package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/domain/trade"
	"github.com/dukaandost/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrderService places orders and drives their fulfilment status
type OrderService struct {
	products          catalog.ProductRepository
	ledger            trade.OrderLedger
	eventPublisher    shared.EventPublisher
	metrics           Metrics
	logger            *zap.Logger
	now               func() time.Time
	lowStockThreshold int
}

// OrderServiceOption is a functional option for configuring the service
type OrderServiceOption func(*OrderService)

// WithEventPublisher sets the publisher used for low-stock events
func WithEventPublisher(publisher shared.EventPublisher) OrderServiceOption {
	return func(s *OrderService) {
		s.eventPublisher = publisher
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) OrderServiceOption {
	return func(s *OrderService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the clock used to date new orders
func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) {
		s.now = now
	}
}

// WithLowStockThreshold overrides catalog.LowStockThreshold
func WithLowStockThreshold(threshold int) OrderServiceOption {
	return func(s *OrderService) {
		s.lowStockThreshold = threshold
	}
}

// NewOrderService creates a new OrderService
func NewOrderService(
	products catalog.ProductRepository,
	ledger trade.OrderLedger,
	logger *zap.Logger,
	opts ...OrderServiceOption,
) *OrderService {
	s := &OrderService{
		products:          products,
		ledger:            ledger,
		metrics:           noopMetrics{},
		logger:            logger,
		now:               time.Now,
		lowStockThreshold: catalog.LowStockThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder reserves stock for quantity units of productName and appends a
// Processing order for customer to the ledger.
//
// The stock check and decrement happen inside one catalog update, so a failed
// validation never touches either store. If the ledger cannot be written the
// decrement is restored before the error is returned.
func (s *OrderService) PlaceOrder(ctx context.Context, productName string, quantity int, customer string) (*trade.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "place",
		telemetry.WithAttribute(telemetry.SpanAttrProduct, productName),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, quantity),
	)
	defer span.End()

	var remaining *catalog.Product
	err := s.products.Update(ctx, func(products []*catalog.Product) error {
		product := catalog.FindProduct(products, productName)
		if product == nil {
			return catalog.ErrProductNotFound
		}
		if err := product.Deduct(quantity); err != nil {
			return err
		}
		remaining = &catalog.Product{Name: product.Name, Price: product.Price, Stock: product.Stock}
		return nil
	})
	if err != nil {
		s.metrics.OrderFailed(ctx, failureReason(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	if remaining.IsLowStock(s.lowStockThreshold) {
		s.publishLowStock(ctx, remaining)
	}

	var order *trade.Order
	err = s.ledger.Update(ctx, func(orders []*trade.Order) ([]*trade.Order, error) {
		o, err := trade.NewOrder(trade.NextOrderID(orders), remaining.Name, quantity, customer, s.now())
		if err != nil {
			return nil, err
		}
		order = o
		return append(orders, o), nil
	})
	if err != nil {
		s.restoreStock(ctx, productName, quantity)
		s.metrics.OrderFailed(ctx, "ledger")
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	s.metrics.OrderPlaced(ctx)
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, order.ID)
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("product", order.Product),
		zap.Int("quantity", order.Quantity),
		zap.String("customer", order.Customer),
		zap.Int("stock_left", remaining.Stock),
	)
	return order, nil
}

// AdvanceOneOrder moves at most one order one step along the lifecycle.
// It returns nil when no order is eligible.
func (s *OrderService) AdvanceOneOrder(ctx context.Context) (*trade.StatusChange, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "advance")
	defer span.End()

	var change *trade.StatusChange
	err := s.ledger.Update(ctx, func(orders []*trade.Order) ([]*trade.Order, error) {
		change = trade.AdvanceFirst(orders)
		if change == nil {
			return nil, errNothingToAdvance
		}
		return orders, nil
	})
	if errors.Is(err, errNothingToAdvance) {
		return nil, nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to advance order status: %w", err)
	}

	s.metrics.StatusTransition(ctx, change.To.String())
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, change.OrderID,
		telemetry.SpanAttrOrderStatus, change.To.String(),
	)
	s.logger.Info("order status advanced",
		zap.String("order_id", change.OrderID),
		zap.String("from", change.From.String()),
		zap.String("to", change.To.String()),
	)
	return change, nil
}

// FindOrder looks an order up by its id
func (s *OrderService) FindOrder(ctx context.Context, id string) (*trade.Order, error) {
	if !trade.IsOrderID(id) {
		return nil, trade.ErrInvalidOrderID
	}
	orders, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	order := trade.FindOrder(orders, id)
	if order == nil {
		return nil, trade.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns every order in ledger order
func (s *OrderService) ListOrders(ctx context.Context) ([]*trade.Order, error) {
	orders, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// errNothingToAdvance aborts the ledger update so an idle sweep does not rewrite the file
var errNothingToAdvance = errors.New("no order to advance")

func (s *OrderService) publishLowStock(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher == nil {
		return
	}
	event := catalog.NewStockLowEvent(product, s.lowStockThreshold)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish low stock event",
			zap.String("product", product.Name),
			zap.Error(err),
		)
	}
}

func (s *OrderService) restoreStock(ctx context.Context, productName string, quantity int) {
	err := s.products.Update(ctx, func(products []*catalog.Product) error {
		product := catalog.FindProduct(products, productName)
		if product == nil {
			return catalog.ErrProductNotFound
		}
		return product.Restock(quantity)
	})
	if err != nil {
		s.logger.Error("failed to restore stock after ledger failure",
			zap.String("product", productName),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
	}
}

func failureReason(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "storage"
}

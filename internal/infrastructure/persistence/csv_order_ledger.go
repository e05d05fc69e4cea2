package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dukaandost/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// Ledger file columns
const (
	colOrderID       = "order_id"
	colOrderProduct  = "product"
	colOrderQuantity = "quantity"
	colOrderStatus   = "status"
	colOrderETA      = "eta"
	colOrderPayment  = "payment"
	colOrderCustomer = "customer"
	colOrderDate     = "date"
)

var orderHeaders = []string{
	colOrderID, colOrderProduct, colOrderQuantity, colOrderStatus,
	colOrderETA, colOrderPayment, colOrderCustomer, colOrderDate,
}

// CSVOrderLedger implements trade.OrderLedger over orders.csv.
//
// Every cell is read and written as text so ids never pick up numeric
// formatting. Legacy rows missing payment, customer, eta or date get the
// ledger defaults and the file is rewritten. All calls hold an exclusive lock
// on orders.csv.lock.
type CSVOrderLedger struct {
	path   string
	locker fileLocker
	now    func() time.Time
	logger *zap.Logger
}

// NewCSVOrderLedger creates a ledger for the file at path
func NewCSVOrderLedger(path string, logger *zap.Logger, opts ...FileStoreOption) *CSVOrderLedger {
	o := defaultFileStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &CSVOrderLedger{
		path:   path,
		locker: newFileLocker(path+".lock", o.lockRetryDelay),
		now:    o.now,
		logger: logger,
	}
}

// Load returns all orders in file order
func (l *CSVOrderLedger) Load(ctx context.Context) ([]*trade.Order, error) {
	unlock, err := l.locker.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return l.load()
}

// Save overwrites the ledger
func (l *CSVOrderLedger) Save(ctx context.Context, orders []*trade.Order) error {
	unlock, err := l.locker.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return l.write(orders)
}

// Update loads the ledger, applies fn and writes its result under one lock
func (l *CSVOrderLedger) Update(ctx context.Context, fn func(orders []*trade.Order) ([]*trade.Order, error)) error {
	unlock, err := l.locker.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	orders, err := l.load()
	if err != nil {
		return err
	}
	updated, err := fn(orders)
	if err != nil {
		return err
	}
	return l.write(updated)
}

func (l *CSVOrderLedger) load() ([]*trade.Order, error) {
	table, err := readCSVTable(l.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := l.write(nil); err != nil {
			return nil, err
		}
		return []*trade.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	if len(table.headers) == 0 {
		return []*trade.Order{}, nil
	}
	if !table.HasHeader(colOrderID) {
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, colOrderID, l.path)
	}

	today := l.now().Format(trade.DateLayout)
	backfilled := len(table.MissingHeaders(orderHeaders)) > 0

	fill := func(row *csvRow, col, def string) string {
		if row.Get(col) == "" && def != "" {
			backfilled = true
		}
		return row.GetOrDefault(col, def)
	}

	orders := make([]*trade.Order, 0, len(table.rows))
	for _, row := range table.rows {
		quantity, err := strconv.Atoi(fill(row, colOrderQuantity, "0"))
		if err != nil {
			l.logger.Warn("non-numeric order quantity read as 0",
				zap.Int("line", row.lineNumber),
				zap.String("quantity", row.Get(colOrderQuantity)),
			)
			quantity = 0
		}
		orders = append(orders, &trade.Order{
			ID:       row.Get(colOrderID),
			Product:  row.Get(colOrderProduct),
			Quantity: quantity,
			Status:   trade.OrderStatus(row.Get(colOrderStatus)),
			ETA:      fill(row, colOrderETA, trade.DefaultETA),
			Payment:  fill(row, colOrderPayment, trade.DefaultPayment),
			Customer: row.Get(colOrderCustomer),
			Date:     fill(row, colOrderDate, today),
		})
	}

	if backfilled {
		if err := l.write(orders); err != nil {
			return nil, err
		}
		l.logger.Info("back-filled order ledger defaults", zap.String("path", l.path))
	}
	return orders, nil
}

func (l *CSVOrderLedger) write(orders []*trade.Order) error {
	records := make([][]string, 0, len(orders))
	for _, o := range orders {
		records = append(records, []string{
			o.ID,
			o.Product,
			strconv.Itoa(o.Quantity),
			o.Status.String(),
			o.ETA,
			o.Payment,
			o.Customer,
			o.Date,
		})
	}
	if err := writeCSVTable(l.path, orderHeaders, records); err != nil {
		return fmt.Errorf("failed to save orders: %w", err)
	}
	return nil
}

// Ensure CSVOrderLedger implements OrderLedger
var _ trade.OrderLedger = (*CSVOrderLedger)(nil)

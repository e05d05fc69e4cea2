package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Product file columns
const (
	colProductName  = "name"
	colProductPrice = "price"
	colProductStock = "stock"
)

var productHeaders = []string{colProductName, colProductPrice, colProductStock}

// CSVProductRepository implements catalog.ProductRepository over products.csv.
// Every call holds an exclusive lock on products.csv.lock.
type CSVProductRepository struct {
	path   string
	locker fileLocker
	logger *zap.Logger
}

// NewCSVProductRepository creates a repository for the catalog file at path
func NewCSVProductRepository(path string, logger *zap.Logger, opts ...FileStoreOption) *CSVProductRepository {
	o := defaultFileStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &CSVProductRepository{
		path:   path,
		locker: newFileLocker(path+".lock", o.lockRetryDelay),
		logger: logger,
	}
}

// Load returns the catalog, creating it with the default products on first use
func (r *CSVProductRepository) Load(ctx context.Context) ([]*catalog.Product, error) {
	unlock, err := r.locker.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.load()
}

// Save overwrites the catalog
func (r *CSVProductRepository) Save(ctx context.Context, products []*catalog.Product) error {
	unlock, err := r.locker.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return r.write(products)
}

// Update loads, mutates and saves the catalog under one lock acquisition
func (r *CSVProductRepository) Update(ctx context.Context, fn func(products []*catalog.Product) error) error {
	unlock, err := r.locker.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	products, err := r.load()
	if err != nil {
		return err
	}
	if err := fn(products); err != nil {
		return err
	}
	return r.write(products)
}

func (r *CSVProductRepository) load() ([]*catalog.Product, error) {
	table, err := readCSVTable(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return r.seed()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	if len(table.headers) == 0 {
		return r.seed()
	}
	if missing := table.MissingHeaders([]string{colProductName, colProductPrice}); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v in %s", ErrMissingColumn, missing, r.path)
	}

	migrated := !table.HasHeader(colProductStock)
	products := make([]*catalog.Product, 0, len(table.rows))
	for _, row := range table.rows {
		price, err := decimal.NewFromString(row.Get(colProductPrice))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: price %q", ErrMalformedRow, row.lineNumber, row.Get(colProductPrice))
		}

		stockText := row.Get(colProductStock)
		if stockText == "" {
			stockText = strconv.Itoa(catalog.DefaultStock)
			migrated = true
		}
		stock, err := strconv.Atoi(stockText)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("%w: line %d: stock %q", ErrMalformedRow, row.lineNumber, stockText)
		}

		products = append(products, &catalog.Product{
			Name:  row.Get(colProductName),
			Price: price,
			Stock: stock,
		})
	}

	if migrated {
		if err := r.write(products); err != nil {
			return nil, err
		}
		r.logger.Info("back-filled product stock column",
			zap.String("path", r.path),
			zap.Int("default_stock", catalog.DefaultStock),
		)
	}
	return products, nil
}

func (r *CSVProductRepository) seed() ([]*catalog.Product, error) {
	products := catalog.DefaultProducts()
	if err := r.write(products); err != nil {
		return nil, err
	}
	r.logger.Info("seeded default catalog", zap.String("path", r.path))
	return products, nil
}

func (r *CSVProductRepository) write(products []*catalog.Product) error {
	records := make([][]string, 0, len(products))
	for _, p := range products {
		records = append(records, []string{p.Name, p.Price.String(), strconv.Itoa(p.Stock)})
	}
	if err := writeCSVTable(r.path, productHeaders, records); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	return nil
}

// Ensure CSVProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*CSVProductRepository)(nil)

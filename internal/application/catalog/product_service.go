package catalog

import (
	"context"
	"fmt"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProductService exposes the catalog to the chat flows
type ProductService struct {
	repo   catalog.ProductRepository
	logger *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(repo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		logger: logger,
	}
}

// List returns every product in catalog order
func (s *ProductService) List(ctx context.Context) ([]*catalog.Product, error) {
	products, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

// Restock adds quantity units to an existing product and returns it with the new stock
func (s *ProductService) Restock(ctx context.Context, name string, quantity int) (*catalog.Product, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "restock",
		telemetry.WithAttribute(telemetry.SpanAttrProduct, name),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, quantity),
	)
	defer span.End()

	var restocked catalog.Product
	err := s.repo.Update(ctx, func(products []*catalog.Product) error {
		product := catalog.FindProduct(products, name)
		if product == nil {
			return catalog.ErrProductNotFound
		}
		if err := product.Restock(quantity); err != nil {
			return err
		}
		restocked = *product
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("product restocked",
		zap.String("product", restocked.Name),
		zap.Int("quantity", quantity),
		zap.Int("stock", restocked.Stock),
	)
	return &restocked, nil
}

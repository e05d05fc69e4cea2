package catalog

import (
	"github.com/dukaandost/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeStockLow = "StockLow"
)

// StockLowEvent is published when an order leaves a product below the low-stock threshold
type StockLowEvent struct {
	shared.BaseDomainEvent
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	Threshold   int    `json:"threshold"`
}

// NewStockLowEvent creates a new StockLowEvent
func NewStockLowEvent(product *Product, threshold int) *StockLowEvent {
	return &StockLowEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLow, AggregateTypeProduct, product.Name),
		ProductName:     product.Name,
		Stock:           product.Stock,
		Threshold:       threshold,
	}
}

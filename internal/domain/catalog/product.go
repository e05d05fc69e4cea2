package catalog

import (
	"fmt"
	"strings"

	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultStock is back-filled into catalogs written before stock was tracked
	DefaultStock = 10

	// LowStockThreshold triggers an owner alert when stock drops below it
	LowStockThreshold = 10
)

// Catalog errors
var (
	ErrProductNotFound = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrInvalidQuantity = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive whole number")
	ErrInvalidProduct  = shared.NewDomainError("INVALID_PRODUCT", "Product name cannot be empty")
	ErrInvalidPrice    = shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
)

// Product is a catalog entry keyed by its name.
// Stock never goes below zero.
type Product struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

// NewProduct creates a new product
func NewProduct(name string, price decimal.Decimal, stock int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidProduct
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	return &Product{Name: name, Price: price, Stock: stock}, nil
}

// DefaultProducts returns the catalog a brand new shop starts with
func DefaultProducts() []*Product {
	return []*Product{
		{Name: "sugar", Price: decimal.NewFromInt(40), Stock: DefaultStock},
		{Name: "rice", Price: decimal.NewFromInt(55), Stock: DefaultStock},
		{Name: "oil", Price: decimal.NewFromInt(120), Stock: DefaultStock},
	}
}

// PriceMoney returns the selling price as Money
func (p *Product) PriceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.Price)
}

// Deduct removes quantity units from stock for an order
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return NewInsufficientStockError(p.Name, p.Stock)
	}
	p.Stock -= quantity
	return nil
}

// Restock adds quantity units to stock
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.Stock += quantity
	return nil
}

// IsLowStock reports whether stock is strictly below threshold
func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock < threshold
}

// NewInsufficientStockError reports how much of a product is left
func NewInsufficientStockError(name string, available int) *shared.DomainError {
	return shared.NewDomainError(shared.ErrInsufficientStock.Code,
		fmt.Sprintf("Only %d %s left in stock", available, name))
}

// FindProduct returns the product whose name matches exactly, or nil
func FindProduct(products []*Product, name string) *Product {
	for _, p := range products {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// DisplayName title-cases a product name for customer-facing replies
func DisplayName(name string) string {
	return cases.Title(language.English).String(name)
}

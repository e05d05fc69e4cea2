package report

import (
	"time"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// DefaultCostRatio estimates cost of goods as a share of the selling price
var DefaultCostRatio = decimal.NewFromFloat(0.70)

// ProfitLossStatement summarises one day of trading
type ProfitLossStatement struct {
	Date       string          `json:"date"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"` // quantity * current price
	Cost       decimal.Decimal `json:"cost"`    // revenue * cost ratio
	Profit     decimal.Decimal `json:"profit"`  // revenue - cost
}

// DailyProfitLoss values the orders placed on day at current catalog prices.
// Orders for products no longer in the catalog count with a zero price.
func DailyProfitLoss(orders []*trade.Order, products []*catalog.Product, day time.Time, costRatio decimal.Decimal) ProfitLossStatement {
	prices := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.Name] = p.Price
	}

	stmt := ProfitLossStatement{
		Date:    day.Format(trade.DateLayout),
		Revenue: decimal.Zero,
		Cost:    decimal.Zero,
		Profit:  decimal.Zero,
	}
	for _, o := range orders {
		if !o.PlacedOn(day) {
			continue
		}
		stmt.OrderCount++
		revenue := prices[o.Product].Mul(decimal.NewFromInt(int64(o.Quantity)))
		cost := revenue.Mul(costRatio)
		stmt.Revenue = stmt.Revenue.Add(revenue)
		stmt.Cost = stmt.Cost.Add(cost)
		stmt.Profit = stmt.Profit.Add(revenue.Sub(cost))
	}
	return stmt
}

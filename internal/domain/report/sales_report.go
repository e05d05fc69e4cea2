package report

import (
	"sort"

	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/domain/trade"
)

// ErrNoSalesData is returned when the ledger holds nothing to report on
var ErrNoSalesData = shared.NewDomainError("NO_SALES_DATA", "No sales data yet")

// ProductSales is the all-time quantity sold of one product
type ProductSales struct {
	ProductName   string `json:"product_name"`
	TotalQuantity int    `json:"total_quantity"`
	OrderCount    int    `json:"order_count"`
}

// SalesByProduct totals order quantities per product, ordered by product name
func SalesByProduct(orders []*trade.Order) []ProductSales {
	index := make(map[string]int)
	var sales []ProductSales
	for _, o := range orders {
		if o.Product == "" {
			continue
		}
		i, ok := index[o.Product]
		if !ok {
			i = len(sales)
			index[o.Product] = i
			sales = append(sales, ProductSales{ProductName: o.Product})
		}
		sales[i].TotalQuantity += o.Quantity
		sales[i].OrderCount++
	}
	sort.Slice(sales, func(a, b int) bool {
		return sales[a].ProductName < sales[b].ProductName
	})
	return sales
}

// DemandInsight names the most and least ordered products
type DemandInsight struct {
	Top    ProductSales `json:"top"`
	Bottom ProductSales `json:"bottom"`
}

// RankDemand picks the products with the highest and lowest total quantity.
// Equal quantities rank by product name.
func RankDemand(sales []ProductSales) (*DemandInsight, error) {
	if len(sales) == 0 {
		return nil, ErrNoSalesData
	}
	ranked := make([]ProductSales, len(sales))
	copy(ranked, sales)
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].TotalQuantity != ranked[b].TotalQuantity {
			return ranked[a].TotalQuantity > ranked[b].TotalQuantity
		}
		return ranked[a].ProductName < ranked[b].ProductName
	})
	return &DemandInsight{Top: ranked[0], Bottom: ranked[len(ranked)-1]}, nil
}

package report

import (
	"testing"
	"time"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesByProduct(t *testing.T) {
	orders := []*trade.Order{
		{Product: "rice", Quantity: 3},
		{Product: "oil", Quantity: 1},
		{Product: "rice", Quantity: 2},
		{Product: "", Quantity: 0},
		{Product: "sugar", Quantity: 0},
	}

	sales := SalesByProduct(orders)
	assert.Equal(t, []ProductSales{
		{ProductName: "oil", TotalQuantity: 1, OrderCount: 1},
		{ProductName: "rice", TotalQuantity: 5, OrderCount: 2},
		{ProductName: "sugar", TotalQuantity: 0, OrderCount: 1},
	}, sales)

	assert.Empty(t, SalesByProduct(nil))
}

func TestRankDemand(t *testing.T) {
	t.Run("top and bottom", func(t *testing.T) {
		insight, err := RankDemand([]ProductSales{
			{ProductName: "oil", TotalQuantity: 4},
			{ProductName: "rice", TotalQuantity: 9},
			{ProductName: "sugar", TotalQuantity: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, "rice", insight.Top.ProductName)
		assert.Equal(t, "sugar", insight.Bottom.ProductName)
	})

	t.Run("ties rank by name", func(t *testing.T) {
		insight, err := RankDemand([]ProductSales{
			{ProductName: "sugar", TotalQuantity: 2},
			{ProductName: "oil", TotalQuantity: 2},
			{ProductName: "rice", TotalQuantity: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, "oil", insight.Top.ProductName)
		assert.Equal(t, "sugar", insight.Bottom.ProductName)
	})

	t.Run("single product", func(t *testing.T) {
		insight, err := RankDemand([]ProductSales{{ProductName: "oil", TotalQuantity: 2}})
		require.NoError(t, err)
		assert.Equal(t, insight.Top, insight.Bottom)
	})

	t.Run("no sales", func(t *testing.T) {
		_, err := RankDemand(nil)
		assert.ErrorIs(t, err, ErrNoSalesData)
	})
}

func TestDailyProfitLoss(t *testing.T) {
	day := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	products := []*catalog.Product{
		{Name: "rice", Price: decimal.NewFromInt(55)},
		{Name: "oil", Price: decimal.NewFromInt(120)},
	}
	orders := []*trade.Order{
		{Product: "rice", Quantity: 3, Date: "2026-10-15"},
		{Product: "oil", Quantity: 1, Date: "2026-10-15"},
		{Product: "rice", Quantity: 10, Date: "2026-10-14"},
		{Product: "ghee", Quantity: 2, Date: "2026-10-15"},
	}

	stmt := DailyProfitLoss(orders, products, day, DefaultCostRatio)
	assert.Equal(t, "2026-10-15", stmt.Date)
	assert.Equal(t, 3, stmt.OrderCount)
	assert.Equal(t, "285.00", stmt.Revenue.StringFixed(2))
	assert.Equal(t, "199.50", stmt.Cost.StringFixed(2))
	assert.Equal(t, "85.50", stmt.Profit.StringFixed(2))
}

func TestDailyProfitLoss_NoOrdersToday(t *testing.T) {
	day := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	stmt := DailyProfitLoss([]*trade.Order{{Product: "rice", Quantity: 1, Date: "2026-10-01"}}, nil, day, DefaultCostRatio)
	assert.Zero(t, stmt.OrderCount)
	assert.True(t, stmt.Revenue.IsZero())
}

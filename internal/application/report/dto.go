package report

import (
	"fmt"

	"github.com/dukaandost/backend/internal/domain/report"
)

// DailySummary is today's profit and loss as shown to the owner
type DailySummary struct {
	LedgerEmpty bool
	Statement   report.ProfitLossStatement
}

// Text renders the summary as a chat message
func (d *DailySummary) Text() string {
	if d.LedgerEmpty {
		return "📊 No sales yet."
	}
	if d.Statement.OrderCount == 0 {
		return "📊 No sales today."
	}
	return fmt.Sprintf("💰 Today's Summary:\nRevenue: ₹%s\nCost: ₹%s\nProfit: ₹%s",
		d.Statement.Revenue.StringFixed(2),
		d.Statement.Cost.StringFixed(2),
		d.Statement.Profit.StringFixed(2),
	)
}

// DemandText renders demand insights as a chat message
func DemandText(insight *report.DemandInsight) string {
	return fmt.Sprintf("🔥 In-demand: %s\n❄️ Not in demand: %s", insight.Top.ProductName, insight.Bottom.ProductName)
}

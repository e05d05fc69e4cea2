package trade

import (
	"fmt"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/trade"
)

// StatusUpdateText is the proactive message a customer receives when their order moves
func StatusUpdateText(o *trade.Order) string {
	return fmt.Sprintf("📦 Order Update!\n"+
		"Your Order #%s (%s x%d) is now %s 🚚\n"+
		"📅 Estimated Delivery Time: %s\n"+
		"💰 Payment Mode: %s",
		o.ID, o.Product, o.Quantity, o.Status, o.ETA, o.Payment)
}

// LowStockText is the alert sent to every owner when stock runs low
func LowStockText(productName string, stock int) string {
	return fmt.Sprintf("⚠️ %s only %d left, reorder soon!", catalog.DisplayName(productName), stock)
}

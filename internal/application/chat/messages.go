package chat

import (
	"fmt"
	"strings"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/trade"
)

const (
	customerMenuText = "👋 Welcome to Dukaan-Dost!\nPlease choose an option:\n\n" +
		"1️⃣ View Products\n" +
		"2️⃣ Check Order Status\n" +
		"3️⃣ Place New Order\n" +
		"4️⃣ Offers & Discounts\n" +
		"5️⃣ Talk to Support"

	adminMenuText = "👨‍💼 Owner Menu:\n" +
		"1️⃣ View Products\n" +
		"2️⃣ View Orders\n" +
		"3️⃣ Sales Insights\n" +
		"4️⃣ Profit & Loss Summary (today)\n" +
		"5️⃣ Stock Levels\n" +
		"6️⃣ Demand Insights (all-time)\n" +
		"Type commands (strict lowercase):\n" +
		"- restock product,qty   (example: restock rice,50)\n" +
		"- add offer <text>      (example: add offer 5% off on Oil)\n" +
		"- remove offer <text>   (example: remove offer 5% off on Oil)\n" +
		"- offers                (view current offers)\n" +
		"Type 'exit' to leave admin mode."

	adminActivatedText = "✅ Admin mode activated.\n\n" + adminMenuText
	wrongPINText       = "❌ Wrong admin PIN."
	adminExitText      = "👋 Exited admin mode."
	invalidAdminText   = "⚠️ Invalid admin option. Use 1/2/3/4/5/6, 'offers', or admin commands, or 'exit'."

	restockFormatText   = "⚠️ Wrong format. Use: restock product,qty  (example: restock rice,50)"
	restockQuantityText = "⚠️ Quantity must be an integer."
	restockPositiveText = "⚠️ Quantity must be a positive integer."
	addOfferUsageText   = "⚠️ Usage: add offer <offer text>"
	removeOfferUsage    = "⚠️ Usage: remove offer <offer text>"
	noOffersFileText    = "⚠️ No offers file exists."
	noOrdersText        = "📭 No orders yet."
	noSalesDataText     = "⚠️ No sales data yet."
	noDemandDataText    = "📊 No demand data yet."
	pnlErrorText        = "⚠️ Error generating P&L."
	demandErrorText     = "⚠️ Error generating demand insights."
	salesChartTitle     = "Sales Insights (All-time)"
	salesChartCaption   = "📊 Sales Insights"
	demandChartCaption  = "📊 All-time Demand Chart"

	orderIDPromptText    = "📦 Please enter your Order ID:"
	newOrderPromptText   = "📝 Type order as: product,quantity\nExample: rice,2"
	orderIDDigitsText    = "⚠️ Order ID should contain digits only."
	orderNotFoundText    = "⚠️ Order not found."
	orderFormatText      = "⚠️ Wrong format. Send: product,quantity"
	orderQuantityText    = "⚠️ Quantity must be a positive number."
	orderFailedText      = "⚠️ Could not save order. Try again."
	thankYouText         = "🙏 Thank you for shopping with Dukaan-Dost!\nWe’ll notify you when your order is out for delivery. 🚚"
	invalidOptionText    = "⚠️ Invalid option. Reply with 1-5 or type 'hi' for menu."
	invalidChoiceText    = "⚠️ Invalid choice. Reply with 1-5 or 'hi' for menu."
	storeUnavailableText = "⚠️ Sorry, something went wrong. Please try again."
)

func supportText(contact string) string {
	return "📞 Talk to Support: " + contact
}

func customerProductsText(products []*catalog.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s %s", catalog.DisplayName(p.Name), p.PriceMoney()))
	}
	return "🛒 Products:\n" + strings.Join(lines, "\n")
}

func adminProductsText(products []*catalog.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s %s (stock: %d)", catalog.DisplayName(p.Name), p.PriceMoney(), p.Stock))
	}
	return "📦 Products:\n" + strings.Join(lines, "\n")
}

func stockLevelsText(products []*catalog.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s: %d left", catalog.DisplayName(p.Name), p.Stock))
	}
	return "📦 Stock Levels:\n" + strings.Join(lines, "\n")
}

func ordersText(orders []*trade.Order) string {
	if len(orders) == 0 {
		return noOrdersText
	}
	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("#%s: %s x%d - %s", o.ID, o.Product, o.Quantity, o.Status))
	}
	return "📝 Orders:\n" + strings.Join(lines, "\n")
}

func orderStatusText(o *trade.Order) string {
	return fmt.Sprintf("✅ Order #%s (%s x%d) is %s 🚚\n"+
		"📅 Estimated Delivery Time: %s\n"+
		"💰 Payment Mode: %s",
		o.ID, o.Product, o.Quantity, o.Status, o.ETA, o.Payment)
}

func orderPlacedText(o *trade.Order) string {
	return fmt.Sprintf("📝 Order placed: %d %s\n"+
		"Your Order ID: %s\n"+
		"📅 Estimated Delivery Time: %s\n"+
		"💰 Payment Mode: %s",
		o.Quantity, o.Product, o.ID, o.ETA, o.Payment)
}

func productNotFoundText(name string) string {
	return fmt.Sprintf("⚠️ Product '%s' not found.", name)
}

func restockedText(p *catalog.Product, quantity int) string {
	return fmt.Sprintf("✅ Restocked %s by %d. New stock: %d", p.Name, quantity, p.Stock)
}

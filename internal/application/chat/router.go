// Package chat turns inbound WhatsApp text into shop operations and replies.
package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"

	reportapp "github.com/dukaandost/backend/internal/application/report"
	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/messaging"
	"github.com/dukaandost/backend/internal/domain/promotion"
	"github.com/dukaandost/backend/internal/domain/report"
	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// Catalog is the product side of the shop
type Catalog interface {
	List(ctx context.Context) ([]*catalog.Product, error)
	Restock(ctx context.Context, name string, quantity int) (*catalog.Product, error)
}

// Orders is the order lifecycle
type Orders interface {
	PlaceOrder(ctx context.Context, productName string, quantity int, customer string) (*trade.Order, error)
	FindOrder(ctx context.Context, id string) (*trade.Order, error)
	ListOrders(ctx context.Context) ([]*trade.Order, error)
}

// Offers is the offers board
type Offers interface {
	Text(ctx context.Context) (string, error)
	Add(ctx context.Context, text string) (string, error)
	Remove(ctx context.Context, text string) (string, error)
}

// Reports produces the owner's sales reports
type Reports interface {
	ProfitAndLossToday(ctx context.Context) (*reportapp.DailySummary, error)
	DemandInsights(ctx context.Context) (*report.DemandInsight, error)
	SalesChart(ctx context.Context, title string) (string, error)
}

// RouterConfig holds the shop settings the router needs
type RouterConfig struct {
	AdminPIN       string
	SupportContact string
}

// Router dispatches one inbound message at a time.
//
// Owner commands are checked first. Customers without a pending prompt get
// the main menu commands; a pending prompt consumes exactly the next message
// whatever its content.
type Router struct {
	cfg       RouterConfig
	messenger messaging.Messenger
	catalog   Catalog
	orders    Orders
	offers    Offers
	reports   Reports
	sessions  *SessionStore
	admins    *AdminRegistry
	logger    *zap.Logger
}

// NewRouter creates a Router. sessions and admins are owned by the caller so
// other components can share them.
func NewRouter(
	cfg RouterConfig,
	messenger messaging.Messenger,
	products Catalog,
	orders Orders,
	offers Offers,
	reports Reports,
	sessions *SessionStore,
	admins *AdminRegistry,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:       cfg,
		messenger: messenger,
		catalog:   products,
		orders:    orders,
		offers:    offers,
		reports:   reports,
		sessions:  sessions,
		admins:    admins,
		logger:    logger,
	}
}

// Normalize lowercases and trims inbound text
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Handle interprets one message from identity and sends the replies
func (r *Router) Handle(ctx context.Context, from, text string) {
	text = Normalize(text)
	r.logger.Debug("inbound message",
		zap.String("from", from),
		zap.String("text", text),
		zap.Stringer("session", r.sessions.Peek(from)),
	)

	fields := strings.Fields(text)
	if len(fields) > 0 && fields[0] == "admin" {
		r.login(ctx, from, fields[1:])
		return
	}
	if text == "exit" && r.admins.IsAdmin(from) {
		r.admins.Remove(from)
		r.reply(ctx, from, adminExitText)
		return
	}
	if r.admins.IsAdmin(from) {
		r.handleAdmin(ctx, from, text)
		return
	}
	r.handleCustomer(ctx, from, text)
}

func (r *Router) login(ctx context.Context, from string, args []string) {
	if len(args) >= 1 && args[0] == r.cfg.AdminPIN {
		r.admins.Add(from)
		r.logger.Info("admin signed in", zap.String("identity", from))
		r.reply(ctx, from, adminActivatedText)
		return
	}
	r.logger.Warn("admin sign-in rejected", zap.String("identity", from))
	r.reply(ctx, from, wrongPINText)
}

func (r *Router) handleAdmin(ctx context.Context, from, text string) {
	switch {
	case strings.HasPrefix(text, "restock "):
		r.restock(ctx, from, strings.TrimSpace(strings.TrimPrefix(text, "restock ")))
		return
	case strings.HasPrefix(text, "add offer"):
		r.addOffer(ctx, from, strings.TrimSpace(strings.TrimPrefix(text, "add offer")))
		return
	case strings.HasPrefix(text, "remove offer"):
		r.removeOffer(ctx, from, strings.TrimSpace(strings.TrimPrefix(text, "remove offer")))
		return
	case text == "offers":
		r.sendOffers(ctx, from)
		return
	}

	switch text {
	case "1":
		products, err := r.catalog.List(ctx)
		if err != nil {
			r.storeFailure(ctx, from, "list products", err)
			return
		}
		r.reply(ctx, from, adminProductsText(products))
	case "2":
		orders, err := r.orders.ListOrders(ctx)
		if err != nil {
			r.storeFailure(ctx, from, "list orders", err)
			return
		}
		r.reply(ctx, from, ordersText(orders))
	case "3":
		if !r.sendSalesChart(ctx, from, salesChartCaption) {
			r.reply(ctx, from, noSalesDataText)
		}
	case "4":
		summary, err := r.reports.ProfitAndLossToday(ctx)
		if err != nil {
			r.logger.Error("failed to build profit and loss", zap.Error(err))
			r.reply(ctx, from, pnlErrorText)
			return
		}
		r.reply(ctx, from, summary.Text())
	case "5":
		products, err := r.catalog.List(ctx)
		if err != nil {
			r.storeFailure(ctx, from, "list stock", err)
			return
		}
		r.reply(ctx, from, stockLevelsText(products))
	case "6":
		insight, err := r.reports.DemandInsights(ctx)
		switch {
		case errors.Is(err, report.ErrNoSalesData):
			r.reply(ctx, from, noDemandDataText)
		case err != nil:
			r.logger.Error("failed to build demand insights", zap.Error(err))
			r.reply(ctx, from, demandErrorText)
		default:
			r.reply(ctx, from, reportapp.DemandText(insight))
		}
		r.sendSalesChart(ctx, from, demandChartCaption)
	default:
		r.reply(ctx, from, invalidAdminText)
	}
}

func (r *Router) restock(ctx context.Context, from, args string) {
	name, qtyText, ok := strings.Cut(args, ",")
	if !ok {
		r.reply(ctx, from, restockFormatText)
		return
	}
	name = strings.TrimSpace(name)
	quantity, err := strconv.Atoi(strings.TrimSpace(qtyText))
	if err != nil {
		r.reply(ctx, from, restockQuantityText)
		return
	}

	product, err := r.catalog.Restock(ctx, name, quantity)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		r.reply(ctx, from, productNotFoundText(name))
	case errors.Is(err, catalog.ErrInvalidQuantity):
		r.reply(ctx, from, restockPositiveText)
	case err != nil:
		r.storeFailure(ctx, from, "restock", err)
	default:
		r.reply(ctx, from, restockedText(product, quantity))
	}
}

func (r *Router) addOffer(ctx context.Context, from, text string) {
	if text == "" {
		r.reply(ctx, from, addOfferUsageText)
		return
	}
	added, err := r.offers.Add(ctx, text)
	if err != nil {
		r.logger.Error("failed to add offer", zap.String("offer", text), zap.Error(err))
		r.reply(ctx, from, "⚠️ Could not add offer: "+text)
		return
	}
	r.reply(ctx, from, "✅ Offer '"+added+"' added.")
}

func (r *Router) removeOffer(ctx context.Context, from, text string) {
	if text == "" {
		r.reply(ctx, from, removeOfferUsage)
		return
	}
	removed, err := r.offers.Remove(ctx, text)
	switch {
	case errors.Is(err, promotion.ErrOffersUnavailable):
		r.reply(ctx, from, noOffersFileText)
	case errors.Is(err, promotion.ErrOfferNotFound):
		r.reply(ctx, from, "⚠️ Offer '"+text+"' not found.")
	case err != nil:
		r.storeFailure(ctx, from, "remove offer", err)
	default:
		r.reply(ctx, from, "✅ Offer '"+removed+"' removed.")
	}
}

func (r *Router) sendOffers(ctx context.Context, from string) {
	text, err := r.offers.Text(ctx)
	if err != nil {
		r.storeFailure(ctx, from, "read offers", err)
		return
	}
	r.reply(ctx, from, text)
}

// sendSalesChart reports whether a chart was available to send
func (r *Router) sendSalesChart(ctx context.Context, from, caption string) bool {
	path, err := r.reports.SalesChart(ctx, salesChartTitle)
	if err != nil {
		if !errors.Is(err, report.ErrNoSalesData) {
			r.logger.Error("failed to generate sales chart", zap.Error(err))
		}
		return false
	}
	if err := r.messenger.SendImage(ctx, from, path, caption); err != nil {
		r.logger.Warn("failed to send chart", zap.String("to", from), zap.Error(err))
	}
	return true
}

func (r *Router) handleCustomer(ctx context.Context, from, text string) {
	switch r.sessions.Take(from) {
	case SessionAwaitingOrderID:
		r.lookupOrder(ctx, from, text)
		return
	case SessionAwaitingNewOrder:
		r.placeOrder(ctx, from, text)
		return
	}

	switch text {
	case "hi", "hello", "hey":
		r.reply(ctx, from, customerMenuText)
	case "1":
		products, err := r.catalog.List(ctx)
		if err != nil {
			r.storeFailure(ctx, from, "list products", err)
			return
		}
		r.reply(ctx, from, customerProductsText(products))
	case "2":
		r.sessions.Set(from, SessionAwaitingOrderID)
		r.reply(ctx, from, orderIDPromptText)
	case "3":
		r.sessions.Set(from, SessionAwaitingNewOrder)
		r.reply(ctx, from, newOrderPromptText)
	case "4":
		r.sendOffers(ctx, from)
	case "5":
		r.reply(ctx, from, supportText(r.cfg.SupportContact))
	default:
		if trade.IsOrderID(text) {
			r.reply(ctx, from, invalidOptionText)
			return
		}
		r.reply(ctx, from, invalidChoiceText)
	}
}

func (r *Router) lookupOrder(ctx context.Context, from, id string) {
	order, err := r.orders.FindOrder(ctx, id)
	switch {
	case errors.Is(err, trade.ErrInvalidOrderID):
		r.reply(ctx, from, orderIDDigitsText)
	case errors.Is(err, trade.ErrOrderNotFound):
		r.reply(ctx, from, orderNotFoundText)
	case err != nil:
		r.storeFailure(ctx, from, "find order", err)
	default:
		r.reply(ctx, from, orderStatusText(order))
	}
}

func (r *Router) placeOrder(ctx context.Context, from, text string) {
	name, qtyText, ok := strings.Cut(text, ",")
	if !ok {
		r.reply(ctx, from, orderFormatText)
		return
	}
	name = strings.TrimSpace(name)
	quantity, err := strconv.Atoi(strings.TrimSpace(qtyText))
	if err != nil {
		r.reply(ctx, from, orderQuantityText)
		return
	}

	order, err := r.orders.PlaceOrder(ctx, name, quantity, from)
	if err != nil {
		r.reply(ctx, from, orderFailureText(name, err))
		if !isUserError(err) {
			r.logger.Error("failed to place order",
				zap.String("customer", from),
				zap.String("product", name),
				zap.Error(err),
			)
		}
		return
	}
	r.reply(ctx, from, orderPlacedText(order))
	r.reply(ctx, from, thankYouText)
}

func orderFailureText(name string, err error) string {
	var de *shared.DomainError
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return productNotFoundText(name)
	case errors.Is(err, catalog.ErrInvalidQuantity):
		return orderQuantityText
	case errors.Is(err, shared.ErrInsufficientStock) && errors.As(err, &de):
		return "⚠️ " + de.Message + "."
	default:
		return orderFailedText
	}
}

func isUserError(err error) bool {
	var de *shared.DomainError
	return errors.As(err, &de)
}

func (r *Router) storeFailure(ctx context.Context, to, action string, err error) {
	r.logger.Error("store operation failed", zap.String("action", action), zap.Error(err))
	r.reply(ctx, to, storeUnavailableText)
}

func (r *Router) reply(ctx context.Context, to, body string) {
	if err := r.messenger.SendText(ctx, to, body); err != nil {
		r.logger.Warn("failed to send reply", zap.String("to", to), zap.Error(err))
	}
}

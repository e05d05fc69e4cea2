package trade

import (
	"strconv"
	"strings"
	"time"

	"github.com/dukaandost/backend/internal/domain/shared"
)

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

// Ledger defaults back-filled into legacy rows and applied to new orders
const (
	BaseOrderID    = 10001
	DefaultPayment = "Cash/UPI on Delivery"
	DefaultETA     = "2 days"
	DateLayout     = "2006-01-02"

	ETAShipped   = "Tomorrow"
	ETADelivered = "Delivered Today"
)

// Order errors
var (
	ErrOrderNotFound   = shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	ErrInvalidOrderID  = shared.NewDomainError("INVALID_INPUT", "Order ID should contain digits only")
	ErrInvalidQuantity = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive whole number")
)

// IsValid checks if the status is one the lifecycle knows about
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// Canonical maps a stored status onto a known status ignoring case and
// surrounding blanks. Unknown statuses are returned unchanged with ok=false.
func (s OrderStatus) Canonical() (OrderStatus, bool) {
	trimmed := strings.TrimSpace(string(s))
	for _, known := range []OrderStatus{OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered} {
		if strings.EqualFold(trimmed, string(known)) {
			return known, true
		}
	}
	return s, false
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	current, ok := s.Canonical()
	if !ok {
		return false
	}
	switch current {
	case OrderStatusProcessing:
		return target == OrderStatusShipped
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	case OrderStatusDelivered:
		return false // Terminal state
	}
	return false
}

// Order is one row of the order ledger. Every field round-trips as text.
type Order struct {
	ID       string
	Product  string
	Quantity int
	Status   OrderStatus
	ETA      string
	Payment  string
	Customer string
	Date     string // yyyy-mm-dd
}

// NewOrder creates a Processing order placed on the given day
func NewOrder(id, product string, quantity int, customer string, placedAt time.Time) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Order{
		ID:       id,
		Product:  product,
		Quantity: quantity,
		Status:   OrderStatusProcessing,
		ETA:      DefaultETA,
		Payment:  DefaultPayment,
		Customer: customer,
		Date:     placedAt.Format(DateLayout),
	}, nil
}

// TransitionTo moves the order to target and updates the delivery estimate
func (o *Order) TransitionTo(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move order #"+o.ID+" from "+o.Status.String()+" to "+target.String())
	}
	o.Status = target
	switch target {
	case OrderStatusShipped:
		o.ETA = ETAShipped
	case OrderStatusDelivered:
		o.ETA = ETADelivered
	}
	return nil
}

// PlacedOn reports whether the order was placed on the calendar day of t
func (o *Order) PlacedOn(t time.Time) bool {
	return o.Date == t.Format(DateLayout)
}

// StatusChange describes a single lifecycle transition
type StatusChange struct {
	OrderID string
	Product string
	From    OrderStatus
	To      OrderStatus
	ETA     string
}

// AdvanceFirst moves the first Processing order to Shipped, or when none is
// Processing, the first Shipped order to Delivered. Orders are scanned in
// ledger order and at most one order changes. Returns nil when nothing moved.
func AdvanceFirst(orders []*Order) *StatusChange {
	for _, step := range []struct{ from, to OrderStatus }{
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusDelivered},
	} {
		for _, o := range orders {
			if current, ok := o.Status.Canonical(); !ok || current != step.from {
				continue
			}
			if err := o.TransitionTo(step.to); err != nil {
				continue
			}
			return &StatusChange{
				OrderID: o.ID,
				Product: o.Product,
				From:    step.from,
				To:      step.to,
				ETA:     o.ETA,
			}
		}
	}
	return nil
}

// NextOrderID returns the id for the next order appended to the ledger.
// The first order gets BaseOrderID; afterwards the highest numeric id plus
// one. When any stored id is not numeric the row count is offset from the
// base instead.
func NextOrderID(orders []*Order) string {
	if len(orders) == 0 {
		return strconv.Itoa(BaseOrderID)
	}
	maxID := 0
	for _, o := range orders {
		id, err := strconv.Atoi(strings.TrimSpace(o.ID))
		if err != nil {
			return strconv.Itoa(len(orders) + BaseOrderID)
		}
		if id > maxID {
			maxID = id
		}
	}
	return strconv.Itoa(maxID + 1)
}

// FindOrder returns the order with the given id, or nil
func FindOrder(orders []*Order, id string) *Order {
	for _, o := range orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// IsOrderID reports whether s is a non-empty run of ASCII digits
func IsOrderID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

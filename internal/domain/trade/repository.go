package trade

import "context"

// OrderLedger persists the full order history.
// Implementations serialise every call behind one exclusive lock.
type OrderLedger interface {
	// Load returns all orders in ledger order with defaults back-filled
	Load(ctx context.Context) ([]*Order, error)

	// Save overwrites the ledger
	Save(ctx context.Context, orders []*Order) error

	// Update runs fn on the loaded ledger and saves the slice it returns,
	// all under a single lock acquisition. When fn fails nothing is written.
	Update(ctx context.Context, fn func(orders []*Order) ([]*Order, error)) error
}

package promotion

import "context"

// OfferRepository stores the offer board
type OfferRepository interface {
	// Load returns the stored board, or ErrOffersUnavailable when none was ever written
	Load(ctx context.Context) (*Board, error)

	// Append adds one offer line to the end of the stored board
	Append(ctx context.Context, text string) error

	// Save overwrites the stored board
	Save(ctx context.Context, board *Board) error
}

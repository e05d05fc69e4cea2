package promotion

import (
	"strings"

	"github.com/dukaandost/backend/internal/domain/shared"
)

// DefaultOffers are shown when the shop has not published any offers yet
var DefaultOffers = []string{
	"10% off on Rice",
	"Buy 1 Get 1 Free on Sugar",
	"Flat ₹20 off on Oil",
}

// Offer errors
var (
	ErrOfferNotFound     = shared.NewDomainError("OFFER_NOT_FOUND", "Offer not found")
	ErrOffersUnavailable = shared.NewDomainError("OFFERS_UNAVAILABLE", "No offers file exists")
	ErrEmptyOffer        = shared.NewDomainError("INVALID_INPUT", "Offer text cannot be empty")
)

// Board is the ordered list of offer lines shown to customers.
// Duplicates are allowed; removal takes out the first exact match.
type Board struct {
	lines []string
}

// NewBoard builds a board from raw lines, dropping blank ones
func NewBoard(lines []string) *Board {
	b := &Board{lines: make([]string, 0, len(lines))}
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			b.lines = append(b.lines, line)
		}
	}
	return b
}

// Lines returns a copy of the offer lines in display order
func (b *Board) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// IsEmpty reports whether the board has no offers
func (b *Board) IsEmpty() bool {
	return len(b.lines) == 0
}

// Add appends an offer
func (b *Board) Add(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyOffer
	}
	b.lines = append(b.lines, text)
	return nil
}

// Remove deletes the first offer whose text matches exactly
func (b *Board) Remove(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyOffer
	}
	for i, line := range b.lines {
		if line == text {
			b.lines = append(b.lines[:i], b.lines[i+1:]...)
			return nil
		}
	}
	return ErrOfferNotFound
}

// Displayed returns the lines customers see, falling back to DefaultOffers
func (b *Board) Displayed() []string {
	if b == nil || b.IsEmpty() {
		return append([]string(nil), DefaultOffers...)
	}
	return b.Lines()
}

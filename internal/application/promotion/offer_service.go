package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukaandost/backend/internal/domain/promotion"
	"go.uber.org/zap"
)

// OfferService manages the offers board
type OfferService struct {
	repo   promotion.OfferRepository
	logger *zap.Logger
}

// NewOfferService creates a new OfferService
func NewOfferService(repo promotion.OfferRepository, logger *zap.Logger) *OfferService {
	return &OfferService{
		repo:   repo,
		logger: logger,
	}
}

// Offers returns the lines customers should see. The default offers are used
// when nothing was published.
func (s *OfferService) Offers(ctx context.Context) ([]string, error) {
	board, err := s.repo.Load(ctx)
	if errors.Is(err, promotion.ErrOffersUnavailable) {
		return promotion.NewBoard(nil).Displayed(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	return board.Displayed(), nil
}

// Text renders the offers board as a chat message
func (s *OfferService) Text(ctx context.Context) (string, error) {
	offers, err := s.Offers(ctx)
	if err != nil {
		return "", err
	}
	return "🎉 Today's Offers:\n- " + strings.Join(offers, "\n- "), nil
}

// Add publishes a new offer
func (s *OfferService) Add(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", promotion.ErrEmptyOffer
	}
	if err := s.repo.Append(ctx, text); err != nil {
		return "", fmt.Errorf("failed to add offer: %w", err)
	}
	s.logger.Info("offer added", zap.String("offer", text))
	return text, nil
}

// Remove withdraws the first offer matching text exactly
func (s *OfferService) Remove(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", promotion.ErrEmptyOffer
	}
	board, err := s.repo.Load(ctx)
	if err != nil {
		return "", err
	}
	if err := board.Remove(text); err != nil {
		return "", err
	}
	if err := s.repo.Save(ctx, board); err != nil {
		return "", fmt.Errorf("failed to save offers: %w", err)
	}
	s.logger.Info("offer removed", zap.String("offer", text))
	return text, nil
}

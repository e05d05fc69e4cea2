package persistence

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dukaandost/backend/internal/domain/promotion"
	"go.uber.org/zap"
)

// TextOfferRepository implements promotion.OfferRepository over a
// newline-delimited text file, one offer per line.
type TextOfferRepository struct {
	path   string
	locker fileLocker
	logger *zap.Logger
}

// NewTextOfferRepository creates a repository for the offers file at path
func NewTextOfferRepository(path string, logger *zap.Logger, opts ...FileStoreOption) *TextOfferRepository {
	o := defaultFileStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &TextOfferRepository{
		path:   path,
		locker: newFileLocker(path+".lock", o.lockRetryDelay),
		logger: logger,
	}
}

// Load reads the offers board
func (r *TextOfferRepository) Load(ctx context.Context) (*promotion.Board, error) {
	unlock, err := r.locker.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, promotion.ErrOffersUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open offers: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read offers: %w", err)
	}
	return promotion.NewBoard(lines), nil
}

// Append adds one offer at the end of the file, creating it if needed
func (r *TextOfferRepository) Append(ctx context.Context, text string) error {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return promotion.ErrEmptyOffer
	}

	unlock, err := r.locker.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open offers: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(text + "\n"); err != nil {
		return fmt.Errorf("failed to append offer: %w", err)
	}
	return nil
}

// Save overwrites the file with the board's lines
func (r *TextOfferRepository) Save(ctx context.Context, board *promotion.Board) error {
	unlock, err := r.locker.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	var b strings.Builder
	for _, line := range board.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(r.path, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to save offers: %w", err)
	}
	return nil
}

// Ensure TextOfferRepository implements OfferRepository
var _ promotion.OfferRepository = (*TextOfferRepository)(nil)

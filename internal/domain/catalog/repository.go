package catalog

import "context"

// ProductRepository persists the whole catalog as one unit
type ProductRepository interface {
	// Load returns every product in stored order, seeding defaults for a new shop
	Load(ctx context.Context) ([]*Product, error)

	// Save overwrites the stored catalog
	Save(ctx context.Context, products []*Product) error

	// Update loads the catalog, applies fn and saves the result while holding
	// an exclusive lock. Nothing is written when fn returns an error.
	Update(ctx context.Context, fn func(products []*Product) error) error
}

package shipping

import (
	"context"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByName finds a product by its exact name.
	// Returns shared.ErrNotFound when no such product exists.
	FindByName(ctx context.Context, name string) (*Product, error)

	// Create inserts a new product and fills in its generated ID.
	// Returns shared.ErrAlreadyExists when the name is already taken.
	Create(ctx context.Context, product *Product) error

	// Count counts all products
	Count(ctx context.Context) (int64, error)

	// DeleteAll removes every product row
	DeleteAll(ctx context.Context) error
}

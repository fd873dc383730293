package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CatalogRepository interface {
	// FindProduct returns the product with its photos and variants, or nil if it does not exist
	FindProduct(ctx context.Context, productID int64) (*domain.Product, error)

	// ListProducts returns up to limit products, newest first
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
}

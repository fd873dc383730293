package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type OrderRepository interface {
	// FindOrderByID returns the matching order, or nil if there is none
	FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
}

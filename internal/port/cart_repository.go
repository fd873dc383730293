package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CartRepository interface {
	// GetCart returns the visitor's cart, or an empty cart if none is stored
	GetCart(ctx context.Context, visitorID string) (domain.Cart, error)

	// PutCart replaces the visitor's cart; the last writer wins
	PutCart(ctx context.Context, visitorID string, cart domain.Cart) error
}

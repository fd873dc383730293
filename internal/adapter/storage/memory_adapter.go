package storage

import (
	"context"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MemoryAdapter keeps carts in process memory. Carts never expire; it is meant
// for local runs and tests.
type MemoryAdapter struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{carts: make(map[string]domain.Cart)}
}

func (m *MemoryAdapter) GetCart(ctx context.Context, visitorID string) (domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if cart, ok := m.carts[visitorID]; ok {
		return cart.Clone(), nil
	}
	return domain.NewCart(), nil
}

func (m *MemoryAdapter) PutCart(ctx context.Context, visitorID string, cart domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(cart) == 0 {
		delete(m.carts, visitorID)
		return nil
	}
	m.carts[visitorID] = cart.Clone()
	return nil
}

func (m *MemoryAdapter) Ping(ctx context.Context) error {
	return nil
}

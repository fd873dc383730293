package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// LookupResult holds at most one order.
type LookupResult struct {
	Term    string
	Orders  []domain.Order
	Outcome Outcome
}

type OrderService struct {
	orders port.OrderRepository
	logger *zap.Logger
}

func NewOrderService(orders port.OrderRepository, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{orders: orders, logger: logger}
}

// Lookup searches for a single order by identifier. An empty term yields an
// empty result without touching the repository.
func (s *OrderService) Lookup(ctx context.Context, term string) (LookupResult, error) {
	term = strings.TrimSpace(term)
	result := LookupResult{Term: term, Orders: []domain.Order{}, Outcome: OutcomeSuccess}
	if term == "" {
		return result, nil
	}

	order, err := s.orders.FindOrderByID(ctx, term)
	if err != nil {
		return LookupResult{}, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		s.logger.Info("order lookup found nothing", zap.String("term", term))
		result.Outcome = OutcomeNoResults
		return result, nil
	}

	result.Orders = append(result.Orders, *order)
	return result, nil
}

// Get returns the order or ErrOrderNotFound.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	result, err := s.Lookup(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(result.Orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return &result.Orders[0], nil
}

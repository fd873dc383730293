package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

func newTestOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: map[string]domain.Order{
		"ORD-001": {
			ID:           "ORD-001",
			CustomerName: "Budi",
			Status:       domain.OrderStatusPaid,
			Total:        102500,
			CreatedAt:    time.Now(),
		},
	}}
}

func TestLookup_Found(t *testing.T) {
	svc := NewOrderService(newTestOrderRepo(), nil)

	result, err := svc.Lookup(context.Background(), "ORD-001")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Errorf("expected success, got %s", result.Outcome)
	}
	if len(result.Orders) != 1 {
		t.Fatalf("expected exactly 1 order, got %d", len(result.Orders))
	}
	if result.Orders[0].ID != "ORD-001" {
		t.Errorf("expected ORD-001, got %s", result.Orders[0].ID)
	}
}

func TestLookup_NoResults(t *testing.T) {
	svc := NewOrderService(newTestOrderRepo(), nil)

	result, err := svc.Lookup(context.Background(), "ORD-404")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.Outcome != OutcomeNoResults {
		t.Errorf("expected no_results, got %s", result.Outcome)
	}
	if len(result.Orders) != 0 {
		t.Errorf("expected empty result, got %d orders", len(result.Orders))
	}
	if result.Term != "ORD-404" {
		t.Errorf("expected term to be echoed, got %q", result.Term)
	}
}

func TestLookup_EmptyTermSkipsRepository(t *testing.T) {
	repo := newTestOrderRepo()
	svc := NewOrderService(repo, nil)

	for _, term := range []string{"", "   "} {
		result, err := svc.Lookup(context.Background(), term)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Outcome != OutcomeSuccess || len(result.Orders) != 0 {
			t.Errorf("expected empty success for %q, got %+v", term, result)
		}
	}
	if repo.lookups != 0 {
		t.Errorf("repository should not be queried, got %d lookups", repo.lookups)
	}
}

func TestGet(t *testing.T) {
	svc := NewOrderService(newTestOrderRepo(), nil)

	order, err := svc.Get(context.Background(), "ORD-001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Total != 102500 {
		t.Errorf("expected total 102500, got %d", order.Total)
	}

	_, err = svc.Get(context.Background(), "ORD-404")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got: %v", err)
	}
	if OutcomeOf(err) != OutcomeNoResults {
		t.Errorf("expected no_results outcome, got %s", OutcomeOf(err))
	}
}

package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeSuccess},
		{ErrProductNotFound, OutcomeNotFound},
		{fmt.Errorf("add: %w", ErrInvalidVariant), OutcomeInvalidVariant},
		{ErrStockLimitReached, OutcomeStockLimitReached},
		{ErrOrderNotFound, OutcomeNoResults},
		{ErrInvalidQuantity, OutcomeInvalidInput},
		{domain.ErrMalformedItemKey, OutcomeInvalidInput},
		{errors.New("redis: connection refused"), OutcomeFailure},
	}

	for _, tt := range tests {
		if got := OutcomeOf(tt.err); got != tt.want {
			t.Errorf("OutcomeOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestOutcome_IsUserError(t *testing.T) {
	if OutcomeSuccess.IsUserError() || OutcomeFailure.IsUserError() {
		t.Error("success and failure are not user errors")
	}
	if !OutcomeStockLimitReached.IsUserError() {
		t.Error("stock limit is a user error")
	}
}

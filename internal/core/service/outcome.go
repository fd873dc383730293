package service

import (
	"errors"

	"github.com/rl1809/storefront/internal/core/domain"
)

var (
	ErrMissingVisitor    = errors.New("missing visitor id")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidVariant    = errors.New("invalid variant")
	ErrStockLimitReached = errors.New("stock limit reached")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidItemKey    = errors.New("invalid item key")
	ErrOrderNotFound     = errors.New("order not found")
)

// Outcome classifies the result of a user-facing operation so the presentation
// layer can pick a notification without inspecting errors itself.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeInvalidVariant
	OutcomeStockLimitReached
	OutcomeNoResults
	OutcomeInvalidInput
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInvalidVariant:
		return "invalid_variant"
	case OutcomeStockLimitReached:
		return "stock_limit_reached"
	case OutcomeNoResults:
		return "no_results"
	case OutcomeInvalidInput:
		return "invalid_input"
	default:
		return "failure"
	}
}

// IsUserError reports whether the outcome is recoverable by showing a message.
func (o Outcome) IsUserError() bool {
	return o != OutcomeSuccess && o != OutcomeFailure
}

func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrProductNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrInvalidVariant):
		return OutcomeInvalidVariant
	case errors.Is(err, ErrStockLimitReached):
		return OutcomeStockLimitReached
	case errors.Is(err, ErrOrderNotFound):
		return OutcomeNoResults
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidItemKey),
		errors.Is(err, domain.ErrMalformedItemKey),
		errors.Is(err, ErrInvalidRegistration),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrInvalidCredentials):
		return OutcomeInvalidInput
	default:
		return OutcomeFailure
	}
}

package service

import "github.com/rl1809/storefront/internal/core/domain"

// DefaultTax is the flat surcharge added to every cart.
const DefaultTax domain.Money = 2500

// DiscountStrategy computes the discount granted for a subtotal.
type DiscountStrategy interface {
	Discount(subtotal domain.Money) domain.Money
}

type DiscountFunc func(subtotal domain.Money) domain.Money

func (f DiscountFunc) Discount(subtotal domain.Money) domain.Money {
	return f(subtotal)
}

// NoDiscount grants nothing. It is the only strategy the storefront ships with.
var NoDiscount DiscountStrategy = DiscountFunc(func(domain.Money) domain.Money { return 0 })

type Totals struct {
	Subtotal domain.Money
	Tax      domain.Money
	Discount domain.Money
	Total    domain.Money
}

type Pricing struct {
	tax      domain.Money
	discount DiscountStrategy
}

func NewPricing(tax domain.Money, discount DiscountStrategy) Pricing {
	if discount == nil {
		discount = NoDiscount
	}
	return Pricing{tax: tax, discount: discount}
}

// Price totals the cart. The total is not clamped: a strategy that discounts
// more than subtotal plus tax produces a negative total.
func (p Pricing) Price(cart domain.Cart) Totals {
	var subtotal domain.Money
	for _, item := range cart {
		subtotal += item.LineTotal()
	}

	discount := p.discount.Discount(subtotal)

	return Totals{
		Subtotal: subtotal,
		Tax:      p.tax,
		Discount: discount,
		Total:    subtotal + p.tax - discount,
	}
}

package product

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// priceStep is the currency-subunit rounding step: discounted prices are
	// ceiled to the next multiple of 50 COP.
	priceStep = decimal.NewFromInt(50)
)

// DiscountActive reports whether the product's discount applies at the given
// instant. A discount is active only while the percentage is positive and the
// end date is set and strictly in the future.
func (p *Product) DiscountActive(now time.Time) bool {
	return p.Discount > 0 && p.DiscountEndsAt != nil && p.DiscountEndsAt.After(now)
}

// DisplayPrice computes the effective unit price at the given instant.
// It returns the price to charge and the original list price; the two are
// equal when no discount is active. With an active discount the price is
// reduced by the percentage and ceiled to the next multiple of 50.
//
// The result is time-dependent and must be recomputed at checkout, never
// cached across requests.
func (p *Product) DisplayPrice(now time.Time) (display, original decimal.Decimal) {
	if !p.DiscountActive(now) {
		return p.Price, p.Price
	}

	discounted := p.Price.Sub(p.Price.Mul(decimal.NewFromInt(int64(p.Discount))).Div(hundred))
	return ceilToStep(discounted, priceStep), p.Price
}

// ceilToStep rounds v up to the nearest multiple of step.
func ceilToStep(v, step decimal.Decimal) decimal.Decimal {
	return v.Div(step).Ceil().Mul(step)
}

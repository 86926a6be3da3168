package order

import "github.com/shopspring/decimal"

var (
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(50000)

	// ShippingFee is the flat surcharge applied below the threshold.
	ShippingFee = decimal.NewFromInt(7000)
)

// ShippingCost returns the surcharge for an order with the given item
// subtotal and payment method. In-store pickup and subtotals strictly above
// the threshold ship free; everything else pays the flat fee.
func ShippingCost(subtotal decimal.Decimal, method PaymentMethod) decimal.Decimal {
	if method == PaymentInStore || subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return ShippingFee
}

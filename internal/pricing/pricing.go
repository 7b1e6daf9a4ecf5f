// Package pricing computes cart and order amounts. Money math is done in
// decimal and converted back to float64 only at the edges.
package pricing

import (
	"storefront-service/internal/entity"

	"github.com/shopspring/decimal"
)

var (
	// FreeDeliveryThreshold is the subtotal above which delivery is free.
	FreeDeliveryThreshold = decimal.NewFromInt(50)
	// DeliveryFee applies to non-empty carts whose subtotal is at or below
	// FreeDeliveryThreshold.
	DeliveryFee = decimal.RequireFromString("1.5")
)

// Totals is the amount breakdown of a list of lines.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

// Calculate returns subtotal = sum(price * quantity), the delivery fee and
// their sum. An empty list costs nothing.
func Calculate(lines []entity.CartLine) Totals {
	subtotal := Subtotal(lines)
	fee := deliveryFee(subtotal, len(lines))
	return Totals{
		Subtotal:    money(subtotal),
		DeliveryFee: money(fee),
		Total:       money(subtotal.Add(fee)),
	}
}

// Subtotal sums price times quantity over all lines.
func Subtotal(lines []entity.CartLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal
}

func deliveryFee(subtotal decimal.Decimal, lineCount int) decimal.Decimal {
	if lineCount == 0 || subtotal.GreaterThan(FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return DeliveryFee
}

// DiscountedPrice applies a percentage discount to a list price. Percentages
// outside (0, 100] leave the price untouched.
func DiscountedPrice(price, discountPercent float64) float64 {
	if discountPercent <= 0 || discountPercent > 100 {
		return price
	}
	p := decimal.NewFromFloat(price)
	discount := decimal.NewFromFloat(discountPercent).Div(decimal.NewFromInt(100))
	return money(p.Mul(decimal.NewFromInt(1).Sub(discount)))
}

// Equal compares two amounts at cent precision.
func Equal(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

package quote

import "math"

// Calculations holds the monetary totals derived from a quote's line items
// and order-level adjustments. Every field is independently rounded to two
// decimal places.
type Calculations struct {
	Subtotal      float64 `json:"subtotal"`
	DiscountTotal float64 `json:"discount_total"`
	TaxTotal      float64 `json:"tax_total"`
	Total         float64 `json:"total"`
}

// CalculateTotals computes quote totals from line items, a flat order-level
// discount and a global tax rate (percent, applied after the discount).
//
// The order-level discount cannot drive the taxable base negative: it is
// clamped at zero. The function is pure and deterministic; it performs no
// input validation (see ValidateLineItems for that).
func CalculateTotals(items []LineItem, discountTotal, globalTaxRate float64) Calculations {
	var subtotal float64
	for _, item := range items {
		itemTotal := item.Quantity * item.UnitPrice
		itemDiscount := itemTotal * item.DiscountPercent / 100
		subtotal += itemTotal - itemDiscount
	}

	taxable := subtotal - discountTotal
	if taxable < 0 {
		taxable = 0
	}
	taxTotal := taxable * globalTaxRate / 100

	return Calculations{
		Subtotal:      round2(subtotal),
		DiscountTotal: round2(discountTotal),
		TaxTotal:      round2(taxTotal),
		Total:         round2(taxable + taxTotal),
	}
}

// round2 rounds to two decimals, half away from zero, matching currency
// display conventions.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

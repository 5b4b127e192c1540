package invoice

import "math"

// Totals is the result of running the invoice calculator over a set of lines.
type Totals struct {
	Subtotal              float64
	DiscountAmount        float64
	SubtotalAfterDiscount float64
	VATAmount             float64
	Total                 float64
}

// Round2 rounds a monetary amount to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateTotals computes invoice totals from line items and the two
// admin-configured percentages. The special discount and VAT are mutually
// exclusive: a discounted invoice carries no VAT. Every stage is rounded to
// 2 decimal places.
func CalculateTotals(items []ItemInput, vatPercent, discountPercent float64, withDiscount bool) Totals {
	var subtotal float64
	for _, it := range items {
		subtotal += float64(it.Quantity) * it.UnitPrice
	}
	subtotal = Round2(subtotal)

	var discount float64
	if withDiscount {
		discount = Round2(subtotal * discountPercent / 100)
	}

	afterDiscount := Round2(subtotal - discount)

	var vat float64
	if !withDiscount {
		vat = Round2(afterDiscount * vatPercent / 100)
	}

	return Totals{
		Subtotal:              subtotal,
		DiscountAmount:        discount,
		SubtotalAfterDiscount: afterDiscount,
		VATAmount:             vat,
		Total:                 Round2(afterDiscount + vat),
	}
}

// Balance is the invoice total minus the paid amount, floored at zero.
func Balance(total, totalPaid float64) float64 {
	return Round2(math.Max(0, total-totalPaid))
}

// StatusFor derives the invoice status. It is a pure function of its inputs:
//
//	no items            → unpaid
//	balance ≤ 0         → paid
//	total paid > 0      → partially_paid
//	otherwise           → unpaid
func StatusFor(hasItems bool, balance, totalPaid float64) Status {
	switch {
	case !hasItems:
		return StatusUnpaid
	case balance <= 0:
		return StatusPaid
	case totalPaid > 0:
		return StatusPartiallyPaid
	default:
		return StatusUnpaid
	}
}

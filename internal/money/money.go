package money

import "github.com/shopspring/decimal"

// DefaultTaxRate is used when a venue has no configured rate.
const DefaultTaxRate = 0.08

// Line is the minimal shape needed to total a set of priced lines.
type Line struct {
	Price    float64
	Quantity int
}

// Totals holds the three order-level figures, each rounded to 2 dp.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// Round2 rounds to the currency's minor unit using round-half-up.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Subtotal sums price*quantity over all lines at full precision.
// Rounding is deferred to OrderTotals.
func Subtotal(lines []Line) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	f, _ := sum.Float64()
	return f
}

// Tax computes subtotal*rate at full precision. The rate is a fraction
// (0.0825 for 8.25%) supplied by the venue.
func Tax(subtotal, rate float64) float64 {
	f, _ := decimal.NewFromFloat(subtotal).Mul(decimal.NewFromFloat(rate)).Float64()
	return f
}

// OrderTotals rounds subtotal and tax independently, then sums the rounded
// values. Summing unrounded values and rounding once can disagree by a cent
// on boundary cases, so the order of operations here must not change.
func OrderTotals(lines []Line, rate float64) Totals {
	sub := Subtotal(lines)
	tax := Tax(sub, rate)
	rsub, rtax := Round2(sub), Round2(tax)
	return Totals{
		Subtotal: rsub,
		Tax:      rtax,
		Total:    Round2(rsub + rtax),
	}
}

// ModifierTotal sums modifier price*quantity.
func ModifierTotal(mods []Line) float64 {
	return Round2(Subtotal(mods))
}

// ItemTotal is price*quantity plus the item's modifier total.
func ItemTotal(price float64, quantity int, modifierTotal float64) float64 {
	f, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Add(decimal.NewFromFloat(modifierTotal)).
		Round(2).Float64()
	return f
}

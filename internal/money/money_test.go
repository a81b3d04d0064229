package money

import "testing"

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.004, 1.00},
		{1.005, 1.01},
		{1.006, 1.01},
		{2.305, 2.31},
		{2.304999, 2.30},
		{10.555, 10.56},
		{99.999, 100.00},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSubtotal(t *testing.T) {
	if got := Subtotal(nil); got != 0 {
		t.Errorf("Subtotal(nil) = %v, want 0", got)
	}
	lines := []Line{{Price: 6.50, Quantity: 2}, {Price: 15.00, Quantity: 1}}
	if got := Subtotal(lines); got != 28.00 {
		t.Errorf("Subtotal = %v, want 28.00", got)
	}
}

func TestOrderTotalsScenario(t *testing.T) {
	// 2x 6.50 plus one 12.00 item carrying 2x 1.50 modifiers (15.00 line).
	lines := []Line{{Price: 6.50, Quantity: 2}, {Price: 15.00, Quantity: 1}}
	got := OrderTotals(lines, 0.0825)
	if got.Subtotal != 28.00 {
		t.Errorf("subtotal = %v, want 28.00", got.Subtotal)
	}
	if got.Tax != 2.31 {
		t.Errorf("tax = %v, want 2.31", got.Tax)
	}
	if got.Total != 30.31 {
		t.Errorf("total = %v, want 30.31", got.Total)
	}
}

// Rounding subtotal and tax before summing can differ by a cent from
// rounding the unrounded sum once. The engine rounds first, then sums.
func TestOrderTotalsRoundsBeforeSumming(t *testing.T) {
	// subtotal 2.004 -> 2.00, tax at 50% 1.002 -> 1.00, total 3.00.
	// Rounding the raw sum 3.006 once would give 3.01 instead.
	lines := []Line{{Price: 0.668, Quantity: 3}}
	got := OrderTotals(lines, 0.5)
	if got.Subtotal != 2.00 || got.Tax != 1.00 || got.Total != 3.00 {
		t.Errorf("got %+v, want subtotal 2.00 tax 1.00 total 3.00", got)
	}
}

func TestOrderTotalsEmpty(t *testing.T) {
	got := OrderTotals(nil, 0.0825)
	if got.Subtotal != 0 || got.Tax != 0 || got.Total != 0 {
		t.Errorf("empty order totals = %+v, want zeros", got)
	}
}

func TestModifierAndItemTotals(t *testing.T) {
	mods := []Line{{Price: 1.50, Quantity: 2}}
	modTotal := ModifierTotal(mods)
	if modTotal != 3.00 {
		t.Errorf("ModifierTotal = %v, want 3.00", modTotal)
	}
	if got := ItemTotal(12.00, 1, modTotal); got != 15.00 {
		t.Errorf("ItemTotal = %v, want 15.00", got)
	}
	if got := ItemTotal(6.50, 2, 0); got != 13.00 {
		t.Errorf("ItemTotal = %v, want 13.00", got)
	}
}

func TestTaxDefaultRate(t *testing.T) {
	if got := Round2(Tax(100, DefaultTaxRate)); got != 8.00 {
		t.Errorf("Tax(100, default) = %v, want 8.00", got)
	}
}

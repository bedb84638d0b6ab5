package core

import "github.com/shopspring/decimal"

// VarianceRow is a line item annotated with its movement between two periods.
type VarianceRow struct {
	LineItem
	Prior     decimal.Decimal
	Current   decimal.Decimal
	Diff      decimal.Decimal
	PctChange decimal.Decimal
}

// Increase reports whether the current period is above the prior one.
func (r VarianceRow) Increase() bool {
	return r.Diff.IsPositive()
}

// Decrease reports whether the current period is below the prior one.
func (r VarianceRow) Decrease() bool {
	return r.Diff.IsNegative()
}

// Transfer records a prior-period amount moved from a donor line to the
// line its note points at.
type Transfer struct {
	FromID   string
	FromArea string
	ToID     string
	ToArea   string
	Period   string
	Amount   decimal.Decimal
}

// CategoryTotal sums the requested periods for one category.
type CategoryTotal struct {
	Category string
	Amounts  map[string]decimal.Decimal
	Items    int
}

// Amount returns the category total for a period.
func (c CategoryTotal) Amount(period string) decimal.Decimal {
	if v, ok := c.Amounts[period]; ok {
		return v
	}
	return decimal.Zero
}

// Totals is the overall movement across a set of variance rows.
type Totals struct {
	Prior     decimal.Decimal
	Current   decimal.Decimal
	Diff      decimal.Decimal
	PctChange decimal.Decimal
	Items     int
}

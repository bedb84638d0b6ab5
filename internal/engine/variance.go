package engine

import (
	"budgetreview/internal/core"

	"github.com/shopspring/decimal"
)

// PctChange returns the percentage movement from prior to current.
// A zero prior yields 100 when current is positive and 0 otherwise.
func PctChange(prior, current decimal.Decimal) decimal.Decimal {
	if prior.IsZero() {
		if current.IsPositive() {
			return core.Hundred()
		}
		return decimal.Zero
	}
	return current.Sub(prior).Div(prior).Mul(core.Hundred())
}

// ComputeVariance annotates every item with its movement between two
// periods, preserving input order.
func ComputeVariance(t core.Table, prior, current string) []core.VarianceRow {
	rows := make([]core.VarianceRow, 0, len(t.Items))
	for _, item := range t.Items {
		p := item.Amount(prior)
		c := item.Amount(current)
		rows = append(rows, core.VarianceRow{
			LineItem:  item.Clone(),
			Prior:     p,
			Current:   c,
			Diff:      c.Sub(p),
			PctChange: PctChange(p, c),
		})
	}
	return rows
}

// Totals sums prior, current and diff across rows.
func Totals(rows []core.VarianceRow) core.Totals {
	tot := core.Totals{Items: len(rows)}
	for _, r := range rows {
		tot.Prior = tot.Prior.Add(r.Prior)
		tot.Current = tot.Current.Add(r.Current)
	}
	tot.Diff = tot.Current.Sub(tot.Prior)
	tot.PctChange = PctChange(tot.Prior, tot.Current)
	return tot
}

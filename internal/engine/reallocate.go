package engine

import (
	"budgetreview/internal/core"

	"github.com/shopspring/decimal"
)

// Reallocate applies note directives to one period of a derived copy.
//
// Every donor whose note resolves to another existing line contributes its
// original amount to that target and is zeroed. Contributions are computed
// from the input table in a single pass, so chains are not followed and row
// order does not matter. A donor that is also a target ends at zero plus
// whatever it received. Directives pointing at missing lines or at the donor
// itself are ignored.
func Reallocate(t core.Table, period string) (core.Table, []core.Transfer) {
	out := t.Clone()
	idx := t.Index()

	received := make([]decimal.Decimal, len(t.Items))
	donated := make([]bool, len(t.Items))
	var transfers []core.Transfer

	for i, item := range t.Items {
		d, ok := ParseDirective(item.Note)
		if !ok {
			continue
		}
		target, ok := idx[core.NormalizeID(d.TargetID)]
		if !ok || target == i {
			continue
		}
		amount := item.Amount(period)
		received[target] = received[target].Add(amount)
		donated[i] = true
		transfers = append(transfers, core.Transfer{
			FromID:   item.ID,
			FromArea: item.Area,
			ToID:     t.Items[target].ID,
			ToArea:   t.Items[target].Area,
			Period:   period,
			Amount:   amount,
		})
	}

	for i := range out.Items {
		if !donated[i] && received[i].IsZero() {
			continue
		}
		base := out.Items[i].Amount(period)
		if donated[i] {
			base = decimal.Zero
		}
		out.Items[i].Amounts[period] = base.Add(received[i])
	}
	return out, transfers
}

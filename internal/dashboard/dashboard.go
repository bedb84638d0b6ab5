// Package dashboard composes the engine operations into the page model
// rendered by the web UI, the CSV export and the CLI report.
package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"budgetreview/internal/core"
	"budgetreview/internal/engine"

	"github.com/shopspring/decimal"
)

const (
	DefaultTopN         = 3
	MaxTopN             = 20
	DefaultReserveMatch = "reserve"
)

// Params are the user-selectable inputs of one view.
type Params struct {
	Currency     string
	Category     string
	Prior        string
	Current      string
	TopN         int
	ReserveMatch string
}

// WithDefaults fills blank fields from d and clamps TopN.
func (p Params) WithDefaults(d Params) Params {
	if strings.TrimSpace(p.Currency) == "" {
		p.Currency = d.Currency
	}
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.Category = strings.TrimSpace(p.Category)
	if strings.EqualFold(p.Category, "all") {
		p.Category = ""
	}
	if p.Prior == "" {
		p.Prior = d.Prior
	}
	if p.Current == "" {
		p.Current = d.Current
	}
	if p.TopN == 0 {
		p.TopN = d.TopN
	}
	if p.TopN <= 0 {
		p.TopN = DefaultTopN
	}
	if p.TopN > MaxTopN {
		p.TopN = MaxTopN
	}
	if p.ReserveMatch == "" {
		p.ReserveMatch = d.ReserveMatch
	}
	if p.ReserveMatch == "" {
		p.ReserveMatch = DefaultReserveMatch
	}
	return p
}

// Key identifies a parameter set for memoization.
func (p Params) Key() string {
	return strings.Join([]string{
		p.Currency,
		strings.ToLower(p.Category),
		p.Prior,
		p.Current,
		strconv.Itoa(p.TopN),
		strings.ToLower(p.ReserveMatch),
	}, "\x1f")
}

// CategoryBar is one group of the prior-vs-current bar chart. Widths are
// percentages of the largest bar in the chart.
type CategoryBar struct {
	Category     string
	Prior        decimal.Decimal
	Current      decimal.Decimal
	PriorWidth   int
	CurrentWidth int
	Items        int
}

// ReserveRollup splits totals between reserve-fund lines and operating lines.
type ReserveRollup struct {
	Match     string
	Reserve   core.Totals
	Operating core.Totals
	Rows      []core.VarianceRow
}

// View is everything the dashboard renders for one Params.
type View struct {
	Params     Params
	Currencies []string
	Categories []string
	Rows       []core.VarianceRow
	Increases  []core.VarianceRow
	Decreases  []core.VarianceRow
	ByCategory []CategoryBar
	Reserve    ReserveRollup
	Totals     core.Totals
	Transfers  []core.Transfer
	// Version is the snapshot the view was built from; zero outside a Store.
	Version int64
}

// Build runs reallocation on the prior period in base currency, converts to
// the requested currency, computes variance, then filters, ranks and groups.
func Build(t core.Table, p Params, rates engine.Rates) (View, error) {
	for _, period := range []string{p.Prior, p.Current} {
		if !t.HasPeriod(period) {
			return View{}, fmt.Errorf("%w: %q", core.ErrUnknownPeriod, period)
		}
	}
	rate, err := rates.Lookup(p.Currency)
	if err != nil {
		return View{}, err
	}
	p.Currency = rate.Code

	realloc, transfers := engine.Reallocate(t, p.Prior)
	converted := engine.Scale(realloc, rate.Multiplier)
	all := engine.ComputeVariance(converted, p.Prior, p.Current)
	rows := engine.FilterByCategory(all, p.Category)

	v := View{
		Params:     p,
		Currencies: rates.Codes(),
		Categories: engine.Categories(t.Items),
		Rows:       rows,
		Increases:  signed(engine.TopN(rows, p.TopN, engine.Largest), true),
		Decreases:  signed(engine.TopN(rows, p.TopN, engine.Smallest), false),
		ByCategory: bars(engine.AggregateByCategory(engine.Items(rows), []string{p.Prior, p.Current}), p.Prior, p.Current),
		Totals:     engine.Totals(rows),
	}

	reserve := engine.FilterByCategory(all, p.ReserveMatch)
	v.Reserve = ReserveRollup{
		Match:     p.ReserveMatch,
		Reserve:   engine.Totals(reserve),
		Operating: engine.Totals(engine.FilterExcludingCategory(all, p.ReserveMatch)),
		Rows:      reserve,
	}

	for _, tr := range transfers {
		tr.Amount = tr.Amount.Mul(rate.Multiplier)
		v.Transfers = append(v.Transfers, tr)
	}
	return v, nil
}

// signed keeps only strictly increasing (or decreasing) rows so a driver
// list never shows a flat line as an increase.
func signed(rows []core.VarianceRow, increase bool) []core.VarianceRow {
	var out []core.VarianceRow
	for _, r := range rows {
		if (increase && r.Increase()) || (!increase && r.Decrease()) {
			out = append(out, r)
		}
	}
	return out
}

func bars(totals []core.CategoryTotal, prior, current string) []CategoryBar {
	peak := decimal.Zero
	for _, ct := range totals {
		peak = decimal.Max(peak, ct.Amount(prior), ct.Amount(current))
	}
	out := make([]CategoryBar, 0, len(totals))
	for _, ct := range totals {
		out = append(out, CategoryBar{
			Category:     ct.Category,
			Prior:        ct.Amount(prior),
			Current:      ct.Amount(current),
			PriorWidth:   barWidth(ct.Amount(prior), peak),
			CurrentWidth: barWidth(ct.Amount(current), peak),
			Items:        ct.Items,
		})
	}
	return out
}

func barWidth(v, peak decimal.Decimal) int {
	if !peak.IsPositive() || !v.IsPositive() {
		return 0
	}
	w := int(v.Mul(core.Hundred()).Div(peak).Round(0).IntPart())
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}

package dashboard

import (
	"errors"
	"testing"

	"budgetreview/internal/core"
	"budgetreview/internal/engine"

	"github.com/shopspring/decimal"
)

const (
	prior   = "2025 Actual Expenses"
	current = "2026 Budget"
)

func li(id, cat, area, p, c, note string) core.LineItem {
	return core.LineItem{
		ID: id, Category: cat, Area: area, Note: note,
		Amounts: map[string]decimal.Decimal{
			prior:   decimal.RequireFromString(p),
			current: decimal.RequireFromString(c),
		},
	}
}

func sample() core.Table {
	return core.Table{
		Periods: []string{prior, current},
		Items: []core.LineItem{
			li("1", "Utilities", "Water", "1000", "1200", ""),
			li("2", "Utilities", "Sewage", "500", "0", "Already in Line 1"),
			li("3", "Staff", "Payroll", "2000", "2000", ""),
			li("4", "Reserve Fund", "Roof", "100", "600", "Planned replacement"),
			li("5", "Staff", "Gardener", "800", "400", ""),
		},
	}
}

func defaults() Params {
	return Params{Currency: "MXN", Prior: prior, Current: current, TopN: DefaultTopN}
}

func TestBuildBaseCurrency(t *testing.T) {
	v, err := Build(sample(), Params{}.WithDefaults(defaults()), engine.DefaultRates())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(v.Rows) != 5 {
		t.Fatalf("rows = %d", len(v.Rows))
	}
	if !v.Rows[0].Prior.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("reallocation not applied: water prior %s", v.Rows[0].Prior)
	}
	if len(v.Transfers) != 1 || v.Transfers[0].ToArea != "Water" {
		t.Fatalf("unexpected transfers %+v", v.Transfers)
	}

	if len(v.Increases) != 1 || v.Increases[0].Area != "Roof" {
		t.Fatalf("increases = %+v", v.Increases)
	}
	if len(v.Decreases) != 2 || v.Decreases[0].Area != "Gardener" || v.Decreases[1].Area != "Water" {
		t.Fatalf("decreases = %+v", v.Decreases)
	}

	if len(v.ByCategory) != 3 || v.ByCategory[0].Category != "Utilities" {
		t.Fatalf("categories = %+v", v.ByCategory)
	}
	staff := v.ByCategory[1]
	if !staff.Prior.Equal(decimal.NewFromInt(2800)) || staff.PriorWidth != 100 {
		t.Fatalf("staff bar = %+v", staff)
	}

	if v.Reserve.Reserve.Items != 1 || !v.Reserve.Reserve.Current.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("reserve = %+v", v.Reserve.Reserve)
	}
	if v.Reserve.Operating.Items != 4 {
		t.Fatalf("operating = %+v", v.Reserve.Operating)
	}
	if len(v.Categories) != 3 || len(v.Currencies) != 3 {
		t.Fatalf("categories=%v currencies=%v", v.Categories, v.Currencies)
	}
}

func TestBuildConvertsAfterReallocation(t *testing.T) {
	p := Params{Currency: "usd"}.WithDefaults(defaults())
	v, err := Build(sample(), p, engine.DefaultRates())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if v.Params.Currency != "USD" {
		t.Fatalf("currency = %s", v.Params.Currency)
	}
	if !v.Rows[0].Prior.Equal(decimal.RequireFromString("87")) {
		t.Fatalf("water prior in USD = %s, want 87", v.Rows[0].Prior)
	}
	if !v.Transfers[0].Amount.Equal(decimal.RequireFromString("29")) {
		t.Fatalf("transfer in USD = %s, want 29", v.Transfers[0].Amount)
	}
	// Percentages do not depend on the display currency.
	if !v.Rows[0].PctChange.Equal(decimal.NewFromInt(-20)) {
		t.Fatalf("pct = %s", v.Rows[0].PctChange)
	}
}

func TestBuildCategoryFilter(t *testing.T) {
	p := Params{Category: "staff"}.WithDefaults(defaults())
	v, err := Build(sample(), p, engine.DefaultRates())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(v.Rows) != 2 || len(v.ByCategory) != 1 {
		t.Fatalf("rows=%d bars=%d", len(v.Rows), len(v.ByCategory))
	}
	if len(v.Categories) != 3 {
		t.Fatalf("category choices should stay unfiltered, got %v", v.Categories)
	}
	if v.Reserve.Reserve.Items != 1 {
		t.Fatalf("reserve rollup should ignore the category filter")
	}
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(sample(), Params{Currency: "JPY"}.WithDefaults(defaults()), engine.DefaultRates())
	var uce *engine.UnknownCurrencyError
	if !errors.As(err, &uce) {
		t.Fatalf("expected UnknownCurrencyError, got %v", err)
	}

	_, err = Build(sample(), Params{Prior: "2019"}.WithDefaults(defaults()), engine.DefaultRates())
	if !errors.Is(err, core.ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	tbl := sample()
	if _, err := Build(tbl, Params{Currency: "CAD"}.WithDefaults(defaults()), engine.DefaultRates()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !tbl.Items[0].Amount(prior).Equal(decimal.NewFromInt(1000)) || !tbl.Items[1].Amount(prior).Equal(decimal.NewFromInt(500)) {
		t.Fatalf("input table mutated")
	}
}

func TestParamsWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{
			name: "blank",
			in:   Params{},
			want: Params{Currency: "MXN", Prior: prior, Current: current, TopN: 3, ReserveMatch: "reserve"},
		},
		{
			name: "all category",
			in:   Params{Category: "All", Currency: " cad ", TopN: 99},
			want: Params{Currency: "CAD", Prior: prior, Current: current, TopN: MaxTopN, ReserveMatch: "reserve"},
		},
		{
			name: "negative n",
			in:   Params{TopN: -1, ReserveMatch: "fund"},
			want: Params{Currency: "MXN", Prior: prior, Current: current, TopN: DefaultTopN, ReserveMatch: "fund"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.WithDefaults(defaults()); got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParamsKeyDistinguishes(t *testing.T) {
	a := Params{Currency: "MXN"}.WithDefaults(defaults())
	b := Params{Currency: "USD"}.WithDefaults(defaults())
	c := Params{Currency: "MXN", Category: "Staff"}.WithDefaults(defaults())
	if a.Key() == b.Key() || a.Key() == c.Key() {
		t.Fatalf("keys collide: %q %q %q", a.Key(), b.Key(), c.Key())
	}
	if a.Key() != (Params{Currency: "mxn"}.WithDefaults(defaults())).Key() {
		t.Fatalf("equivalent params should share a key")
	}
}

func TestBarWidth(t *testing.T) {
	cases := []struct {
		v, peak string
		want    int
	}{
		{"0", "100", 0},
		{"100", "100", 100},
		{"50", "100", 50},
		{"1", "1000", 2},
		{"10", "0", 0},
	}
	for _, tc := range cases {
		got := barWidth(decimal.RequireFromString(tc.v), decimal.RequireFromString(tc.peak))
		if got != tc.want {
			t.Fatalf("barWidth(%s, %s) = %d, want %d", tc.v, tc.peak, got, tc.want)
		}
	}
}

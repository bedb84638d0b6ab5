package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"1", "1"},
		{"1.0", "1"},
		{" 01 ", "1"},
		{"12.5", "12.5"},
		{"12B", "12b"},
		{"#7", "7"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeID(tc.in); got != tc.out {
			t.Fatalf("NormalizeID(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestTableCloneIsDeep(t *testing.T) {
	orig := Table{
		Periods: []string{"2025", "2026"},
		Items: []LineItem{{
			ID:      "1",
			Amounts: map[string]decimal.Decimal{"2025": decimal.NewFromInt(10)},
		}},
	}
	cp := orig.Clone()
	cp.Items[0].Amounts["2025"] = decimal.NewFromInt(99)
	cp.Periods[0] = "changed"

	if !orig.Items[0].Amount("2025").Equal(decimal.NewFromInt(10)) {
		t.Fatalf("clone shares amount map with original")
	}
	if orig.Periods[0] != "2025" {
		t.Fatalf("clone shares periods slice with original")
	}
}

func TestTableIndexFirstWins(t *testing.T) {
	tbl := Table{Items: []LineItem{
		{ID: "1", Area: "first"},
		{ID: "1.0", Area: "dup"},
		{ID: "", Area: "blank"},
		{ID: "2", Area: "second"},
	}}
	idx := tbl.Index()
	if len(idx) != 2 {
		t.Fatalf("expected 2 keys, got %d: %v", len(idx), idx)
	}
	if idx["1"] != 0 || idx["2"] != 3 {
		t.Fatalf("unexpected index %v", idx)
	}
}

func TestAmountMissingPeriodIsZero(t *testing.T) {
	li := LineItem{}
	if !li.Amount("nope").IsZero() {
		t.Fatalf("expected zero for missing period")
	}
}

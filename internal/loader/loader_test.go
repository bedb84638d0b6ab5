package loader

import (
	"errors"
	"strings"
	"testing"

	"budgetreview/internal/core"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"$1,234.50", "1234.50"},
		{"1234.50", "1234.50"},
		{"-", "0"},
		{"", "0"},
		{"abc", "0"},
		{"  $ 12,000 ", "12000"},
		{"MXN 1,200.75", "1200.75"},
		{"1,200 MXN", "1200"},
		{"€99", "99"},
		{"—", "0"},
		{"-40", "0"},
		{"$-40", "0"},
		{"(150.00)", "0"},
		{"1.2.3", "0"},
		{"0", "0"},
		{"1e999999999", "0"},
		{"1.2E+05", "0"},
		{"$3e2", "0"},
		{"12.345,67", "0"},
		{"1,234,567.89", "1234567.89"},
	}
	for _, tc := range cases {
		got := ParseAmount(tc.in)
		want := decimal.RequireFromString(tc.out)
		if !got.Equal(want) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	header := []string{"Line", " category ", "Area", "2025 Actual Expenses", "2026 Budget", "2026 Notes"}
	records := [][]string{
		{"1", "Utilities", "Water", "$1,000.00", "$1,200.00", "Rate increase"},
		{"2", "Utilities", "Sewage", "500", "-", "Already in Line 1"},
		{"", "", "", "", "", ""},
		{"3", "Staff", "Payroll", "2,000", "2,000"},
	}
	tbl, err := Normalize(header, records, DefaultColumns())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(tbl.Items) != 3 {
		t.Fatalf("expected 3 items (blank row skipped), got %d", len(tbl.Items))
	}
	if got := strings.Join(tbl.Periods, "|"); got != "2025 Actual Expenses|2026 Budget" {
		t.Fatalf("unexpected periods %q", got)
	}

	water := tbl.Items[0]
	if !water.Amount("2025 Actual Expenses").Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("water prior = %s", water.Amount("2025 Actual Expenses"))
	}
	sewage := tbl.Items[1]
	if !sewage.Amount("2026 Budget").IsZero() {
		t.Fatalf("dash should coerce to zero, got %s", sewage.Amount("2026 Budget"))
	}
	payroll := tbl.Items[2]
	if payroll.Note != core.DefaultNote {
		t.Fatalf("ragged row note = %q, want default", payroll.Note)
	}
}

func TestNormalizeMissingNoteColumnUsesDefault(t *testing.T) {
	header := []string{"Line", "Category", "Area", "2025 Actual Expenses", "2026 Budget"}
	tbl, err := Normalize(header, [][]string{{"1", "A", "B", "1", "2"}}, DefaultColumns())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if tbl.Items[0].Note != core.DefaultNote {
		t.Fatalf("note = %q", tbl.Items[0].Note)
	}
}

func TestNormalizeMissingColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   string
	}{
		{"no area", []string{"Line", "Category", "2025 Actual Expenses", "2026 Budget"}, `"Area"`},
		{"no period", []string{"Line", "Category", "Area", "2025 Actual Expenses"}, `"2026 Budget"`},
		{"no id", []string{"Category", "Area", "2025 Actual Expenses", "2026 Budget"}, `"Line"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.header, nil, DefaultColumns())
			if !errors.Is(err, ErrMissingColumns) {
				t.Fatalf("expected ErrMissingColumns, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q should name %s", err, tt.want)
			}
		})
	}
}

func TestNormalizeRowsSkipsTitleRows(t *testing.T) {
	rows := [][]string{
		{"Oasis HOA Yearly Budget"},
		{},
		{"Line", "Category", "Area", "2025 Actual Expenses", "2026 Budget", "2026 Notes"},
		{"1", "Utilities", "Water", "10", "20", ""},
	}
	tbl, err := NormalizeRows(rows, DefaultColumns())
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	if len(tbl.Items) != 1 || tbl.Items[0].Area != "Water" {
		t.Fatalf("unexpected items %+v", tbl.Items)
	}
}

func TestNormalizeRowsErrors(t *testing.T) {
	if _, err := NormalizeRows(nil, DefaultColumns()); !errors.Is(err, ErrEmptySource) {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
	_, err := NormalizeRows([][]string{{"foo", "bar"}}, DefaultColumns())
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestDataSourceErrorWrapping(t *testing.T) {
	err := NewDataSourceError("budget.csv", ErrEmptySource)
	var dse *DataSourceError
	if !errors.As(err, &dse) {
		t.Fatalf("expected DataSourceError")
	}
	if dse.Source != "budget.csv" || !errors.Is(err, ErrEmptySource) {
		t.Fatalf("unexpected error %v", err)
	}
	if again := NewDataSourceError("other", err); again != err {
		t.Fatalf("re-wrapping should return the original error")
	}
	if got := err.Error(); got != "data source budget.csv: source has no rows" {
		t.Fatalf("Error() = %q", got)
	}
}

package engine

import (
	"slices"
	"strings"

	"budgetreview/internal/core"

	"github.com/shopspring/decimal"
)

// Direction selects which end of the diff ordering TopN returns.
type Direction int

const (
	Largest Direction = iota
	Smallest
)

// TopN returns the n rows with the largest or smallest diff. Ties keep
// input order. n larger than the input returns every row; n <= 0 none.
func TopN(rows []core.VarianceRow, n int, dir Direction) []core.VarianceRow {
	if n <= 0 || len(rows) == 0 {
		return nil
	}
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b core.VarianceRow) int {
		if dir == Smallest {
			return a.Diff.Cmp(b.Diff)
		}
		return b.Diff.Cmp(a.Diff)
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// AggregateByCategory sums the given periods per category. Categories are
// returned in the order they first appear in items.
func AggregateByCategory(items []core.LineItem, periods []string) []core.CategoryTotal {
	var out []core.CategoryTotal
	pos := make(map[string]int)
	for _, it := range items {
		i, ok := pos[it.Category]
		if !ok {
			i = len(out)
			pos[it.Category] = i
			ct := core.CategoryTotal{Category: it.Category, Amounts: make(map[string]decimal.Decimal, len(periods))}
			for _, p := range periods {
				ct.Amounts[p] = decimal.Zero
			}
			out = append(out, ct)
		}
		for _, p := range periods {
			out[i].Amounts[p] = out[i].Amounts[p].Add(it.Amount(p))
		}
		out[i].Items++
	}
	return out
}

// Items strips variance annotations back to plain line items.
func Items(rows []core.VarianceRow) []core.LineItem {
	out := make([]core.LineItem, len(rows))
	for i, r := range rows {
		out[i] = r.LineItem
	}
	return out
}

// Categories lists distinct non-blank categories in first-seen order.
func Categories(items []core.LineItem) []string {
	var out []string
	seen := make(map[string]bool)
	for _, it := range items {
		name := strings.TrimSpace(it.Category)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

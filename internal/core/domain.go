package core

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultNote replaces blank justifications at load time.
const DefaultNote = "No justification provided."

type (
	// LineItem is one budget row. Amounts maps period label to a
	// non-negative amount in the table's currency.
	LineItem struct {
		ID       string
		Category string
		Area     string
		Amounts  map[string]decimal.Decimal
		Note     string
	}

	// Table is an ordered set of line items together with the period
	// labels present in the source, in source column order.
	Table struct {
		Periods []string
		Items   []LineItem
	}
)

// ErrUnknownPeriod is returned when a requested period label is absent.
var ErrUnknownPeriod = errors.New("unknown period")

// Amount returns the amount for a period, zero when absent.
func (li LineItem) Amount(period string) decimal.Decimal {
	if v, ok := li.Amounts[period]; ok {
		return v
	}
	return decimal.Zero
}

// CategoryName satisfies the engine's category filter constraint.
func (li LineItem) CategoryName() string {
	return li.Category
}

// Key returns the canonical lookup form of the item's ID.
func (li LineItem) Key() string {
	return NormalizeID(li.ID)
}

// Clone returns a deep copy so derived tables never share amount maps.
func (li LineItem) Clone() LineItem {
	out := li
	out.Amounts = make(map[string]decimal.Decimal, len(li.Amounts))
	for k, v := range li.Amounts {
		out.Amounts[k] = v
	}
	return out
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{
		Periods: append([]string(nil), t.Periods...),
		Items:   make([]LineItem, len(t.Items)),
	}
	for i, it := range t.Items {
		out.Items[i] = it.Clone()
	}
	return out
}

// HasPeriod reports whether a period label is present in the table.
func (t Table) HasPeriod(period string) bool {
	for _, p := range t.Periods {
		if p == period {
			return true
		}
	}
	return false
}

// Index maps canonical line IDs to item positions. When an ID repeats,
// the first row wins.
func (t Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Items))
	for i, it := range t.Items {
		k := it.Key()
		if k == "" {
			continue
		}
		if _, seen := idx[k]; !seen {
			idx[k] = i
		}
	}
	return idx
}

// Total sums one period across every item.
func (t Table) Total(period string) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range t.Items {
		sum = sum.Add(it.Amount(period))
	}
	return sum
}

// NormalizeID trims and lower-cases an identifier. Purely numeric IDs are
// rewritten in their shortest form so "1.0", "01" and "1" compare equal.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.TrimPrefix(id, "#")
	if id == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(id, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return id
}

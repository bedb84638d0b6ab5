// Package loader turns raw tabular cells into a normalized budget table.
//
// Sources hand over their header and records as plain strings; Normalize
// maps the configured column roles, coerces every amount cell to a
// non-negative decimal and fills blank notes. Cell-level problems are never
// errors. Only an unreadable source or missing required columns fail.
package loader

import (
	"errors"
	"fmt"
	"strings"

	"budgetreview/internal/core"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptySource    = errors.New("source has no rows")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoHeader       = errors.New("header row not found")
)

// DataSourceError reports a structural problem with a budget source.
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("data source: %v", e.Err)
	}
	return fmt.Sprintf("data source %s: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// NewDataSourceError wraps err unless it already is a DataSourceError.
func NewDataSourceError(source string, err error) error {
	var dse *DataSourceError
	if errors.As(err, &dse) {
		return err
	}
	return &DataSourceError{Source: source, Err: err}
}

// ColumnMap names the source columns that carry each logical role.
type ColumnMap struct {
	ID       string
	Category string
	Area     string
	Note     string
	Periods  []string
}

// DefaultColumns matches the HOA comparison sheet layout.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		ID:       "Line",
		Category: "Category",
		Area:     "Area",
		Note:     "2026 Notes",
		Periods:  []string{"2025 Actual Expenses", "2026 Budget"},
	}
}

type columnIndex struct {
	id, category, area, note int
	periods                  []int
}

func headerKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (m ColumnMap) resolve(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		k := headerKey(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}

	var missing []string
	lookup := func(name string, required bool) int {
		if i, ok := pos[headerKey(name)]; ok && name != "" {
			return i
		}
		if required {
			missing = append(missing, fmt.Sprintf("%q", name))
		}
		return -1
	}

	idx := columnIndex{
		id:       lookup(m.ID, true),
		category: lookup(m.Category, true),
		area:     lookup(m.Area, true),
		note:     lookup(m.Note, false),
	}
	if len(m.Periods) == 0 {
		missing = append(missing, "<period columns>")
	}
	for _, p := range m.Periods {
		idx.periods = append(idx.periods, lookup(p, true))
	}

	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Normalize builds a table from a header and its data records.
func Normalize(header []string, records [][]string, cols ColumnMap) (core.Table, error) {
	if len(header) == 0 {
		return core.Table{}, ErrEmptySource
	}
	idx, err := cols.resolve(header)
	if err != nil {
		return core.Table{}, err
	}

	t := core.Table{Periods: append([]string(nil), cols.Periods...)}
	for _, rec := range records {
		id := cell(rec, idx.id)
		category := cell(rec, idx.category)
		area := cell(rec, idx.area)
		if id == "" && category == "" && area == "" {
			continue
		}

		item := core.LineItem{
			ID:       id,
			Category: category,
			Area:     area,
			Note:     cell(rec, idx.note),
			Amounts:  make(map[string]decimal.Decimal, len(cols.Periods)),
		}
		if item.Note == "" {
			item.Note = core.DefaultNote
		}
		for pi, p := range cols.Periods {
			item.Amounts[p] = ParseAmount(cell(rec, idx.periods[pi]))
		}
		t.Items = append(t.Items, item)
	}
	return t, nil
}

// NormalizeRows is Normalize for sources that return the header among the
// rows. Leading rows before the one holding the ID column header (sheet
// titles, blank rows) are skipped.
func NormalizeRows(rows [][]string, cols ColumnMap) (core.Table, error) {
	if len(rows) == 0 {
		return core.Table{}, ErrEmptySource
	}
	want := headerKey(cols.ID)
	for i, row := range rows {
		for _, c := range row {
			if headerKey(strings.TrimPrefix(c, "\ufeff")) == want {
				return Normalize(row, rows[i+1:], cols)
			}
		}
	}
	// Fall back to the first row so the missing-column message is specific.
	if _, err := cols.resolve(rows[0]); err != nil {
		return core.Table{}, err
	}
	return core.Table{}, ErrNoHeader
}

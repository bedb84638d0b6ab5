// Package memory holds a budget table in process. It backs local
// development and tests, and accepts imports like a persistent store would.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"budgetreview/internal/core"
	"budgetreview/internal/loader"
	"budgetreview/internal/source"
	"budgetreview/internal/source/csvfile"

	"github.com/shopspring/decimal"
)

var (
	_ source.Reader = (*Store)(nil)
	_ source.Writer = (*Store)(nil)
)

// SeedFile is the file NewFromFiles looks for in its base directory.
const SeedFile = "budget.csv"

type Store struct {
	mu      sync.RWMutex
	table   core.Table
	version int64
	source  string
}

func New(t core.Table) *Store {
	return &Store{table: t.Clone(), source: "memory"}
}

// NewFromFiles seeds the store from base/budget.csv, falling back to
// Sample when the file is missing or unreadable.
func NewFromFiles(base string, cols loader.ColumnMap) *Store {
	path := filepath.Join(base, SeedFile)
	f, err := os.Open(path)
	if err != nil {
		return New(Sample())
	}
	defer f.Close()
	t, err := csvfile.Parse(f, cols)
	if err != nil {
		return New(Sample())
	}
	s := New(t)
	s.source = path
	return s
}

func (s *Store) Describe() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return "memory:" + s.source
}

func (s *Store) ReadTable(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone(), nil
}

// ReplaceTable swaps the held table and returns the new version.
func (s *Store) ReplaceTable(ctx context.Context, t core.Table, sourceName string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t.Clone()
	s.version++
	if sourceName != "" {
		s.source = sourceName
	}
	return s.version, nil
}

// Set replaces the table without bumping the import version.
func (s *Store) Set(t core.Table) {
	s.mu.Lock()
	s.table = t.Clone()
	s.mu.Unlock()
}

// Sample is a small HOA comparison used when no seed file is provided.
func Sample() core.Table {
	prior, current := "2025 Actual Expenses", "2026 Budget"
	item := func(id, cat, area string, p, c int64, note string) core.LineItem {
		if note == "" {
			note = core.DefaultNote
		}
		return core.LineItem{
			ID: id, Category: cat, Area: area, Note: note,
			Amounts: map[string]decimal.Decimal{
				prior:   decimal.NewFromInt(p),
				current: decimal.NewFromInt(c),
			},
		}
	}
	return core.Table{
		Periods: []string{prior, current},
		Items: []core.LineItem{
			item("1", "Utilities", "Water", 1500, 1200, "Leak repaired in tower B"),
			item("2", "Utilities", "Electricity", 42000, 51000, "CFE tariff increase"),
			item("3", "Utilities", "Gas", 8000, 0, "Already in line 2"),
			item("4", "Staff", "Security", 96000, 104000, "Night shift added"),
			item("5", "Staff", "Gardening", 36000, 36000, ""),
			item("6", "Maintenance", "Pool", 18000, 27500, "Pump replacement"),
			item("7", "Maintenance", "Elevators", 22000, 24000, "Service contract renewal"),
			item("8", "Administration", "Accounting", 12000, 12600, ""),
			item("9", "Reserve", "Reserve Fund", 60000, 75000, "Roof reserve per study"),
			item("10", "Reserve", "Emergency Reserve", 15000, 15000, ""),
		},
	}
}

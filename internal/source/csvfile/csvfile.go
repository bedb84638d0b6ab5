// Package csvfile reads a budget comparison exported as CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"budgetreview/internal/core"
	"budgetreview/internal/loader"
	"budgetreview/internal/source"
)

var _ source.Reader = (*Reader)(nil)

// Reader loads a table from a CSV file on every ReadTable call.
type Reader struct {
	Path    string
	Columns loader.ColumnMap
}

// New creates a reader for path using the given column mapping.
func New(path string, cols loader.ColumnMap) *Reader {
	return &Reader{Path: path, Columns: cols}
}

func (r *Reader) Describe() string { return r.Path }

// ReadTable opens and parses the file.
func (r *Reader) ReadTable(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	f, err := os.Open(r.Path)
	if err != nil {
		return core.Table{}, loader.NewDataSourceError(r.Path, fmt.Errorf("open: %w", err))
	}
	defer f.Close()

	t, err := Parse(f, r.Columns)
	if err != nil {
		return core.Table{}, loader.NewDataSourceError(r.Path, err)
	}
	return t, nil
}

// Parse reads CSV records from rd and normalizes them. Rows may be ragged;
// quotes are handled leniently because spreadsheet exports often contain
// stray quote characters inside notes.
func Parse(rd io.Reader, cols loader.ColumnMap) (core.Table, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return core.Table{}, fmt.Errorf("parse csv: %w", err)
	}
	return loader.NormalizeRows(rows, cols)
}

// Package report renders a dashboard view outside the browser: the CSV
// export, the terminal report and the HTML form of line-item notes.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"budgetreview/internal/core"
	"budgetreview/internal/dashboard"
)

// DefaultExportName is used when no export name is configured.
const DefaultExportName = "budget"

var slugUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns the download name of the export, "<slug>_Summary.csv".
func FileName(exportName string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.TrimSpace(exportName), "_"), "_.")
	if slug == "" {
		slug = DefaultExportName
	}
	return slug + "_Summary.csv"
}

// Header returns the export column names for a view. Period columns carry
// the period label only.
func Header(v dashboard.View) []string {
	return []string{"Line", "Category", "Item", v.Params.Prior, v.Params.Current, "Diff", "% Change", "Justification"}
}

// Record formats one variance row as an export record.
func Record(r core.VarianceRow) []string {
	return []string{
		r.ID,
		r.Category,
		r.Area,
		r.Prior.StringFixed(2),
		r.Current.StringFixed(2),
		r.Diff.StringFixed(2),
		r.PctChange.StringFixed(2),
		r.Note,
	}
}

// WriteCSV writes the header and every row of v in display order.
func WriteCSV(w io.Writer, v dashboard.View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(v)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range v.Rows {
		if err := cw.Write(Record(r)); err != nil {
			return fmt.Errorf("write line %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

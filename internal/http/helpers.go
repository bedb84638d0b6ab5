package http

import (
	"html/template"
	"strings"

	"budgetreview/internal/core"
	"budgetreview/internal/report"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// toneClass is the CSS class of a variance row: increases are highlighted.
func toneClass(r core.VarianceRow) string {
	switch {
	case r.Increase():
		return "increase"
	case r.Decrease():
		return "decrease"
	}
	return ""
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":  core.FormatMoney,
		"amount": core.FormatAmount,
		"pct":    core.FormatPercent,
		"note":   report.NoteHTML,
		"tone":   toneClass,
		"same":   strings.EqualFold,
	}
}

package report

import (
	"fmt"
	"io"
	"strings"

	"budgetreview/internal/core"
	"budgetreview/internal/dashboard"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle    = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorTextMuted)
	increaseStyle = lipgloss.NewStyle().Foreground(ColorRed)
	decreaseStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	dimStyle      = lipgloss.NewStyle().Foreground(ColorTextDim)
)

// Tone marks a table row for highlighting.
type Tone int

const (
	ToneNone Tone = iota
	ToneIncrease
	ToneDecrease
)

// Table is a bordered text table. Tones is optional and indexed like Rows.
// The first LeftCols columns (at least one) are left-aligned.
type Table struct {
	Title    string
	Headers  []string
	Rows     [][]string
	Tones    []Tone
	LeftCols int
}

// maxNoteWidth truncates justifications in the itemized table.
const maxNoteWidth = 48

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title, subtitle string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(60).
		Align(lipgloss.Center).
		Padding(0, 1)

	body := titleStyle.Render(title)
	if subtitle != "" {
		body += "\n" + mutedStyle.Render(subtitle)
	}
	return border.Render(body)
}

// RenderTable renders t with box-drawing borders. A Justification column is
// left-aligned wherever it sits.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + pad(h, widths[i], t.leftAligned(i)) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for r, row := range t.Rows {
		style := valueStyle
		if r < len(t.Tones) {
			switch t.Tones[r] {
			case ToneIncrease:
				style = increaseStyle
			case ToneDecrease:
				style = decreaseStyle
			}
		}
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(style.Render(" " + pad(cell, widths[i], t.leftAligned(i)) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}
	rule("╰", "┴", "╯")
	return b.String()
}

func (t Table) leftAligned(i int) bool {
	if i < max(t.LeftCols, 1) {
		return true
	}
	return i < len(t.Headers) && t.Headers[i] == "Justification"
}

func pad(s string, w int, left bool) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if left {
		return s + strings.Repeat(" ", gap)
	}
	return strings.Repeat(" ", gap) + s
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	return string(r[:w-1]) + "…"
}

// Render writes the full terminal report for v: totals, top drivers in
// both directions, category totals and the itemized table.
func Render(w io.Writer, v dashboard.View, title, subtitle string) error {
	p := v.Params
	var b strings.Builder

	b.WriteString(RenderTitle(title, subtitle))
	b.WriteString("\n\n")

	scope := "All categories"
	if p.Category != "" {
		scope = "Category: " + p.Category
	}
	fmt.Fprintf(&b, "  %s  %s\n", mutedStyle.Render(scope), mutedStyle.Render("Currency: "+p.Currency))
	fmt.Fprintf(&b, "  %s %s  %s %s  %s %s\n\n",
		headerStyle.Render(p.Prior+":"), valueStyle.Render(core.FormatMoney(v.Totals.Prior, p.Currency)),
		headerStyle.Render(p.Current+":"), valueStyle.Render(core.FormatMoney(v.Totals.Current, p.Currency)),
		headerStyle.Render("Change:"), toneStyle(v.Totals.Diff.Sign()).Render(
			core.FormatMoney(v.Totals.Diff, p.Currency)+" ("+core.FormatPercent(v.Totals.PctChange)+")"))

	b.WriteString(RenderTable(driverTable(fmt.Sprintf("Top %d increases", p.TopN), v.Increases, p.Currency, ToneIncrease)))
	b.WriteString("\n")
	b.WriteString(RenderTable(driverTable(fmt.Sprintf("Top %d decreases", p.TopN), v.Decreases, p.Currency, ToneDecrease)))
	b.WriteString("\n")

	cats := Table{
		Title:   "By category",
		Headers: []string{"Category", "Lines", p.Prior, p.Current},
	}
	for _, c := range v.ByCategory {
		cats.Rows = append(cats.Rows, []string{c.Category, fmt.Sprint(c.Items), core.FormatAmount(c.Prior), core.FormatAmount(c.Current)})
		cats.Tones = append(cats.Tones, toneOf(c.Current.Cmp(c.Prior)))
	}
	b.WriteString(RenderTable(cats))
	b.WriteString("\n")

	items := Table{
		Title:    "Itemized",
		LeftCols: 3,
		Headers:  []string{"Line", "Category", "Item", p.Prior, p.Current, "Diff", "% Change", "Justification"},
	}
	for _, r := range v.Rows {
		items.Rows = append(items.Rows, []string{
			r.ID, r.Category, r.Area,
			core.FormatAmount(r.Prior), core.FormatAmount(r.Current), core.FormatAmount(r.Diff),
			core.FormatPercent(r.PctChange), truncate(r.Note, maxNoteWidth),
		})
		items.Tones = append(items.Tones, toneOf(r.Diff.Sign()))
	}
	b.WriteString(RenderTable(items))

	if len(v.Transfers) > 0 {
		b.WriteString("\n")
		tr := Table{Title: "Reallocated from " + p.Prior, LeftCols: 2, Headers: []string{"From", "To", "Amount"}}
		for _, t := range v.Transfers {
			tr.Rows = append(tr.Rows, []string{t.FromID + " " + t.FromArea, t.ToID + " " + t.ToArea, core.FormatAmount(t.Amount)})
		}
		b.WriteString(RenderTable(tr))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func driverTable(title string, rows []core.VarianceRow, currency string, tone Tone) Table {
	t := Table{Title: title, LeftCols: 3, Headers: []string{"Line", "Category", "Item", "Diff " + currency, "% Change"}}
	if len(rows) == 0 {
		t.Rows = [][]string{{"-", "none", "", "", ""}}
		return t
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.ID, r.Category, r.Area, core.FormatAmount(r.Diff), core.FormatPercent(r.PctChange)})
		t.Tones = append(t.Tones, tone)
	}
	return t
}

func toneOf(sign int) Tone {
	switch {
	case sign > 0:
		return ToneIncrease
	case sign < 0:
		return ToneDecrease
	}
	return ToneNone
}

func toneStyle(sign int) lipgloss.Style {
	switch toneOf(sign) {
	case ToneIncrease:
		return increaseStyle
	case ToneDecrease:
		return decreaseStyle
	}
	return valueStyle
}

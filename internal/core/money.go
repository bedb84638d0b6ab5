// Package core provides the budget domain types and money formatting.
//
// This file contains helpers for presenting decimal amounts and percentage
// changes consistently across the web dashboard, the CSV export and the CLI.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"MXN": "$",
	"USD": "$",
	"CAD": "$",
	"EUR": "€",
	"GBP": "£",
}

var hundred = decimal.NewFromInt(100)

// Hundred is the percentage scale factor.
func Hundred() decimal.Decimal {
	return hundred
}

// FormatAmount renders an amount with two decimals and comma thousands
// separators (e.g. 1234.5 -> "1,234.50").
func FormatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() && !d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatMoney prefixes FormatAmount with the currency symbol and suffixes
// the code, e.g. "$1,234.50 MXN". Unknown codes get no symbol.
func FormatMoney(d decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	amount := FormatAmount(d)
	sym := currencySymbols[code]
	if strings.HasPrefix(amount, "-") {
		amount = "-" + sym + amount[1:]
	} else {
		amount = sym + amount
	}
	if code == "" {
		return amount
	}
	return amount + " " + code
}

// FormatPercent renders a percentage change with one decimal and an explicit
// sign for increases (e.g. "+20.0%", "-12.5%", "0.0%").
func FormatPercent(d decimal.Decimal) string {
	r := d.Round(1)
	s := r.StringFixed(1)
	if r.IsPositive() {
		s = "+" + s
	}
	return s + "%"
}

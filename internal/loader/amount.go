package loader

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a spreadsheet amount cell to a non-negative decimal.
//
// Currency symbols, ISO code prefixes or suffixes, thousands separators and
// whitespace are stripped. Blank cells, lone dashes, unparseable text and
// negative values (including accounting parentheses) all yield zero. So do
// exponent forms and commas after the decimal point, since neither is a
// plain decimal cell.
//
// Examples:
//
//	ParseAmount("$1,234.50")    -> 1234.50
//	ParseAmount("MXN 12,000")   -> 12000
//	ParseAmount("-")            -> 0
//	ParseAmount("(150.00)")     -> 0
//	ParseAmount("n/a")          -> 0
//	ParseAmount("1.2E+05")      -> 0
//	ParseAmount("12.345,67")    -> 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "–", "—", "--":
		return decimal.Zero
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return decimal.Zero
	}
	if dot := strings.IndexByte(s, '.'); dot >= 0 && strings.IndexByte(s[dot:], ',') >= 0 {
		return decimal.Zero
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == ',' || r == '_' || unicode.IsSpace(r):
			return -1
		case unicode.Is(unicode.Sc, r):
			return -1
		}
		return r
	}, s)
	s = strings.TrimFunc(s, unicode.IsLetter)
	if s == "" || s == "-" || strings.ContainsAny(s, "eE") {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

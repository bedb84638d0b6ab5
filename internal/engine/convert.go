package engine

import (
	"fmt"
	"strings"

	"budgetreview/internal/core"

	"github.com/shopspring/decimal"
)

// UnknownCurrencyError is returned when a conversion names a code that has
// no configured rate.
type UnknownCurrencyError struct {
	Code string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// Rate is one display currency and its multiplier against the base.
type Rate struct {
	Code       string
	Multiplier decimal.Decimal
}

// Rates is an ordered set of display currencies. The first entry is the
// base currency.
type Rates []Rate

// DefaultRates are the HOA presentation estimates against MXN.
func DefaultRates() Rates {
	return Rates{
		{Code: "MXN", Multiplier: decimal.NewFromInt(1)},
		{Code: "USD", Multiplier: decimal.RequireFromString("0.058")},
		{Code: "CAD", Multiplier: decimal.RequireFromString("0.079")},
	}
}

// Lookup finds a rate by code, case-insensitively.
func (rs Rates) Lookup(code string) (Rate, error) {
	want := strings.ToUpper(strings.TrimSpace(code))
	for _, r := range rs {
		if strings.ToUpper(r.Code) == want {
			return r, nil
		}
	}
	return Rate{}, &UnknownCurrencyError{Code: code}
}

// Base returns the first configured currency code.
func (rs Rates) Base() string {
	if len(rs) == 0 {
		return ""
	}
	return rs[0].Code
}

// Codes lists currency codes in configured order.
func (rs Rates) Codes() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Code
	}
	return out
}

// Scale multiplies every amount in a derived copy by rate.
func Scale(t core.Table, rate decimal.Decimal) core.Table {
	out := t.Clone()
	for i := range out.Items {
		for p, v := range out.Items[i].Amounts {
			out.Items[i].Amounts[p] = v.Mul(rate)
		}
	}
	return out
}

// Convert scales a table into the named display currency.
func Convert(t core.Table, rates Rates, code string) (core.Table, error) {
	r, err := rates.Lookup(code)
	if err != nil {
		return core.Table{}, err
	}
	return Scale(t, r.Multiplier), nil
}

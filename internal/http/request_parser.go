// This file parses dashboard parameters from query strings and forms.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"budgetreview/internal/dashboard"
)

// Query parameter names shared by the page, the partials and the export.
const (
	ParamCurrency = "currency"
	ParamCategory = "category"
	ParamTopN     = "n"
	ParamPrior    = "prior"
	ParamCurrent  = "current"
)

// maxParamLen bounds free-text parameters such as the category filter.
const maxParamLen = 128

// ParseViewParams extracts dashboard parameters. Missing or malformed
// values are left zero so Params.WithDefaults fills them.
func ParseViewParams(query url.Values) dashboard.Params {
	p := dashboard.Params{
		Currency: param(query, ParamCurrency),
		Category: param(query, ParamCategory),
		Prior:    param(query, ParamPrior),
		Current:  param(query, ParamCurrent),
	}
	if v := param(query, ParamTopN); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.TopN = n
		}
	}
	return p
}

// EncodeViewParams is the inverse of ParseViewParams for resolved params.
func EncodeViewParams(p dashboard.Params) url.Values {
	q := url.Values{}
	q.Set(ParamCurrency, p.Currency)
	if p.Category != "" {
		q.Set(ParamCategory, p.Category)
	}
	q.Set(ParamTopN, strconv.Itoa(p.TopN))
	q.Set(ParamPrior, p.Prior)
	q.Set(ParamCurrent, p.Current)
	return q
}

func param(query url.Values, key string) string {
	v := sanitizeInput(query.Get(key))
	return strings.TrimSpace(truncate(v, maxParamLen))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

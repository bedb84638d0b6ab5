package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"budgetreview/internal/core"
	"budgetreview/internal/dashboard"
	applog "budgetreview/internal/log"
	"budgetreview/internal/middleware/trace"
	"budgetreview/internal/report"

	"github.com/shopspring/decimal"
)

// handleExport downloads the itemized variance table for the current filters.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(r.Context(), ParseViewParams(r.URL.Query()))
	if err != nil {
		status, msg := statusFor(err)
		s.structured.LogError(r.Context(), "Export failed", err, applog.ComponentReport, applog.OpExport,
			applog.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		http.Error(w, msg, status)
		return
	}

	name := report.FileName(s.opts.ExportName)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := report.WriteCSV(w, v); err != nil {
		s.structured.LogError(r.Context(), "Export write failed", err, applog.ComponentReport, applog.OpExport, nil)
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)
}

type rowDTO struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Area      string          `json:"area"`
	Note      string          `json:"note"`
	Prior     decimal.Decimal `json:"prior"`
	Current   decimal.Decimal `json:"current"`
	Diff      decimal.Decimal `json:"diff"`
	PctChange decimal.Decimal `json:"pct_change"`
}

type totalsDTO struct {
	Prior     decimal.Decimal `json:"prior"`
	Current   decimal.Decimal `json:"current"`
	Diff      decimal.Decimal `json:"diff"`
	PctChange decimal.Decimal `json:"pct_change"`
	Items     int             `json:"items"`
}

type categoryDTO struct {
	Category string          `json:"category"`
	Prior    decimal.Decimal `json:"prior"`
	Current  decimal.Decimal `json:"current"`
	Items    int             `json:"items"`
}

type transferDTO struct {
	FromID   string          `json:"from_id"`
	FromArea string          `json:"from_area"`
	ToID     string          `json:"to_id"`
	ToArea   string          `json:"to_area"`
	Period   string          `json:"period"`
	Amount   decimal.Decimal `json:"amount"`
}

type viewDTO struct {
	Currency   string        `json:"currency"`
	Category   string        `json:"category,omitempty"`
	Prior      string        `json:"prior"`
	Current    string        `json:"current"`
	TopN       int           `json:"top_n"`
	Version    int64         `json:"version"`
	Currencies []string      `json:"currencies"`
	Categories []string      `json:"categories"`
	Totals     totalsDTO     `json:"totals"`
	Reserve    totalsDTO     `json:"reserve"`
	Operating  totalsDTO     `json:"operating"`
	Increases  []rowDTO      `json:"increases"`
	Decreases  []rowDTO      `json:"decreases"`
	ByCategory []categoryDTO `json:"by_category"`
	Rows       []rowDTO      `json:"rows"`
	Transfers  []transferDTO `json:"transfers"`
}

func toRows(rows []core.VarianceRow) []rowDTO {
	out := make([]rowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowDTO{
			ID:        r.ID,
			Category:  r.Category,
			Area:      r.Area,
			Note:      r.Note,
			Prior:     r.Prior,
			Current:   r.Current,
			Diff:      r.Diff,
			PctChange: r.PctChange,
		})
	}
	return out
}

func toTotals(t core.Totals) totalsDTO {
	return totalsDTO{Prior: t.Prior, Current: t.Current, Diff: t.Diff, PctChange: t.PctChange, Items: t.Items}
}

func newViewDTO(v dashboard.View) viewDTO {
	dto := viewDTO{
		Currency:   v.Params.Currency,
		Category:   v.Params.Category,
		Prior:      v.Params.Prior,
		Current:    v.Params.Current,
		TopN:       v.Params.TopN,
		Version:    v.Version,
		Currencies: v.Currencies,
		Categories: v.Categories,
		Totals:     toTotals(v.Totals),
		Reserve:    toTotals(v.Reserve.Reserve),
		Operating:  toTotals(v.Reserve.Operating),
		Increases:  toRows(v.Increases),
		Decreases:  toRows(v.Decreases),
		Rows:       toRows(v.Rows),
		ByCategory: make([]categoryDTO, 0, len(v.ByCategory)),
		Transfers:  make([]transferDTO, 0, len(v.Transfers)),
	}
	for _, c := range v.ByCategory {
		dto.ByCategory = append(dto.ByCategory, categoryDTO{Category: c.Category, Prior: c.Prior, Current: c.Current, Items: c.Items})
	}
	for _, t := range v.Transfers {
		dto.Transfers = append(dto.Transfers, transferDTO(t))
	}
	return dto
}

// handleAPIView returns the same view as the dashboard as JSON.
func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(r.Context(), ParseViewParams(r.URL.Query()))
	if err != nil {
		status, msg := statusFor(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(newViewDTO(v))
}

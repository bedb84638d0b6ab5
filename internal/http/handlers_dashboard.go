package http

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"budgetreview/internal/core"
	"budgetreview/internal/dashboard"
	"budgetreview/internal/engine"
	"budgetreview/internal/loader"
	applog "budgetreview/internal/log"
	"budgetreview/internal/middleware/trace"
)

const viewTimeout = 15 * time.Second

// view resolves the dashboard for p. An unknown currency falls back to the
// default display currency instead of failing the request.
func (s *Server) view(ctx context.Context, p dashboard.Params) (dashboard.View, error) {
	ctx, cancel := context.WithTimeout(ctx, viewTimeout)
	defer cancel()

	v, err := s.data.View(ctx, p)
	var cur *engine.UnknownCurrencyError
	if errors.As(err, &cur) {
		applog.FromContext(ctx).WarnContext(ctx, "Unknown currency requested, using default",
			applog.FieldCurrency, cur.Code,
			"error_type", applog.ErrorTypeCurrency)
		p.Currency = ""
		v, err = s.data.View(ctx, p)
	}
	if err != nil {
		return dashboard.View{}, err
	}

	atomic.AddInt64(&s.appMetrics.views, 1)
	s.structured.LogViewBuilt(ctx, v.Params.Currency, v.Params.Category, v.Params.Prior, v.Params.Current, len(v.Rows), len(v.Transfers))
	return v, nil
}

// statusFor maps a view error to its HTTP status and user-facing message.
// A data source failure halts the page: nothing else is computed or shown.
func statusFor(err error) (int, string) {
	var dse *loader.DataSourceError
	switch {
	case errors.As(err, &dse):
		return http.StatusServiceUnavailable, dse.Error()
	case errors.Is(err, core.ErrUnknownPeriod):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "The budget source is taking too long to respond."
	default:
		return http.StatusInternalServerError, "The dashboard could not be computed."
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, partial bool) {
	status, msg := statusFor(err)
	fields := applog.NewFields().WithRequestID(trace.GetRequestID(r.Context()))
	if status == http.StatusServiceUnavailable {
		atomic.AddInt64(&s.appMetrics.dataErrors, 1)
		fields["error_type"] = applog.ErrorTypeDataSource
	}
	s.structured.LogError(r.Context(), "Dashboard view failed", err, applog.ComponentHTTP, applog.OpBuild, fields)

	if partial {
		ErrorResponse(status, msg).Write(w)
		return
	}
	data := pageData{Title: s.opts.Title, Subtitle: s.opts.Subtitle, Error: msg, GateEnabled: s.gate.Enabled()}
	s.render(w, r, status, "error_page", data)
}

// handleIndex renders the full dashboard page with every panel inline so
// it also works without JavaScript.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(r.Context(), ParseViewParams(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err, false)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard_page", s.page(v))
}

// partial serves one dashboard panel for HTMX swaps.
func (s *Server) partial(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.view(r.Context(), ParseViewParams(r.URL.Query()))
		if err != nil {
			s.fail(w, r, err, true)
			return
		}
		s.render(w, r, http.StatusOK, name, s.page(v))
	}
}

// handleReload drops the cached snapshot and loads the source again.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	s.data.Invalidate("manual reload")
	snap, err := s.data.Snapshot(ctx)
	if err != nil {
		status, msg := statusFor(err)
		s.structured.LogError(ctx, "Manual reload failed", err, applog.ComponentDataset, applog.OpLoad, nil)
		NewHTMXResponse().
			Status(status).
			TriggerErrorNotification(msg).
			Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.reloads, 1)
	applog.FromContext(ctx).InfoContext(ctx, "Budget reloaded",
		applog.NewFields().WithSnapshot(snap.Source, snap.Version, len(snap.Table.Items)).ToSlice()...)
	NewHTMXResponse().
		TriggerDatasetReloaded(snap.Version).
		TriggerSuccessNotification("Budget reloaded").
		Status(http.StatusNoContent).
		Write(w)
}

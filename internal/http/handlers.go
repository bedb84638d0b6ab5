package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports ready once templates are parsed and the budget source
// yields a snapshot.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	snap, err := s.data.Snapshot(ctx)
	if err != nil {
		checks["dataset"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["dataset"] = map[string]interface{}{
			"status":  "ok",
			"source":  snap.Source,
			"version": snap.Version,
			"items":   len(snap.Table.Items),
			"periods": snap.Table.Periods,
		}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.loginLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	limitMetrics := s.loginLimiter.GetMetrics()
	stats := s.data.Stats()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_server_errors_total", "Total number of 5xx responses", traceMetrics.ServerErrors)
	gauge("http_response_time_avg_microseconds", "Average response time", traceMetrics.AverageResponseTime)

	gauge("dataset_version", "Current budget snapshot version", stats.Version)
	gauge("dataset_items", "Line items in the current snapshot", int64(stats.Items))
	counter("dataset_loads_total", "Successful budget source loads", stats.Loads)
	counter("dataset_load_failures_total", "Failed budget source loads", stats.Failed)
	counter("dataset_errors_total", "Requests halted by a data source error", atomic.LoadInt64(&s.appMetrics.dataErrors))
	counter("dataset_reloads_total", "Manual reloads", atomic.LoadInt64(&s.appMetrics.reloads))

	counter("views_total", "Dashboard views served", atomic.LoadInt64(&s.appMetrics.views))
	counter("exports_total", "CSV exports served", atomic.LoadInt64(&s.appMetrics.exports))

	fmt.Fprintf(w, "# HELP view_cache_requests_total View cache lookups\n")
	fmt.Fprintf(w, "# TYPE view_cache_requests_total counter\n")
	fmt.Fprintf(w, "view_cache_requests_total{result=\"hit\"} %d\n", stats.Views.Hits)
	fmt.Fprintf(w, "view_cache_requests_total{result=\"miss\"} %d\n\n", stats.Views.Misses)
	gauge("view_cache_entries", "Current view cache entries", int64(stats.Views.Size))

	counter("logins_total", "Successful dashboard logins", atomic.LoadInt64(&s.appMetrics.logins))
	counter("login_failures_total", "Rejected dashboard passwords", atomic.LoadInt64(&s.appMetrics.loginFailures))
	counter("rate_limit_rejected_total", "Login attempts rejected by the rate limiter", limitMetrics.Rejected)
	gauge("active_rate_limit_clients", "Currently tracked rate limit clients", limitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

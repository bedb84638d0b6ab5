package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"budgetreview/internal/dashboard"
	"budgetreview/internal/dataset"
	"budgetreview/internal/gate"
	applog "budgetreview/internal/log"
	"budgetreview/internal/middleware/ratelimit"
	"budgetreview/internal/middleware/security"
	"budgetreview/internal/middleware/trace"
	appweb "budgetreview/web"
)

// Dataset is what the dashboard needs from the snapshot store.
type Dataset interface {
	Snapshot(ctx context.Context) (dataset.Snapshot, error)
	View(ctx context.Context, p dashboard.Params) (dashboard.View, error)
	Invalidate(reason string) int64
	Stats() dataset.Stats
	Source() string
}

// Options configures NewServer. Zero values fall back to the embedded
// templates, default headers and a disabled gate.
type Options struct {
	Title      string
	Subtitle   string
	ExportName string

	Logger      *applog.Logger
	Gate        *gate.Gate
	LoginLimit  ratelimit.Config
	Headers     *security.HeadersConfig
	TemplatesFS fs.FS
	StaticFS    fs.FS
}

type Server struct {
	http.Server
	templates *template.Template
	data      Dataset
	gate      *gate.Gate
	opts      Options

	logger          *applog.Logger
	structured      *applog.StructuredLogger
	traceMiddleware *trace.Middleware
	loginLimiter    *ratelimit.Limiter

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	views         int64
	exports       int64
	reloads       int64
	dataErrors    int64
	logins        int64
	loginFailures int64
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, data Dataset, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Gate == nil {
		opts.Gate = gate.New(gate.Config{})
	}
	if opts.TemplatesFS == nil {
		opts.TemplatesFS = appweb.TemplatesFS
	}
	if opts.StaticFS == nil {
		opts.StaticFS = appweb.StaticFS
	}
	headers := security.DefaultHeadersConfig()
	if opts.Headers != nil {
		headers = *opts.Headers
	}
	if opts.LoginLimit.Requests <= 0 {
		opts.LoginLimit = ratelimit.LoginConfig()
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		data:            data,
		gate:            opts.Gate,
		opts:            opts,
		logger:          logger,
		structured:      applog.NewStructuredLogger(logger),
		traceMiddleware: trace.NewMiddleware(logger, extractClientIP),
		loginLimiter:    ratelimit.NewLimiter(opts.LoginLimit),
		appMetrics:      &appMetrics{uptime: time.Now()},
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(opts.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
		t = nil
	}
	s.templates = t

	if sub, err := fs.Sub(opts.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	limited := s.loginLimiter.Middleware(extractClientIP, s.onLoginLimited)
	mux.Handle("POST /login", limited(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("POST /logout", s.handleLogout)

	protect := func(h http.HandlerFunc) http.Handler { return s.gate.Require(h) }
	mux.Handle("GET /{$}", protect(s.handleIndex))
	mux.Handle("GET /ui/drivers", protect(s.partial("drivers")))
	mux.Handle("GET /ui/categories", protect(s.partial("categories")))
	mux.Handle("GET /ui/table", protect(s.partial("table")))
	mux.Handle("GET /ui/reserve", protect(s.partial("reserve")))
	mux.Handle("POST /reload", protect(s.handleReload))
	mux.Handle("GET /export.csv", protect(s.handleExport))
	mux.Handle("GET /api/view", protect(s.handleAPIView))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(headers).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// pageData is handed to every template.
type pageData struct {
	Title       string
	Subtitle    string
	View        dashboard.View
	Query       string
	GateEnabled bool
	Version     int64
	Source      string
	Error       string
	Next        string
}

func (s *Server) page(v dashboard.View) pageData {
	return pageData{
		Title:       s.opts.Title,
		Subtitle:    s.opts.Subtitle,
		View:        v,
		Query:       EncodeViewParams(v.Params).Encode(),
		GateEnabled: s.gate.Enabled(),
		Version:     v.Version,
		Source:      s.data.Source(),
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			"error_type", applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

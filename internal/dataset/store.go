// Package dataset caches the normalized budget table and the dashboard views
// derived from it.
//
// The table is loaded once per source version. Invalidate bumps the version
// so the next Snapshot reloads; concurrent loads collapse into one read.
// Derived views are memoized by (version, params).
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"budgetreview/internal/cache"
	"budgetreview/internal/core"
	"budgetreview/internal/dashboard"
	"budgetreview/internal/engine"
	"budgetreview/internal/loader"
	"budgetreview/internal/source"

	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a single read of the source.
const loadTimeout = 30 * time.Second

// Snapshot is one immutable load of the source.
type Snapshot struct {
	Table    core.Table
	Version  int64
	LoadedAt time.Time
	Source   string
}

// Options configures a Store.
type Options struct {
	Rates     engine.Rates
	Defaults  dashboard.Params
	ViewCache int
	ViewTTL   time.Duration
	Logger    *slog.Logger
}

// Stats reports store activity for the metrics endpoint.
type Stats struct {
	Version int64
	Loads   int64
	Failed  int64
	Items   int
	Views   cache.Stats
}

// Store serves snapshots and views to any number of concurrent requests.
type Store struct {
	reader   source.Reader
	rates    engine.Rates
	defaults dashboard.Params
	logger   *slog.Logger

	mu      sync.RWMutex
	snap    *Snapshot
	version atomic.Int64

	group  singleflight.Group
	views  *cache.LRUCache[dashboard.View]
	loads  atomic.Int64
	failed atomic.Int64
}

// NewStore creates a store reading from r. Nothing is loaded until the
// first Snapshot or View call.
func NewStore(r source.Reader, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Rates) == 0 {
		opts.Rates = engine.DefaultRates()
	}
	if opts.ViewCache <= 0 {
		opts.ViewCache = 64
	}
	if opts.ViewTTL <= 0 {
		opts.ViewTTL = 10 * time.Minute
	}
	if opts.Defaults.Currency == "" {
		opts.Defaults.Currency = opts.Rates.Base()
	}
	s := &Store{
		reader:   r,
		rates:    opts.Rates,
		defaults: opts.Defaults.WithDefaults(dashboard.Params{}),
		logger:   opts.Logger,
		views:    cache.NewLRUCache[dashboard.View](opts.ViewCache, opts.ViewTTL),
	}
	s.version.Store(1)
	return s
}

// Rates returns the configured display currencies.
func (s *Store) Rates() engine.Rates { return s.rates }

// Defaults returns the parameters used for blank request fields.
func (s *Store) Defaults() dashboard.Params { return s.defaults }

// Source describes the underlying reader.
func (s *Store) Source() string { return s.reader.Describe() }

// Views exposes the view cache so a cache.Manager can sweep it.
func (s *Store) Views() cache.Cleaner { return s.views }

// Snapshot returns the current table, loading it if the version moved.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	want := s.version.Load()
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil && snap.Version == want {
		return *snap, nil
	}

	// The shared load is detached from the caller that started it.
	ch := s.group.DoChan(fmt.Sprintf("load-%d", want), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.load(lctx, want)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "Shared dataset load", "version", want)
		}
		return res.Val.(Snapshot), nil
	}
}

func (s *Store) load(ctx context.Context, version int64) (Snapshot, error) {
	s.mu.RLock()
	if s.snap != nil && s.snap.Version == version {
		snap := *s.snap
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	start := time.Now()
	s.loads.Add(1)
	t, err := s.reader.ReadTable(ctx)
	if err != nil {
		s.failed.Add(1)
		s.logger.ErrorContext(ctx, "Dataset load failed", "source", s.reader.Describe(), "version", version, "error", err)
		return Snapshot{}, loader.NewDataSourceError(s.reader.Describe(), err)
	}

	snap := Snapshot{Table: t, Version: version, LoadedAt: time.Now(), Source: s.reader.Describe()}
	s.mu.Lock()
	if s.snap == nil || s.snap.Version <= version {
		s.snap = &snap
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Dataset loaded",
		"source", snap.Source,
		"version", version,
		"items", len(t.Items),
		"periods", len(t.Periods),
		"duration_ms", time.Since(start).Milliseconds())
	return snap, nil
}

// Invalidate marks the loaded table stale and drops derived views.
func (s *Store) Invalidate(reason string) int64 {
	v := s.version.Add(1)
	s.views.Purge()
	s.logger.Info("Dataset invalidated", "reason", reason, "version", v)
	return v
}

// View returns the memoized dashboard view for p.
func (s *Store) View(ctx context.Context, p dashboard.Params) (dashboard.View, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return dashboard.View{}, err
	}
	p = p.WithDefaults(s.defaults)
	if n := len(snap.Table.Periods); n > 0 {
		if p.Prior == "" {
			p.Prior = snap.Table.Periods[0]
		}
		if p.Current == "" {
			p.Current = snap.Table.Periods[n-1]
		}
	}
	key := fmt.Sprintf("%d|%s", snap.Version, p.Key())
	if v, ok := s.views.Get(key); ok {
		return v, nil
	}

	v, err := dashboard.Build(snap.Table, p, s.rates)
	if err != nil {
		return dashboard.View{}, err
	}
	v.Version = snap.Version
	s.views.Set(key, v)
	return v, nil
}

// Stats returns current counters.
func (s *Store) Stats() Stats {
	st := Stats{
		Version: s.version.Load(),
		Loads:   s.loads.Load(),
		Failed:  s.failed.Load(),
		Views:   s.views.Stats(),
	}
	s.mu.RLock()
	if s.snap != nil {
		st.Items = len(s.snap.Table.Items)
	}
	s.mu.RUnlock()
	return st
}

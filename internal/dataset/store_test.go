package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"budgetreview/internal/core"
	"budgetreview/internal/dashboard"
	"budgetreview/internal/loader"

	"github.com/shopspring/decimal"
)

type countingReader struct {
	calls atomic.Int64
	delay time.Duration
	err   error
	table core.Table
}

func (r *countingReader) ReadTable(ctx context.Context) (core.Table, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.err != nil {
		return core.Table{}, r.err
	}
	return r.table.Clone(), nil
}

func (r *countingReader) Describe() string { return "test" }

func sampleTable() core.Table {
	mk := func(id, cat, area string, p, c int64, note string) core.LineItem {
		return core.LineItem{ID: id, Category: cat, Area: area, Note: note, Amounts: map[string]decimal.Decimal{
			"2025": decimal.NewFromInt(p), "2026": decimal.NewFromInt(c),
		}}
	}
	return core.Table{
		Periods: []string{"2025", "2026"},
		Items: []core.LineItem{
			mk("1", "Utilities", "Water", 1000, 1200, ""),
			mk("2", "Utilities", "Sewage", 500, 0, "Already in Line 1"),
		},
	}
}

func TestSnapshotLoadsOnce(t *testing.T) {
	r := &countingReader{table: sampleTable(), delay: 20 * time.Millisecond}
	s := NewStore(r, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Snapshot(context.Background()); err != nil {
				t.Errorf("Snapshot: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, err := s.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("reader called %d times, want 1", got)
	}
}

// gatedReader blocks until release is closed and reports the context
// state it saw when it finished.
type gatedReader struct {
	entered chan struct{}
	release chan struct{}
	ctxErr  atomic.Value
	table   core.Table
}

func (r *gatedReader) ReadTable(ctx context.Context) (core.Table, error) {
	close(r.entered)
	<-r.release
	if err := ctx.Err(); err != nil {
		r.ctxErr.Store(err)
		return core.Table{}, err
	}
	return r.table.Clone(), nil
}

func (r *gatedReader) Describe() string { return "gated" }

func TestSharedLoadOutlivesCancelledCaller(t *testing.T) {
	r := &gatedReader{entered: make(chan struct{}), release: make(chan struct{}), table: sampleTable()}
	s := NewStore(r, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Snapshot(ctx)
		firstErr <- err
	}()
	<-r.entered

	second := make(chan error, 1)
	go func() {
		_, err := s.Snapshot(context.Background())
		second <- err
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller got %v, want context.Canceled", err)
	}
	close(r.release)

	if err := <-second; err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if err, _ := r.ctxErr.Load().(error); err != nil {
		t.Fatalf("shared load saw cancelled context: %v", err)
	}
	snap, err := s.Snapshot(context.Background())
	if err != nil || len(snap.Table.Items) != 2 {
		t.Fatalf("Snapshot after load = %d items, %v", len(snap.Table.Items), err)
	}
}

func TestInvalidateReloads(t *testing.T) {
	r := &countingReader{table: sampleTable()}
	s := NewStore(r, Options{})
	first, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	v := s.Invalidate("test")
	second, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if second.Version != v || second.Version <= first.Version {
		t.Fatalf("versions %d -> %d (invalidate returned %d)", first.Version, second.Version, v)
	}
	if r.calls.Load() != 2 {
		t.Fatalf("reader called %d times, want 2", r.calls.Load())
	}
}

func TestViewMemoized(t *testing.T) {
	r := &countingReader{table: sampleTable()}
	s := NewStore(r, Options{})

	v, err := s.View(context.Background(), dashboard.Params{})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Params.Prior != "2025" || v.Params.Current != "2026" || v.Params.Currency != "MXN" {
		t.Fatalf("defaults not applied: %+v", v.Params)
	}
	if !v.Rows[0].Prior.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("reallocation missing: %s", v.Rows[0].Prior)
	}
	if _, err := s.View(context.Background(), dashboard.Params{Currency: "mxn"}); err != nil {
		t.Fatalf("View: %v", err)
	}
	st := s.Stats()
	if st.Views.Hits != 1 || st.Views.Size != 1 {
		t.Fatalf("view cache stats = %+v", st.Views)
	}
	if st.Items != 2 || st.Loads != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestSnapshotErrorIsDataSourceError(t *testing.T) {
	r := &countingReader{err: errors.New("boom")}
	s := NewStore(r, Options{})
	_, err := s.View(context.Background(), dashboard.Params{})
	var dse *loader.DataSourceError
	if !errors.As(err, &dse) || dse.Source != "test" {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
	if s.Stats().Failed != 1 {
		t.Fatalf("failed counter not incremented")
	}
}

type invalidations struct{ n atomic.Int64 }

func (i *invalidations) Invalidate(string) int64 { return i.n.Add(1) }

func TestWatchInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "budget.csv")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inv := &invalidations{}
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, inv, nil) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	if err := os.WriteFile(path, []byte("b"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for inv.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if inv.n.Load() == 0 {
		t.Fatalf("watcher did not invalidate")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch: %v", err)
	}
}

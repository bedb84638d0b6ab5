// Package storage persists imported budget snapshots in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetreview/internal/core"
	"budgetreview/internal/loader"
	"budgetreview/internal/source"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var (
	_ source.Reader = (*SQLiteRepository)(nil)
	_ source.Writer = (*SQLiteRepository)(nil)
)

// ErrNotImported is returned by ReadTable before the first import.
var ErrNotImported = errors.New("no budget has been imported")

// Meta describes the snapshot currently stored.
type Meta struct {
	Version    int64
	Source     string
	ImportedAt time.Time
}

type SQLiteRepository struct {
	db      *sql.DB
	path    string
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := MigrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Snapshot schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		path:    dbPath,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Describe() string { return "sqlite:" + r.path }

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Meta returns the stored snapshot metadata. Version is zero before the
// first import.
func (r *SQLiteRepository) Meta(ctx context.Context) (Meta, error) {
	m, err := r.queries.GetMeta(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, nil
	}
	if err != nil {
		return Meta{}, fmt.Errorf("get dataset meta: %w", err)
	}
	at, _ := time.Parse(time.RFC3339Nano, m.ImportedAt)
	return Meta{Version: m.Version, Source: m.Source, ImportedAt: at}, nil
}

// ReplaceTable stores t as the current snapshot in a single transaction
// and returns the new version.
func (r *SQLiteRepository) ReplaceTable(ctx context.Context, t core.Table, sourceName string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	prev, err := q.GetMeta(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get dataset meta: %w", err)
	}

	if err := q.DeleteAmounts(ctx); err != nil {
		return 0, fmt.Errorf("clear amounts: %w", err)
	}
	if err := q.DeleteLineItems(ctx); err != nil {
		return 0, fmt.Errorf("clear line items: %w", err)
	}
	if err := q.DeletePeriods(ctx); err != nil {
		return 0, fmt.Errorf("clear periods: %w", err)
	}

	for i, p := range t.Periods {
		if err := q.InsertPeriod(ctx, int64(i), p); err != nil {
			return 0, fmt.Errorf("insert period %q: %w", p, err)
		}
	}
	for i, it := range t.Items {
		id, err := q.InsertLineItem(ctx, InsertLineItemParams{
			Position: int64(i),
			LineID:   it.ID,
			Category: it.Category,
			Area:     it.Area,
			Note:     it.Note,
		})
		if err != nil {
			return 0, fmt.Errorf("insert line %q: %w", it.ID, err)
		}
		for _, p := range t.Periods {
			if err := q.InsertAmount(ctx, id, p, it.Amount(p).String()); err != nil {
				return 0, fmt.Errorf("insert amount %q/%q: %w", it.ID, p, err)
			}
		}
	}

	version := prev.Version + 1
	err = q.UpsertMeta(ctx, DatasetMeta{
		Version:    version,
		Source:     sourceName,
		ImportedAt: r.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, fmt.Errorf("update dataset meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Budget snapshot stored",
		"version", version,
		"source", sourceName,
		"periods", len(t.Periods),
		"items", len(t.Items))
	return version, nil
}

// ReadTable rebuilds the current snapshot in its stored row order.
func (r *SQLiteRepository) ReadTable(ctx context.Context) (core.Table, error) {
	periods, err := r.queries.ListPeriods(ctx)
	if err != nil {
		return core.Table{}, loader.NewDataSourceError(r.Describe(), fmt.Errorf("list periods: %w", err))
	}
	if len(periods) == 0 {
		return core.Table{}, loader.NewDataSourceError(r.Describe(), ErrNotImported)
	}

	rows, err := r.queries.ListLineItems(ctx)
	if err != nil {
		return core.Table{}, loader.NewDataSourceError(r.Describe(), fmt.Errorf("list line items: %w", err))
	}
	amounts, err := r.queries.ListAmounts(ctx)
	if err != nil {
		return core.Table{}, loader.NewDataSourceError(r.Describe(), fmt.Errorf("list amounts: %w", err))
	}

	byItem := make(map[int64]map[string]decimal.Decimal, len(rows))
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.Amount)
		if err != nil {
			slog.WarnContext(ctx, "Invalid stored amount", "item_id", a.ItemID, "period", a.Period, "amount", a.Amount)
			d = decimal.Zero
		}
		m := byItem[a.ItemID]
		if m == nil {
			m = make(map[string]decimal.Decimal, len(periods))
			byItem[a.ItemID] = m
		}
		m[a.Period] = d
	}

	t := core.Table{Periods: periods, Items: make([]core.LineItem, 0, len(rows))}
	for _, row := range rows {
		amts := byItem[row.ID]
		if amts == nil {
			amts = map[string]decimal.Decimal{}
		}
		t.Items = append(t.Items, core.LineItem{
			ID:       row.LineID,
			Category: row.Category,
			Area:     row.Area,
			Note:     row.Note,
			Amounts:  amts,
		})
	}
	return t, nil
}

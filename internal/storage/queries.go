package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type DatasetMeta struct {
	Version    int64
	Source     string
	ImportedAt string
}

const getMeta = `SELECT version, source, imported_at FROM dataset_meta WHERE id = 1`

func (q *Queries) GetMeta(ctx context.Context) (DatasetMeta, error) {
	var m DatasetMeta
	err := q.db.QueryRowContext(ctx, getMeta).Scan(&m.Version, &m.Source, &m.ImportedAt)
	return m, err
}

const upsertMeta = `INSERT INTO dataset_meta (id, version, source, imported_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET version = excluded.version, source = excluded.source, imported_at = excluded.imported_at`

func (q *Queries) UpsertMeta(ctx context.Context, m DatasetMeta) error {
	_, err := q.db.ExecContext(ctx, upsertMeta, m.Version, m.Source, m.ImportedAt)
	return err
}

const deleteAmounts = `DELETE FROM line_amounts`

func (q *Queries) DeleteAmounts(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAmounts)
	return err
}

const deleteLineItems = `DELETE FROM line_items`

func (q *Queries) DeleteLineItems(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteLineItems)
	return err
}

const deletePeriods = `DELETE FROM periods`

func (q *Queries) DeletePeriods(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deletePeriods)
	return err
}

const insertPeriod = `INSERT INTO periods (position, label) VALUES (?, ?)`

func (q *Queries) InsertPeriod(ctx context.Context, position int64, label string) error {
	_, err := q.db.ExecContext(ctx, insertPeriod, position, label)
	return err
}

type InsertLineItemParams struct {
	Position int64
	LineID   string
	Category string
	Area     string
	Note     string
}

const insertLineItem = `INSERT INTO line_items (position, line_id, category, area, note) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertLineItem(ctx context.Context, arg InsertLineItemParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertLineItem, arg.Position, arg.LineID, arg.Category, arg.Area, arg.Note)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const insertAmount = `INSERT INTO line_amounts (item_id, period, amount) VALUES (?, ?, ?)`

func (q *Queries) InsertAmount(ctx context.Context, itemID int64, period, amount string) error {
	_, err := q.db.ExecContext(ctx, insertAmount, itemID, period, amount)
	return err
}

const listPeriods = `SELECT label FROM periods ORDER BY position`

func (q *Queries) ListPeriods(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listPeriods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		items = append(items, label)
	}
	return items, rows.Err()
}

type LineItemRow struct {
	ID       int64
	LineID   string
	Category string
	Area     string
	Note     string
}

const listLineItems = `SELECT id, line_id, category, area, note FROM line_items ORDER BY position`

func (q *Queries) ListLineItems(ctx context.Context) ([]LineItemRow, error) {
	rows, err := q.db.QueryContext(ctx, listLineItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LineItemRow
	for rows.Next() {
		var i LineItemRow
		if err := rows.Scan(&i.ID, &i.LineID, &i.Category, &i.Area, &i.Note); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type AmountRow struct {
	ItemID int64
	Period string
	Amount string
}

const listAmounts = `SELECT item_id, period, amount FROM line_amounts`

func (q *Queries) ListAmounts(ctx context.Context) ([]AmountRow, error) {
	rows, err := q.db.QueryContext(ctx, listAmounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AmountRow
	for rows.Next() {
		var i AmountRow
		if err := rows.Scan(&i.ItemID, &i.Period, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

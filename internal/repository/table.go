package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"transformer/internal/table"
)

var (
	barColumns   = []string{"symbol", "ts", "open", "high", "low", "close", "volume"}
	valueColumns = []string{"symbol", "ts", "column_name", "value"}
)

// SaveTable replaces the stored rows of symbol with the table contents in
// one transaction. Derived cells are stored in long format, one row per
// cell, with NULL for not-available values. It returns the number of copied
// rows. On error nothing is changed.
func (db *Database) SaveTable(ctx context.Context, symbol string, tbl *table.Table) (int64, error) {
	if symbol == "" {
		return 0, ErrNoSymbol
	}
	tx, err := db.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	// No-op once committed.
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM indicator_values WHERE symbol = $1", symbol); err != nil {
		return 0, fmt.Errorf("clear indicator values: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM bars WHERE symbol = $1", symbol); err != nil {
		return 0, fmt.Errorf("clear bars: %w", err)
	}

	bars, err := tx.CopyFrom(ctx, pgx.Identifier{"bars"}, barColumns, pgx.CopyFromRows(barRows(symbol, tbl)))
	if err != nil {
		return 0, fmt.Errorf("copy bars: %w", err)
	}
	values, err := tx.CopyFrom(ctx, pgx.Identifier{"indicator_values"}, valueColumns, pgx.CopyFromRows(valueRows(symbol, tbl)))
	if err != nil {
		return 0, fmt.Errorf("copy indicator values: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return bars + values, nil
}

func barRows(symbol string, tbl *table.Table) [][]any {
	rows := make([][]any, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		b := tbl.Bar(i)
		rows = append(rows, []any{symbol, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume})
	}
	return rows
}

func valueRows(symbol string, tbl *table.Table) [][]any {
	cols := tbl.Columns()
	rows := make([][]any, 0, tbl.Len()*len(cols))
	for i := 0; i < tbl.Len(); i++ {
		r, _ := tbl.Row(i)
		for j, c := range cols {
			var v any
			if r.Derived[j].Valid {
				v = r.Derived[j].Decimal
			}
			rows = append(rows, []any{symbol, r.Bar.Timestamp, c, v})
		}
	}
	return rows
}

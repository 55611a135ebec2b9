// Package table implements the growing OHLCV table that transforms read from
// and write into.
//
// Rows are only ever appended. Each derived column cell starts as not
// available and may be written exactly once. Column reads are inclusive
// slices ending at the requested row, so a reader cannot see later rows.
package table

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"transformer/types"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrRowRange        = errors.New("row out of range")
	ErrCellAssigned    = errors.New("cell already assigned")
	ErrOutOfOrder      = errors.New("timestamp not after previous row")
)

type Option func(*Table)

// WithUnorderedRows accepts rows whose timestamp does not increase. Results
// for such input are not meaningful; the option exists to replay files the
// strict check would reject.
func WithUnorderedRows() Option {
	return func(t *Table) {
		t.allowUnordered = true
	}
}

type Table struct {
	derived []string
	index   map[string]int
	bars    []types.Bar
	raw     map[string]types.Series
	cells   [][]types.Value
	written [][]bool
	byTime  map[int64]int

	allowUnordered bool
}

// New creates an empty table with the raw columns and the given derived
// columns declared.
func New(derived []string, opts ...Option) (*Table, error) {
	t := &Table{
		derived: make([]string, 0, len(derived)),
		index:   make(map[string]int, len(derived)),
		raw:     make(map[string]types.Series, len(types.RawColumns)),
		cells:   make([][]types.Value, len(derived)),
		written: make([][]bool, len(derived)),
		byTime:  make(map[int64]int),
	}
	for _, name := range derived {
		if types.IsRawColumn(name) {
			return nil, fmt.Errorf("%q shadows a raw column: %w", name, ErrDuplicateColumn)
		}
		if _, ok := t.index[name]; ok {
			return nil, fmt.Errorf("%q: %w", name, ErrDuplicateColumn)
		}
		t.index[name] = len(t.derived)
		t.derived = append(t.derived, name)
	}
	for _, name := range types.RawColumns {
		t.raw[name] = nil
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Append adds a bar as a new row with every derived cell not available.
func (t *Table) Append(bar types.Bar) error {
	if n := len(t.bars); n > 0 && !t.allowUnordered {
		prev := t.bars[n-1].Timestamp
		if !bar.Timestamp.After(prev) {
			return fmt.Errorf("%s after %s: %w", bar.Timestamp, prev, ErrOutOfOrder)
		}
	}
	row := len(t.bars)
	t.bars = append(t.bars, bar)
	for _, name := range types.RawColumns {
		v, _ := bar.Field(name)
		t.raw[name] = append(t.raw[name], types.Available(v))
	}
	for i := range t.derived {
		t.cells[i] = append(t.cells[i], types.NotAvailable())
		t.written[i] = append(t.written[i], false)
	}
	t.byTime[bar.Timestamp.UnixNano()] = row
	return nil
}

func (t *Table) Len() int { return len(t.bars) }

// Columns returns the derived column names in declaration order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.derived))
	copy(out, t.derived)
	return out
}

// Column returns the values of a column from the first row through row,
// inclusive.
func (t *Table) Column(name string, row int) (types.Series, error) {
	if err := t.checkRow(row); err != nil {
		return nil, err
	}
	if s, ok := t.raw[name]; ok {
		return s[: row+1 : row+1], nil
	}
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
	}
	return types.Series(t.cells[i][: row+1 : row+1]), nil
}

// Ready reports whether the column holds a computed value at row. Raw
// columns are always ready; a derived cell is ready once it was written.
func (t *Table) Ready(name string, row int) bool {
	if t.checkRow(row) != nil {
		return false
	}
	if _, ok := t.raw[name]; ok {
		return true
	}
	i, ok := t.index[name]
	return ok && t.written[i][row]
}

// Set writes a derived cell. Every cell can be written only once.
func (t *Table) Set(name string, row int, v types.Value) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownColumn)
	}
	if t.written[i][row] {
		return fmt.Errorf("%q at row %d: %w", name, row, ErrCellAssigned)
	}
	t.cells[i][row] = v
	t.written[i][row] = true
	return nil
}

// Value returns a single cell, raw or derived.
func (t *Table) Value(name string, row int) (types.Value, error) {
	s, err := t.Column(name, row)
	if err != nil {
		return types.NotAvailable(), err
	}
	return s[row], nil
}

func (t *Table) Bar(row int) types.Bar {
	return t.bars[row]
}

func (t *Table) Timestamp(row int) time.Time {
	return t.bars[row].Timestamp
}

// Row is a materialized table row.
type Row struct {
	Bar     types.Bar
	Derived []types.Value
}

// Row returns the bar and the derived cells of row in column order.
func (t *Table) Row(row int) (Row, error) {
	if err := t.checkRow(row); err != nil {
		return Row{}, err
	}
	r := Row{Bar: t.bars[row], Derived: make([]types.Value, len(t.derived))}
	for i := range t.derived {
		r.Derived[i] = t.cells[i][row]
	}
	return r, nil
}

// Lookup returns the row stored under a timestamp. With unordered rows
// enabled, the latest row with that timestamp wins.
func (t *Table) Lookup(ts time.Time) (Row, bool) {
	i, ok := t.byTime[ts.UnixNano()]
	if !ok {
		return Row{}, false
	}
	r, err := t.Row(i)
	return r, err == nil
}

// Equal compares tables cell by cell, including the written state of
// derived cells.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() || len(t.derived) != len(o.derived) {
		return false
	}
	for i, name := range t.derived {
		if o.derived[i] != name {
			return false
		}
	}
	for row := range t.bars {
		if !t.bars[row].Equal(o.bars[row]) {
			return false
		}
		for i := range t.derived {
			if t.written[i][row] != o.written[i][row] {
				return false
			}
			if !types.SameValue(t.cells[i][row], o.cells[i][row]) {
				return false
			}
		}
	}
	return true
}

// Count returns the number of available cells in a derived column.
func (t *Table) Count(name string) int {
	i, ok := t.index[name]
	if !ok {
		return 0
	}
	n := 0
	for _, v := range t.cells[i] {
		if v.Valid {
			n++
		}
	}
	return n
}

// Last returns the latest available value of a column, if any.
func (t *Table) Last(name string) (decimal.Decimal, bool) {
	if t.Len() == 0 {
		return decimal.Zero, false
	}
	s, err := t.Column(name, t.Len()-1)
	if err != nil {
		return decimal.Zero, false
	}
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i].Decimal, true
		}
	}
	return decimal.Zero, false
}

func (t *Table) checkRow(row int) error {
	if row < 0 || row >= len(t.bars) {
		return fmt.Errorf("row %d of %d: %w", row, len(t.bars), ErrRowRange)
	}
	return nil
}

package transform

import (
	"fmt"
	"time"

	"transformer/internal/indicator"
	"transformer/internal/table"
	"transformer/types"
)

// Observer is told about every evaluated transform.
type Observer interface {
	Observe(column string, v types.Value, elapsed time.Duration)
}

type bound struct {
	spec   Spec
	column string
	def    indicator.Definition
	// inputs holds private copies of the input columns, reused across rows.
	inputs []types.Series
}

// Executor applies a transform list to single rows of a table. It resolves
// indicator identifiers once but does not check or reorder dependencies;
// that is List.Validate's job. An Executor is not safe for concurrent use.
type Executor struct {
	transforms []bound
	observer   Observer
}

type ExecutorOption func(*Executor)

func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) {
		e.observer = o
	}
}

func NewExecutor(reg indicator.Registry, list List, opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{transforms: make([]bound, 0, len(list))}
	for i, s := range list {
		def, err := reg.Lookup(s.Indicator)
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
		e.transforms = append(e.transforms, bound{
			spec:   s,
			column: s.Column(),
			def:    def,
			inputs: make([]types.Series, len(s.Inputs)),
		})
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Execute evaluates every transform in list order for one row and writes
// each result into that transform's column at the row. Inputs are the
// table's columns from the first row through row, inclusive. Reading a
// derived column that has no value at row yet fails with ErrUndefinedInput.
// Indicators receive copies of the columns, so they cannot alter the table.
// Any error aborts the row; cells written before the failure stay written.
func (e *Executor) Execute(tbl *table.Table, row int) error {
	if row < 0 || row >= tbl.Len() {
		return fmt.Errorf("execute row %d of %d: %w", row, tbl.Len(), table.ErrRowRange)
	}
	ts := tbl.Timestamp(row)
	for k := range e.transforms {
		b := &e.transforms[k]
		for i, col := range b.spec.Inputs {
			s, err := tbl.Column(col, row)
			if err != nil {
				return fmt.Errorf("%s at %s: %w", b.spec, ts, err)
			}
			if !tbl.Ready(col, row) {
				return fmt.Errorf("%s at %s: column %q: %w", b.spec, ts, col, ErrUndefinedInput)
			}
			b.inputs[i] = append(b.inputs[i][:0], s...)
		}

		start := time.Now()
		v, err := b.def.Eval(b.inputs, b.spec.Params)
		if err != nil {
			return fmt.Errorf("%s at %s: %w", b.spec, ts, err)
		}
		if err := tbl.Set(b.column, row, v); err != nil {
			return fmt.Errorf("%s at %s: %w", b.spec, ts, err)
		}
		if e.observer != nil {
			e.observer.Observe(b.column, v, time.Since(start))
		}
	}
	return nil
}

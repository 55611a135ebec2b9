// Package indicator holds the indicator functions a transform can bind to
// and the static registry resolving indicator identifiers to them.
//
// Every indicator is a pure function of its input series, each holding a
// column's history through the current row, and its scalar parameters.
// Indicators never see rows after the current one.
package indicator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"transformer/types"
)

var (
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrArity            = errors.New("wrong number of inputs")
	ErrInvalidParam     = errors.New("invalid parameter")
	ErrEmptySeries      = errors.New("empty input series")
)

// Func computes one value from the input series and parameters.
type Func func(inputs []types.Series, params []float64) (types.Value, error)

// Param describes one positional scalar parameter.
type Param struct {
	Name     string
	Integer  bool
	Positive bool
}

// Definition binds an identifier to a function, its input arity and its
// parameter shape.
type Definition struct {
	ID      string
	Inputs  int
	Params  []Param
	Compute Func
}

// Validate checks params against the parameter shape. It is meant to run
// at setup time, before any row is processed.
func (d Definition) Validate(params []float64) error {
	if len(params) != len(d.Params) {
		return fmt.Errorf("%s: want %d parameter(s), got %d: %w", d.ID, len(d.Params), len(params), ErrInvalidParam)
	}
	for i, p := range d.Params {
		v := params[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: %s = %v: %w", d.ID, p.Name, v, ErrInvalidParam)
		}
		if p.Integer && v != math.Trunc(v) {
			return fmt.Errorf("%s: %s = %v is not an integer: %w", d.ID, p.Name, v, ErrInvalidParam)
		}
		if p.Positive && v <= 0 {
			return fmt.Errorf("%s: %s = %v must be positive: %w", d.ID, p.Name, v, ErrInvalidParam)
		}
	}
	return nil
}

// Eval checks arity and runs the function.
func (d Definition) Eval(inputs []types.Series, params []float64) (types.Value, error) {
	if len(inputs) != d.Inputs {
		return types.NotAvailable(), fmt.Errorf("%s: want %d input(s), got %d: %w", d.ID, d.Inputs, len(inputs), ErrArity)
	}
	return d.Compute(inputs, params)
}

// Registry maps indicator identifiers to definitions.
type Registry map[string]Definition

// Default returns a registry with every built-in indicator.
func Default() Registry {
	r := make(Registry)
	for _, d := range []Definition{
		midpointDefinition,
		typicalDefinition,
		smaDefinition,
		highestDefinition,
		lowestDefinition,
	} {
		r[d.ID] = d
	}
	return r
}

func (r Registry) Lookup(id string) (Definition, error) {
	d, ok := r[id]
	if !ok {
		return Definition{}, fmt.Errorf("%q: %w", id, ErrUnknownIndicator)
	}
	return d, nil
}

// IDs returns the registered identifiers in sorted order.
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// period reads params[0] as a window length. Definitions validate this at
// setup; the check is repeated so a malformed call fails instead of
// indexing out of range.
func period(params []float64) (int, error) {
	if len(params) < 1 {
		return 0, fmt.Errorf("missing period: %w", ErrInvalidParam)
	}
	p := params[0]
	if p != math.Trunc(p) || p <= 0 {
		return 0, fmt.Errorf("period %v: %w", p, ErrInvalidParam)
	}
	return int(p), nil
}

// lasts returns the current-row value of each series.
func lasts(inputs []types.Series) ([]types.Value, error) {
	out := make([]types.Value, len(inputs))
	for i, s := range inputs {
		v, ok := s.Last()
		if !ok {
			return nil, ErrEmptySeries
		}
		out[i] = v
	}
	return out, nil
}

// Package transform describes the ordered transform list and applies it to
// one table row at a time.
package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"transformer/internal/indicator"
	"transformer/types"
)

var (
	ErrUndefinedColumn = errors.New("input column not defined before use")
	ErrDuplicateColumn = errors.New("output column defined twice")
	ErrUndefinedInput  = errors.New("undefined input")
	ErrSyntax          = errors.New("syntax error")
)

// Spec binds an indicator to its input columns and parameters. The result
// goes to a column named Name, or the indicator identifier when Name is
// empty.
type Spec struct {
	Indicator string
	Inputs    []string
	Params    []float64
	Name      string
}

func (s Spec) Column() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Indicator
}

func (s Spec) String() string {
	args := make([]string, 0, len(s.Inputs)+len(s.Params))
	args = append(args, s.Inputs...)
	for _, p := range s.Params {
		args = append(args, strconv.FormatFloat(p, 'f', -1, 64))
	}
	out := s.Indicator + "(" + strings.Join(args, ",") + ")"
	if s.Name != "" {
		out = s.Name + "=" + out
	}
	return out
}

// List is evaluated in order. A transform may read raw columns and the
// columns of transforms strictly before it.
type List []Spec

// Columns returns the output column of every transform, in order.
func (l List) Columns() []string {
	out := make([]string, len(l))
	for i, s := range l {
		out[i] = s.Column()
	}
	return out
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, s := range l {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

// Validate is the setup-time check of a transform list: every indicator
// must be registered with matching arity and valid parameters, every input
// must be a raw column or an earlier output, and output names must be
// unique.
func (l List) Validate(reg indicator.Registry) error {
	defined := make(map[string]bool, len(types.RawColumns)+len(l))
	for _, c := range types.RawColumns {
		defined[c] = true
	}
	for i, s := range l {
		def, err := reg.Lookup(s.Indicator)
		if err != nil {
			return fmt.Errorf("transform %d: %w", i, err)
		}
		if len(s.Inputs) != def.Inputs {
			return fmt.Errorf("transform %d (%s): want %d input(s), got %d: %w", i, s, def.Inputs, len(s.Inputs), indicator.ErrArity)
		}
		if err := def.Validate(s.Params); err != nil {
			return fmt.Errorf("transform %d (%s): %w", i, s, err)
		}
		for _, in := range s.Inputs {
			if !defined[in] {
				return fmt.Errorf("transform %d (%s): %q: %w", i, s, in, ErrUndefinedColumn)
			}
		}
		out := s.Column()
		if defined[out] {
			return fmt.Errorf("transform %d (%s): %q: %w", i, s, out, ErrDuplicateColumn)
		}
		defined[out] = true
	}
	return nil
}

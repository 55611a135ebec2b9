package types

import "github.com/shopspring/decimal"

// Value is a single table cell. Valid == false marks "not available":
// the indicator had too little history, or one of its inputs was itself
// not available.
type Value = decimal.NullDecimal

func Available(d decimal.Decimal) Value {
	return Value{Decimal: d, Valid: true}
}

func NotAvailable() Value {
	return Value{}
}

// SameValue reports whether two cells hold the same state and value.
func SameValue(a, b Value) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// Series is a column's history from the first row through the current
// row, inclusive.
type Series []Value

// Last returns the value at the current row.
func (s Series) Last() (Value, bool) {
	if len(s) == 0 {
		return NotAvailable(), false
	}
	return s[len(s)-1], true
}

// Tail returns the last n values, or nil if the series is shorter than n.
func (s Series) Tail(n int) Series {
	if n <= 0 || len(s) < n {
		return nil
	}
	return s[len(s)-n:]
}

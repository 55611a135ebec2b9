package indicator

import (
	"github.com/shopspring/decimal"

	"transformer/types"
)

const (
	SMA     = "sma"
	Highest = "highest"
	Lowest  = "lowest"
)

var periodParam = []Param{{Name: "period", Integer: true, Positive: true}}

var smaDefinition = Definition{
	ID:      SMA,
	Inputs:  1,
	Params:  periodParam,
	Compute: sma,
}

// sma is the mean of the last period values. There is no partial-window
// average: with fewer than period values, or a not-available value inside
// the window, the result is not available.
func sma(inputs []types.Series, params []float64) (types.Value, error) {
	window, err := lastWindow(inputs, params)
	if err != nil || window == nil {
		return types.NotAvailable(), err
	}
	sum := decimal.Zero
	for _, v := range window {
		sum = sum.Add(v.Decimal)
	}
	return types.Available(sum.Div(decimal.NewFromInt(int64(len(window))))), nil
}

var highestDefinition = Definition{
	ID:      Highest,
	Inputs:  1,
	Params:  periodParam,
	Compute: highest,
}

// highest is the upper Donchian band: the maximum of the last period values.
func highest(inputs []types.Series, params []float64) (types.Value, error) {
	window, err := lastWindow(inputs, params)
	if err != nil || window == nil {
		return types.NotAvailable(), err
	}
	out := window[0].Decimal
	for _, v := range window[1:] {
		if v.Decimal.GreaterThan(out) {
			out = v.Decimal
		}
	}
	return types.Available(out), nil
}

var lowestDefinition = Definition{
	ID:      Lowest,
	Inputs:  1,
	Params:  periodParam,
	Compute: lowest,
}

// lowest is the lower Donchian band: the minimum of the last period values.
func lowest(inputs []types.Series, params []float64) (types.Value, error) {
	window, err := lastWindow(inputs, params)
	if err != nil || window == nil {
		return types.NotAvailable(), err
	}
	out := window[0].Decimal
	for _, v := range window[1:] {
		if v.Decimal.LessThan(out) {
			out = v.Decimal
		}
	}
	return types.Available(out), nil
}

// lastWindow returns the last period values of the single input, or nil
// when the window is not fully available yet.
func lastWindow(inputs []types.Series, params []float64) (types.Series, error) {
	n, err := period(params)
	if err != nil {
		return nil, err
	}
	if len(inputs) != 1 {
		return nil, ErrArity
	}
	window := inputs[0].Tail(n)
	for _, v := range window {
		if !v.Valid {
			return nil, nil
		}
	}
	return window, nil
}

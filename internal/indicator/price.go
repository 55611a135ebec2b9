package indicator

import (
	"github.com/shopspring/decimal"

	"transformer/types"
)

const (
	Midpoint = "midpoint"
	Typical  = "typical"
)

var (
	two   = decimal.NewFromInt(2)
	three = decimal.NewFromInt(3)
)

var midpointDefinition = Definition{
	ID:      Midpoint,
	Inputs:  2,
	Compute: midpoint,
}

// midpoint is (high + low) / 2 at the current row.
func midpoint(inputs []types.Series, _ []float64) (types.Value, error) {
	v, err := lasts(inputs)
	if err != nil {
		return types.NotAvailable(), err
	}
	high, low := v[0], v[1]
	if !high.Valid || !low.Valid {
		return types.NotAvailable(), nil
	}
	return types.Available(high.Decimal.Add(low.Decimal).Div(two)), nil
}

var typicalDefinition = Definition{
	ID:      Typical,
	Inputs:  3,
	Compute: typical,
}

// typical is (high + low + close) / 3 at the current row.
func typical(inputs []types.Series, _ []float64) (types.Value, error) {
	v, err := lasts(inputs)
	if err != nil {
		return types.NotAvailable(), err
	}
	sum := decimal.Zero
	for _, x := range v {
		if !x.Valid {
			return types.NotAvailable(), nil
		}
		sum = sum.Add(x.Decimal)
	}
	return types.Available(sum.Div(three)), nil
}

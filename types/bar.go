package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raw column names carried by every table.
const (
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// RawColumns lists the bar columns in file order, excluding the timestamp.
var RawColumns = []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

type Bar struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// Field returns the bar value for a raw column name.
func (b Bar) Field(column string) (decimal.Decimal, bool) {
	switch column {
	case ColumnOpen:
		return b.Open, true
	case ColumnHigh:
		return b.High, true
	case ColumnLow:
		return b.Low, true
	case ColumnClose:
		return b.Close, true
	case ColumnVolume:
		return decimal.NewFromInt(b.Volume), true
	}
	return decimal.Zero, false
}

// Equal compares bars by value; decimals with different exponents but the
// same value are equal.
func (b Bar) Equal(o Bar) bool {
	return b.Timestamp.Equal(o.Timestamp) &&
		b.Open.Equal(o.Open) &&
		b.High.Equal(o.High) &&
		b.Low.Equal(o.Low) &&
		b.Close.Equal(o.Close) &&
		b.Volume == o.Volume
}

func IsRawColumn(column string) bool {
	_, ok := Bar{}.Field(column)
	return ok
}

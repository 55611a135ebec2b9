package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSameValue(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"both not available", NotAvailable(), NotAvailable(), true},
		{"one not available", Available(d("1")), NotAvailable(), false},
		{"equal value, different exponent", Available(d("5")), Available(d("5.00")), true},
		{"different value", Available(d("5")), Available(d("5.01")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameValue(tt.a, tt.b); got != tt.want {
				t.Errorf("SameValue(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSeries_Tail(t *testing.T) {
	s := Series{Available(decimal.NewFromInt(1)), Available(decimal.NewFromInt(2)), Available(decimal.NewFromInt(3))}

	if got := s.Tail(4); got != nil {
		t.Errorf("Tail(4) = %v, want nil", got)
	}
	if got := s.Tail(0); got != nil {
		t.Errorf("Tail(0) = %v, want nil", got)
	}
	got := s.Tail(2)
	if len(got) != 2 || !got[0].Decimal.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Tail(2) = %v, want [2 3]", got)
	}
	last, ok := s.Last()
	if !ok || !last.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Last() = %v, %v", last, ok)
	}
	if _, ok := (Series{}).Last(); ok {
		t.Error("Last() on empty series reported ok")
	}
}

func TestBar_Field(t *testing.T) {
	b := Bar{
		Open:   decimal.NewFromInt(1),
		High:   decimal.NewFromInt(2),
		Low:    decimal.NewFromInt(3),
		Close:  decimal.NewFromInt(4),
		Volume: 5,
	}
	for i, col := range RawColumns {
		v, ok := b.Field(col)
		if !ok {
			t.Fatalf("Field(%q) not found", col)
		}
		if !v.Equal(decimal.NewFromInt(int64(i + 1))) {
			t.Errorf("Field(%q) = %s, want %d", col, v, i+1)
		}
	}
	if IsRawColumn("midpoint") {
		t.Error("midpoint reported as raw column")
	}
}

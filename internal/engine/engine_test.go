package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"transformer/internal/indicator"
	"transformer/internal/source"
	"transformer/internal/table"
	"transformer/internal/transform"
)

const header = "datetime\topen\thigh\tlow\tclose\tvolume\n"

var defaultTransforms = transform.List{
	{Indicator: indicator.Midpoint, Inputs: []string{"high", "low"}},
	{Indicator: indicator.SMA, Inputs: []string{"midpoint"}, Params: []float64{26}},
}

var modes = []Mode{ModeBatch, ModeStreaming}

func writeHistory(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TQBR.SBER_D1.txt")
	if err := os.WriteFile(path, []byte(header+strings.Join(lines, "")), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// mockHistory returns n daily bars with a price walk that exercises
// non-trivial averages.
func mockHistory(n int) []string {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		ts := start.AddDate(0, 0, i).Format(source.DefaultTimeLayout)
		base := 250 + (i*37)%41
		lines[i] = fmt.Sprintf("%s\t%d.1\t%d.75\t%d.2\t%d.4\t%d\n", ts, base, base+3, base-2, base+1, 1000+i)
	}
	return lines
}

func constantHistory(n int) []string {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		ts := start.AddDate(0, 0, i).Format(source.DefaultTimeLayout)
		lines[i] = fmt.Sprintf("%s\t5\t10\t0\t5\t100\n", ts)
	}
	return lines
}

func mockEngine(t *testing.T, path string, list transform.List, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(NewConfig(path, source.DefaultConfig()), list, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEngine_ConstantHistoryScenario(t *testing.T) {
	path := writeHistory(t, constantHistory(30)...)
	five := decimal.NewFromInt(5)

	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			tbl, err := mockEngine(t, path, defaultTransforms).Run(mode)
			if err != nil {
				t.Fatal(err)
			}
			if tbl.Len() != 30 {
				t.Fatalf("Len() = %d, want 30", tbl.Len())
			}
			for row := 0; row < 30; row++ {
				mid, _ := tbl.Value("midpoint", row)
				if !mid.Valid || !mid.Decimal.Equal(five) {
					t.Fatalf("midpoint[%d] = %v, want 5", row, mid)
				}
				sma, _ := tbl.Value("sma", row)
				if row < 25 {
					if sma.Valid {
						t.Fatalf("sma[%d] = %s, want not available", row, sma.Decimal)
					}
					continue
				}
				if !sma.Valid || !sma.Decimal.Equal(five) {
					t.Fatalf("sma[%d] = %v, want 5", row, sma)
				}
			}
		})
	}
}

func TestEngine_EmptyHistory(t *testing.T) {
	path := writeHistory(t)
	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			tbl, err := mockEngine(t, path, defaultTransforms).Run(mode)
			if err != nil {
				t.Fatal(err)
			}
			if tbl.Len() != 0 {
				t.Fatalf("Len() = %d, want 0", tbl.Len())
			}
			cols := tbl.Columns()
			if len(cols) != 2 || cols[0] != "midpoint" || cols[1] != "sma" {
				t.Fatalf("Columns() = %v", cols)
			}
		})
	}
}

func TestEngine_BatchAndStreamingAgree(t *testing.T) {
	lists := map[string]transform.List{
		"default": defaultTransforms,
		"chained": {
			{Indicator: indicator.Typical, Inputs: []string{"high", "low", "close"}},
			{Indicator: indicator.SMA, Inputs: []string{"typical"}, Params: []float64{3}, Name: "fast"},
			{Indicator: indicator.SMA, Inputs: []string{"fast"}, Params: []float64{4}, Name: "smooth"},
			{Indicator: indicator.Highest, Inputs: []string{"high"}, Params: []float64{5}},
			{Indicator: indicator.Lowest, Inputs: []string{"smooth"}, Params: []float64{2}},
		},
	}
	path := writeHistory(t, mockHistory(60)...)

	for name, list := range lists {
		t.Run(name, func(t *testing.T) {
			batch, err := mockEngine(t, path, list).Run(ModeBatch)
			if err != nil {
				t.Fatal(err)
			}
			stream, err := mockEngine(t, path, list).Run(ModeStreaming)
			if err != nil {
				t.Fatal(err)
			}
			if !batch.Equal(stream) {
				t.Fatal("batch and streaming tables differ")
			}
			for _, col := range list.Columns() {
				if batch.Count(col) == 0 {
					t.Errorf("column %s has no available values", col)
				}
			}
		})
	}
}

func TestEngine_Deterministic(t *testing.T) {
	path := writeHistory(t, mockHistory(40)...)
	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			first, err := mockEngine(t, path, defaultTransforms).Run(mode)
			if err != nil {
				t.Fatal(err)
			}
			second, err := mockEngine(t, path, defaultTransforms).Run(mode)
			if err != nil {
				t.Fatal(err)
			}
			if !first.Equal(second) {
				t.Fatal("repeated runs differ")
			}
			for row := 0; row < first.Len(); row++ {
				a, _ := first.Value("sma", row)
				b, _ := second.Value("sma", row)
				if a.Valid && a.Decimal.String() != b.Decimal.String() {
					t.Fatalf("row %d: %s != %s", row, a.Decimal, b.Decimal)
				}
			}
		})
	}
}

func TestEngine_SMAMatchesWindowMean(t *testing.T) {
	path := writeHistory(t, mockHistory(35)...)
	list := transform.List{{Indicator: indicator.SMA, Inputs: []string{"close"}, Params: []float64{4}}}
	tbl, err := mockEngine(t, path, list).Run(ModeStreaming)
	if err != nil {
		t.Fatal(err)
	}
	for row := 0; row < tbl.Len(); row++ {
		got, _ := tbl.Value("sma", row)
		if row < 3 {
			if got.Valid {
				t.Fatalf("sma[%d] available during cold start", row)
			}
			continue
		}
		sum := decimal.Zero
		for i := row - 3; i <= row; i++ {
			sum = sum.Add(tbl.Bar(i).Close)
		}
		want := sum.Div(decimal.NewFromInt(4))
		if !got.Valid || !got.Decimal.Equal(want) {
			t.Fatalf("sma[%d] = %v, want %s", row, got, want)
		}
	}
}

func TestEngine_ParseErrorIsFatal(t *testing.T) {
	lines := mockHistory(5)
	lines[3] = "07.01.2022 00:00\t1\tbad\t0\t1\t5\n"
	path := writeHistory(t, lines...)

	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			tbl, err := mockEngine(t, path, defaultTransforms).Run(mode)
			var pe *source.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *source.ParseError", err)
			}
			if pe.Line != 5 {
				t.Errorf("line = %d, want 5", pe.Line)
			}
			if tbl != nil {
				t.Error("partial table returned after error")
			}
		})
	}
}

func TestEngine_OutOfOrder(t *testing.T) {
	lines := mockHistory(5)
	lines[2], lines[3] = lines[3], lines[2]
	path := writeHistory(t, lines...)

	for _, mode := range modes {
		t.Run(string(mode)+"/strict", func(t *testing.T) {
			_, err := mockEngine(t, path, defaultTransforms).Run(mode)
			if !errors.Is(err, table.ErrOutOfOrder) {
				t.Fatalf("err = %v, want ErrOutOfOrder", err)
			}
		})
		t.Run(string(mode)+"/permissive", func(t *testing.T) {
			cfg := NewConfig(path, source.DefaultConfig()).AllowUnordered(true)
			e, err := NewEngine(cfg, defaultTransforms)
			if err != nil {
				t.Fatal(err)
			}
			tbl, err := e.Run(mode)
			if err != nil {
				t.Fatal(err)
			}
			if tbl.Len() != 5 {
				t.Fatalf("Len() = %d, want 5", tbl.Len())
			}
		})
	}
}

func TestNewEngine_ConfigurationErrors(t *testing.T) {
	path := writeHistory(t)
	tests := []struct {
		name    string
		cfg     *Config
		list    transform.List
		wantErr error
	}{
		{
			name:    "non-positive period",
			cfg:     NewConfig(path, source.DefaultConfig()),
			list:    transform.List{{Indicator: indicator.SMA, Inputs: []string{"close"}, Params: []float64{0}}},
			wantErr: indicator.ErrInvalidParam,
		},
		{
			name:    "undefined input column",
			cfg:     NewConfig(path, source.DefaultConfig()),
			list:    transform.List{{Indicator: indicator.SMA, Inputs: []string{"midpoint"}, Params: []float64{3}}},
			wantErr: transform.ErrUndefinedColumn,
		},
		{
			name:    "bad delimiter",
			cfg:     NewConfig(path, source.Config{Delimiter: '\n', TimeLayout: source.DefaultTimeLayout}),
			list:    defaultTransforms,
			wantErr: source.ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.cfg, tt.list)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewEngine(NewConfig("", source.DefaultConfig()), defaultTransforms); err == nil {
		t.Fatal("missing source path accepted")
	}
}

func TestEngine_MissingFile(t *testing.T) {
	e := mockEngine(t, filepath.Join(t.TempDir(), "missing.txt"), defaultTransforms)
	for _, mode := range modes {
		if _, err := e.Run(mode); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s: err = %v, want os.ErrNotExist", mode, err)
		}
	}
	if _, err := e.Run("replay"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}
}

func TestEngine_Metrics(t *testing.T) {
	path := writeHistory(t, constantHistory(30)...)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if _, err := mockEngine(t, path, defaultTransforms, WithMetrics(m)).Run(ModeStreaming); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.RowsProcessed.WithLabelValues(string(ModeStreaming))); got != 30 {
		t.Errorf("rows processed = %v, want 30", got)
	}
	if got := testutil.ToFloat64(m.CellsUnavailable.WithLabelValues("sma")); got != 25 {
		t.Errorf("sma cells unavailable = %v, want 25", got)
	}
	if got := testutil.ToFloat64(m.CellsUnavailable.WithLabelValues("midpoint")); got != 0 {
		t.Errorf("midpoint cells unavailable = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(m.TransformLatency); n != 2 {
		t.Errorf("latency series = %d, want 2", n)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"batch", "streaming"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) = %v", s, err)
		}
	}
	if _, err := ParseMode("live"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("ParseMode(live) err = %v", err)
	}
}

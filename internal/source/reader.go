// Package source reads bar history files: one header line, then one
// delimited line per bar with timestamp, open, high, low, close, volume.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"transformer/types"
)

// DefaultTimeLayout is day-first: day.month.year hour:minute.
const DefaultTimeLayout = "02.01.2006 15:04"

const fieldCount = 6

var (
	ErrInvalidConfig = errors.New("invalid source config")
	ErrFieldCount    = errors.New("wrong field count")
)

var fieldNames = [fieldCount]string{"datetime", "open", "high", "low", "close", "volume"}

type Config struct {
	Delimiter  rune
	TimeLayout string
	Location   *time.Location
}

func DefaultConfig() Config {
	return Config{
		Delimiter:  '\t',
		TimeLayout: DefaultTimeLayout,
		Location:   time.UTC,
	}
}

func (c Config) Validate() error {
	if c.Delimiter == 0 || c.Delimiter == '\r' || c.Delimiter == '\n' || c.Delimiter == '"' ||
		c.Delimiter == utf8.RuneError || !utf8.ValidRune(c.Delimiter) {
		return fmt.Errorf("delimiter %q: %w", c.Delimiter, ErrInvalidConfig)
	}
	if c.TimeLayout == "" {
		return fmt.Errorf("empty time layout: %w", ErrInvalidConfig)
	}
	return nil
}

// ParseError reports a malformed line. Line is 1-based and counts the
// header.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, field %s: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader yields bars one line at a time.
type Reader struct {
	csv        *csv.Reader
	cfg        Config
	headerRead bool
}

func NewReader(r io.Reader, cfg Config) *Reader {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cr := csv.NewReader(r)
	cr.Comma = cfg.Delimiter
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{csv: cr, cfg: cfg}
}

// Next returns the next bar. io.EOF marks the normal end of input,
// including a file with only a header or no lines at all.
func (r *Reader) Next() (types.Bar, error) {
	if !r.headerRead {
		r.headerRead = true
		if _, err := r.read(); err != nil {
			return types.Bar{}, err
		}
	}
	record, err := r.read()
	if err != nil {
		return types.Bar{}, err
	}
	line, _ := r.csv.FieldPos(0)
	return r.parse(record, line)
}

// ReadAll reads every remaining bar.
func (r *Reader) ReadAll() ([]types.Bar, error) {
	var bars []types.Bar
	for {
		bar, err := r.Next()
		if errors.Is(err, io.EOF) {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
}

func (r *Reader) read() ([]string, error) {
	record, err := r.csv.Read()
	if err == nil || errors.Is(err, io.EOF) {
		return record, err
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return nil, &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return nil, err
}

func (r *Reader) parse(record []string, line int) (types.Bar, error) {
	if len(record) != fieldCount {
		return types.Bar{}, &ParseError{Line: line, Err: fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(record), fieldCount)}
	}
	ts, err := time.ParseInLocation(r.cfg.TimeLayout, strings.TrimSpace(record[0]), r.cfg.Location)
	if err != nil {
		return types.Bar{}, &ParseError{Line: line, Field: fieldNames[0], Err: err}
	}
	var prices [4]decimal.Decimal
	for i := range prices {
		prices[i], err = decimal.NewFromString(strings.TrimSpace(record[i+1]))
		if err != nil {
			return types.Bar{}, &ParseError{Line: line, Field: fieldNames[i+1], Err: err}
		}
	}
	volume, err := strconv.ParseInt(strings.TrimSpace(record[5]), 10, 64)
	if err != nil {
		return types.Bar{}, &ParseError{Line: line, Field: fieldNames[5], Err: err}
	}
	return types.Bar{
		Timestamp: ts,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    volume,
	}, nil
}

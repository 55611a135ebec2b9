// Package export writes a completed table for inspection or downstream use.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"transformer/internal/table"
	"transformer/types"
)

// TimestampLayout is used by the text and CSV writers.
const TimestampLayout = "2006-01-02 15:04:05"

func header(tbl *table.Table) []string {
	h := append([]string{"datetime"}, types.RawColumns...)
	return append(h, tbl.Columns()...)
}

// WriteCSVFile writes the table as CSV to the given path.
func WriteCSVFile(path string, tbl *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, tbl)
}

// WriteCSV writes one line per row. Not-available cells are empty.
func WriteCSV(w io.Writer, tbl *table.Table) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header(tbl)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < tbl.Len(); i++ {
		row, err := tbl.Row(i)
		if err != nil {
			return err
		}
		if err := cw.Write(record(row, "")); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func record(row table.Row, missing string) []string {
	b := row.Bar
	out := make([]string, 0, 1+len(types.RawColumns)+len(row.Derived))
	out = append(out,
		b.Timestamp.Format(TimestampLayout),
		b.Open.String(),
		b.High.String(),
		b.Low.String(),
		b.Close.String(),
		strconv.FormatInt(b.Volume, 10),
	)
	for _, v := range row.Derived {
		if !v.Valid {
			out = append(out, missing)
			continue
		}
		out = append(out, v.Decimal.String())
	}
	return out
}

package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"transformer/internal/table"
	"transformer/types"
)

// parquetSchema declares raw columns as required and derived columns as
// optional, so not-available cells are stored as nulls.
func parquetSchema(tbl *table.Table) *parquet.Schema {
	group := parquet.Group{
		"datetime": parquet.Timestamp(parquet.Millisecond),
		"volume":   parquet.Int(64),
	}
	for _, c := range types.RawColumns[:4] {
		group[c] = parquet.Leaf(parquet.DoubleType)
	}
	for _, c := range tbl.Columns() {
		group[c] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
	return parquet.NewSchema("bars", group)
}

func WriteParquetFile(path string, tbl *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()

	return WriteParquet(f, tbl)
}

// WriteParquet writes the table as a single Parquet file. Decimal values
// are stored as doubles.
func WriteParquet(w io.Writer, tbl *table.Table) error {
	schema := parquetSchema(tbl)

	// Group fields are ordered by name; each field is a leaf column.
	columnIndex := make(map[string]int, len(schema.Fields()))
	for i, f := range schema.Fields() {
		columnIndex[f.Name()] = i
	}
	derived := tbl.Columns()

	pw := parquet.NewWriter(w, schema)
	rows := make([]parquet.Row, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		r, err := tbl.Row(i)
		if err != nil {
			return err
		}
		row := make(parquet.Row, len(columnIndex))
		set := func(name string, v parquet.Value, definition int) {
			idx := columnIndex[name]
			row[idx] = v.Level(0, definition, idx)
		}
		set("datetime", parquet.Int64Value(r.Bar.Timestamp.UnixMilli()), 0)
		set("volume", parquet.Int64Value(r.Bar.Volume), 0)
		for _, c := range types.RawColumns[:4] {
			d, _ := r.Bar.Field(c)
			set(c, parquet.DoubleValue(d.InexactFloat64()), 0)
		}
		for j, c := range derived {
			v := r.Derived[j]
			if !v.Valid {
				set(c, parquet.NullValue(), 0)
				continue
			}
			set(c, parquet.DoubleValue(v.Decimal.InexactFloat64()), 1)
		}
		rows = append(rows, row)
	}
	if _, err := pw.WriteRows(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

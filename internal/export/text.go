package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"transformer/internal/table"
)

const missingText = "NaN"

// WriteText prints the table as aligned columns.
func WriteText(w io.Writer, tbl *table.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, strings.Join(header(tbl), "\t")+"\t"); err != nil {
		return err
	}
	for i := 0; i < tbl.Len(); i++ {
		row, err := tbl.Row(i)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(tw, strings.Join(record(row, missingText), "\t")+"\t"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(tw, "\n[%d rows x %d columns]\n", tbl.Len(), len(header(tbl))-1); err != nil {
		return err
	}
	return tw.Flush()
}

package tabular

import (
	"encoding/csv"
	"io"

	"clia-tracker/core/record"
)

// Write serializes a set as CSV: one header row, then one row per record in
// the set's column order.
func Write(w io.Writer, set *record.Set) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(set.Columns); err != nil {
		return err
	}
	for _, r := range set.Records {
		if err := cw.Write(r.Row(set.Columns)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

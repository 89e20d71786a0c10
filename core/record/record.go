package record

import (
	"fmt"
	"strings"
)

// NullTokens are cell values treated as missing when normalizing input.
var NullTokens = []string{"nan", "NaN", "None", "NULL", "null", "<NA>"}

// Normalize trims a raw cell and maps null tokens to the empty string.
func Normalize(raw string) string {
	v := strings.TrimSpace(raw)
	for _, tok := range NullTokens {
		if v == tok {
			return ""
		}
	}
	return v
}

// Origin identifies where a record was read from.
type Origin struct {
	// Source is the file path or URI of the input.
	Source string `json:"source" yaml:"source"`
	// Line is the 1-indexed line number within the source (0 if unknown).
	Line int `json:"line" yaml:"line"`
}

// String renders the origin as "source:line".
func (o Origin) String() string {
	if o.Line == 0 {
		return o.Source
	}
	return fmt.Sprintf("%s:%d", o.Source, o.Line)
}

// Record is a single registry row.
type Record struct {
	// Key is the value of the set's key column.
	Key string
	// Values maps column name to cell value. The key column is included.
	Values map[string]string
	// Origin is where the record was read from.
	Origin Origin
}

// New builds a record from a value map, reading the key from keyColumn.
func New(keyColumn string, values map[string]string) Record {
	return Record{Key: values[keyColumn], Values: values}
}

// Get returns the value of a column, or "" if the record lacks it.
func (r Record) Get(column string) string {
	return r.Values[column]
}

// Fill returns a copy of the record carrying exactly the given columns.
// Columns the record lacks are set to the empty value.
func (r Record) Fill(columns []string) Record {
	values := make(map[string]string, len(columns))
	for _, c := range columns {
		values[c] = r.Values[c]
	}
	return Record{Key: r.Key, Values: values, Origin: r.Origin}
}

// Row returns the record's values in column order.
func (r Record) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = r.Values[c]
	}
	return row
}

// Package record defines the in-memory representation of registry rows.
//
// A Set is an ordered collection of Records read from one tabular source. Every
// Set declares its key column (the unique identifier of a facility, e.g. "CLIA")
// and the ordered list of columns it carries. Column sets may differ between
// sources; consumers never look columns up ad hoc, they go through Record.Get,
// which treats a missing column as the empty (null) value.
//
// # Null handling
//
// The empty string is the only null representation. Loaders normalize the
// null tokens emitted by spreadsheet and dataframe tools (see NullTokens)
// before building a Record.
//
// # Usage
//
//	set := record.NewSet("master.csv", "CLIA", []string{"CLIA", "LAB_NAME"})
//	set.Append(record.New("CLIA", map[string]string{"CLIA": "01D0000001", "LAB_NAME": "X"}))
//	idx, err := set.Index()
package record

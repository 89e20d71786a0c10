// Package tabular reads and writes delimited registry files.
//
// Load turns a CSV stream into a record.Set. The first row is the header unless
// the Options declare the columns up front (captures exported from the CDC lab
// search come without one). The key column must be present; every row must
// carry a non-empty key and no more fields than there are columns. Short rows
// are padded with the empty value.
//
// LoadAll loads several inputs concurrently and returns them in argument order,
// so the caller can combine them deterministically.
//
// # Usage
//
//	set, err := tabular.LoadFile("Master/Master.csv", tabular.Options{KeyColumn: "CLIA"})
//	var loadErr *tabular.LoadError
//	if errors.As(err, &loadErr) {
//	    fmt.Println(loadErr.Path, loadErr.Reason)
//	}
package tabular

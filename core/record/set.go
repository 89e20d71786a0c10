package record

import "fmt"

// Set is an ordered collection of records sharing a key column.
type Set struct {
	// Name is a human readable label, usually the source path.
	Name string
	// KeyColumn is the name of the unique identifier column.
	KeyColumn string
	// Columns lists the columns in output order. It always contains KeyColumn.
	Columns []string
	// Records holds the rows in source order.
	Records []Record
}

// NewSet creates an empty set. The key column is prepended to columns if absent.
func NewSet(name, keyColumn string, columns []string) *Set {
	cols := make([]string, 0, len(columns)+1)
	if !contains(columns, keyColumn) {
		cols = append(cols, keyColumn)
	}
	cols = append(cols, columns...)
	return &Set{Name: name, KeyColumn: keyColumn, Columns: cols}
}

// Len returns the number of records.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Append adds records to the end of the set.
func (s *Set) Append(records ...Record) {
	s.Records = append(s.Records, records...)
}

// Keys returns the record keys in order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, s.Len())
	for _, r := range s.Records {
		keys = append(keys, r.Key)
	}
	return keys
}

// HasColumn reports whether the set declares the column.
func (s *Set) HasColumn(column string) bool {
	return contains(s.Columns, column)
}

// Attributes returns the declared columns other than the key column.
func (s *Set) Attributes() []string {
	attrs := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c != s.KeyColumn {
			attrs = append(attrs, c)
		}
	}
	return attrs
}

// Index builds a key to record map.
// It returns a *DuplicateKeyError on the first key seen twice.
func (s *Set) Index() (map[string]Record, error) {
	idx := make(map[string]Record, s.Len())
	for _, r := range s.Records {
		if prev, ok := idx[r.Key]; ok {
			return nil, &DuplicateKeyError{Set: s.Name, Key: r.Key, First: prev.Origin, Second: r.Origin}
		}
		idx[r.Key] = r
	}
	return idx, nil
}

// Filter returns a new set with the records matching keep, sharing columns.
func (s *Set) Filter(name string, keep func(Record) bool) *Set {
	out := &Set{Name: name, KeyColumn: s.KeyColumn, Columns: append([]string(nil), s.Columns...)}
	for _, r := range s.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Head returns at most n records from the front of the set.
func (s *Set) Head(n int) []Record {
	if n < 0 || n >= s.Len() {
		return s.Records
	}
	return s.Records[:n]
}

// DuplicateKeyError reports a key found twice in a set that must be unique.
type DuplicateKeyError struct {
	Set    string
	Key    string
	First  Origin
	Second Origin
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q in %s (first at %s, again at %s)", e.Key, e.Set, e.First, e.Second)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

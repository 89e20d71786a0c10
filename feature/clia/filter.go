package clia

import (
	"fmt"
	"regexp"
	"strings"

	"clia-tracker/core/record"
)

// Filter selects records whose column value matches a pattern at its start.
type Filter struct {
	Title   string
	Column  string
	Pattern *regexp.Regexp
}

// NewFilter compiles a filter. The expression is anchored at the start of the
// value, so "AL" matches "AL" and "ALASKA" but not "DALLAS".
func NewFilter(title, column, expr string) (Filter, error) {
	re, err := regexp.Compile("^(?:" + expr + ")")
	if err != nil {
		return Filter{}, fmt.Errorf("invalid filter pattern %q: %w", expr, err)
	}
	if title == "" {
		title = fmt.Sprintf("Labs where %s matches '%s'", column, expr)
	}
	return Filter{Title: title, Column: column, Pattern: re}, nil
}

// ParseFilter parses a COLUMN=REGEX flag value.
func ParseFilter(s string) (Filter, error) {
	column, expr, ok := strings.Cut(s, "=")
	column = strings.TrimSpace(column)
	if !ok || column == "" {
		return Filter{}, fmt.Errorf("invalid filter %q (want COLUMN=REGEX)", s)
	}
	return NewFilter("", column, expr)
}

// ParseFilters parses every flag value, stopping at the first bad one.
func ParseFilters(values []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(values))
	for _, v := range values {
		f, err := ParseFilter(v)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// DefaultFilters are the views shown in extra mode when none are given.
func DefaultFilters() []Filter {
	return []Filter{
		mustFilter("Labs in Alabama only", "STATE", "AL"),
		mustFilter("Labs with License 'Compliance'", "CERTIFICATE_TYPE", "Compliance"),
		mustFilter("Labs in City 'Anchorage'", "CITY", "Anchorage"),
	}
}

func mustFilter(title, column, expr string) Filter {
	f, err := NewFilter(title, column, expr)
	if err != nil {
		panic(err)
	}
	return f
}

// Match reports whether r passes the filter.
func (f Filter) Match(r record.Record) bool {
	return f.Pattern.MatchString(r.Get(f.Column))
}

// Apply returns the records of set passing the filter.
func (f Filter) Apply(set *record.Set) *record.Set {
	return set.Filter(set.Name+"_"+strings.ToLower(f.Column), f.Match)
}

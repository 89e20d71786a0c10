package tabular

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Config holds input parsing settings.
type Config struct {
	// Headerless marks inputs without a header row.
	Headerless bool `mapstructure:"headerless" default:"false"`
	// Columns is the comma separated column list used for headerless inputs.
	// Empty means the CLIA preset.
	Columns string `mapstructure:"columns" default:""`
	// Delimiter is the field separator.
	Delimiter string `mapstructure:"delimiter" default:","`
	// Concurrency bounds how many inputs are parsed at once.
	Concurrency int `mapstructure:"concurrency" default:"4"`
}

// Options converts the configuration into parser options. preset is used when
// the input is headerless and no columns are configured.
func (c Config) Options(keyColumn string, preset []string) (Options, error) {
	opts := Options{KeyColumn: keyColumn, Concurrency: c.Concurrency}

	if c.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(c.Delimiter)
		if size != len(c.Delimiter) || r == '"' || r == '\r' || r == '\n' {
			return Options{}, fmt.Errorf("invalid delimiter %q", c.Delimiter)
		}
		opts.Delimiter = r
	}

	if c.Headerless || c.Columns != "" {
		cols := SplitColumns(c.Columns)
		if len(cols) == 0 {
			cols = append([]string(nil), preset...)
		}
		if len(cols) == 0 {
			return Options{}, fmt.Errorf("headerless input needs a column list")
		}
		opts.Columns = cols
	}
	return opts, nil
}

// SplitColumns splits a comma separated list, trimming blanks.
func SplitColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

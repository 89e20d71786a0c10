package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format selects how a document is printed.
type Format string

const (
	// FormatTable prints banners and tables.
	FormatTable Format = "table"
	// FormatJSON prints the document as JSON.
	FormatJSON Format = "json"
	// FormatYAML prints the document as YAML.
	FormatYAML Format = "yaml"
)

// maxBanner caps the width of banner lines.
const maxBanner = 200

// ParseFormat validates a format name. The empty string is accepted.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case FormatTable, FormatJSON, FormatYAML, "":
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q (want table, json or yaml)", s)
	}
}

// DetectFormat returns the explicit format, or table when none is given.
// Piped output stays a table; JSON and YAML are only printed on request.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	return FormatTable
}

// Reporter prints documents.
type Reporter struct {
	w      io.Writer
	format Format
}

// New creates a reporter writing to w.
func New(w io.Writer, format Format) *Reporter {
	if format == "" {
		format = FormatTable
	}
	return &Reporter{w: w, format: format}
}

// Render prints the document in the reporter's format.
func (r *Reporter) Render(doc *Document) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		data, err := yaml.MarshalWithOptions(doc, yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return err
		}
		_, err = r.w.Write(data)
		return err
	default:
		return r.renderTables(doc)
	}
}

// Banner prints a title between two lines of stars.
func (r *Reporter) Banner(title string) {
	width := len(title)
	if width > maxBanner {
		width = maxBanner
	}
	stars := strings.Repeat("*", width)
	fmt.Fprintf(r.w, "\n%s\n%s\n%s\n\n", stars, title, stars)
}

func (r *Reporter) renderTables(doc *Document) error {
	if doc.MaxRows >= 0 {
		fmt.Fprintf(r.w, "Number of rows displayed restricted to '%d'\n", doc.MaxRows)
	}

	for _, s := range doc.Sections {
		r.Banner(s.Title)
		if s.Total == 0 {
			fmt.Fprintln(r.w, "(none)")
			continue
		}
		if err := r.table(s.Columns, s.Rows); err != nil {
			return err
		}
		if s.Truncated {
			fmt.Fprintf(r.w, "... %d more rows not shown\n", s.Total-len(s.Rows))
		}
		fmt.Fprintf(r.w, "[%d rows]\n", s.Total)
	}

	if doc.Run != nil && len(doc.Run.SchemaWarnings) > 0 {
		r.Banner("Schema warnings")
		for _, w := range doc.Run.SchemaWarnings {
			fmt.Fprintln(r.w, w.String())
		}
	}

	if len(doc.Files) > 0 {
		r.Banner("Results saved to CSV files")
		rows := make([][]string, 0, len(doc.Files))
		for _, f := range doc.Files {
			rows = append(rows, []string{label(f.Set), f.Path})
		}
		if err := r.table([]string{"Set", "Path"}, rows); err != nil {
			return err
		}
	}

	r.Banner("Summary")
	if err := r.table([]string{"Count", "Records"}, summaryRows(doc)); err != nil {
		return err
	}

	r.Banner(fmt.Sprintf("Total number of records in new master: %d", doc.Summary.NewMaster))
	return nil
}

func (r *Reporter) table(headers []string, rows [][]string) error {
	t := tablewriter.NewTable(r.w, tablewriter.WithConfig(tablewriter.Config{}))

	h := make([]any, len(headers))
	for i, v := range headers {
		h[i] = v
	}
	t.Header(h...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		if err := t.Append(cells...); err != nil {
			return err
		}
	}
	return t.Render()
}

func summaryRows(doc *Document) [][]string {
	s := doc.Summary
	rows := [][]string{
		{label("baseline"), strconv.Itoa(s.Baseline)},
		{label("combined"), strconv.Itoa(s.Combined)},
		{label("new"), strconv.Itoa(s.New)},
		{label("closed"), strconv.Itoa(s.Closed)},
		{label("unchanged"), strconv.Itoa(s.Unchanged)},
		{label("new_master"), strconv.Itoa(s.NewMaster)},
		{label("duplicates_collapsed"), strconv.Itoa(s.Duplicates)},
	}
	if s.BaselineDuplicates > 0 {
		rows = append(rows, []string{label("baseline_duplicates_collapsed"), strconv.Itoa(s.BaselineDuplicates)})
	}
	return rows
}

// label turns a snake_case name into a title, e.g. "new_master" -> "New Master".
func label(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

package report

import (
	"clia-tracker/core/output"
	"clia-tracker/core/reconcile"
	"clia-tracker/core/record"
)

// Section is a capped preview of one record set.
type Section struct {
	// Title is the heading shown above the rows.
	Title string `json:"title" yaml:"title"`
	// Set is the record set name.
	Set string `json:"set" yaml:"set"`
	// Columns are the header names.
	Columns []string `json:"columns" yaml:"columns"`
	// Rows are the previewed rows, at most the cap.
	Rows [][]string `json:"rows" yaml:"rows"`
	// Total is the number of records in the set.
	Total int `json:"total" yaml:"total"`
	// Truncated is true when Rows holds fewer than Total records.
	Truncated bool `json:"truncated" yaml:"truncated"`
}

// Document is everything a report shows about a run.
type Document struct {
	Run      *reconcile.Run    `json:"run" yaml:"run"`
	Summary  reconcile.Summary `json:"summary" yaml:"summary"`
	Sections []Section         `json:"sections" yaml:"sections"`
	Files    []output.File     `json:"files,omitempty" yaml:"files,omitempty"`
	// MaxRows is the preview cap applied to every section.
	MaxRows int `json:"max_rows" yaml:"max_rows"`
}

// Titles of the four output set sections.
const (
	TitleNew       = "New (records in new data not present in the baseline)"
	TitleClosed    = "Closed (records present only in the baseline)"
	TitleUnchanged = "Unchanged (records present in the baseline and new data)"
	TitleNewMaster = "New master (unchanged + new)"
)

// NewDocument builds a document with one section per output set.
// A negative maxRows disables the cap.
func NewDocument(run *reconcile.Run, files []output.File, maxRows int) *Document {
	doc := &Document{Run: run, Files: files, MaxRows: maxRows}
	if run.Result == nil {
		return doc
	}
	res := run.Result
	doc.Summary = res.Summary
	doc.Add(TitleNew, res.New)
	doc.Add(TitleClosed, res.Closed)
	doc.Add(TitleUnchanged, res.Unchanged)
	doc.Add(TitleNewMaster, res.NewMaster)
	return doc
}

// Add appends a section previewing set.
func (d *Document) Add(title string, set *record.Set) {
	head := set.Head(d.MaxRows)
	rows := make([][]string, 0, len(head))
	for _, r := range head {
		rows = append(rows, r.Row(set.Columns))
	}
	d.Sections = append(d.Sections, Section{
		Title:     title,
		Set:       set.Name,
		Columns:   set.Columns,
		Rows:      rows,
		Total:     set.Len(),
		Truncated: len(rows) < set.Len(),
	})
}

// Prepend inserts a section before the output set sections.
func (d *Document) Prepend(title string, set *record.Set) {
	d.Add(title, set)
	last := d.Sections[len(d.Sections)-1]
	copy(d.Sections[1:], d.Sections[:len(d.Sections)-1])
	d.Sections[0] = last
}

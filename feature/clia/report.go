package clia

import (
	"clia-tracker/core/report"
)

// Section titles of extra mode.
const (
	TitleBaseline = "Old Master data"
	TitleCombined = "New data combined from new data file(s)"
)

// Document builds the report of an outcome. In extra mode the baseline and
// combined sets lead the report and DefaultFilters apply when filters is
// empty. Every filter adds a view of the new master after the output sets.
func (o *Outcome) Document(maxRows int, extra bool, filters []Filter) *report.Document {
	doc := report.NewDocument(o.Run, o.Files, maxRows)

	if extra {
		doc.Prepend(TitleCombined, o.Combined)
		doc.Prepend(TitleBaseline, o.Baseline)
		if len(filters) == 0 {
			filters = DefaultFilters()
		}
	}

	master := o.Run.Result.NewMaster
	for _, f := range filters {
		doc.Add(f.Title, f.Apply(master))
	}
	return doc
}

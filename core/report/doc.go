// Package report renders reconciliation results for people and pipelines.
//
// A Document gathers a run's summary, capped previews of its record sets, and
// the files written. The Reporter prints it as banner-separated tables by
// default, or as JSON or YAML when that format is requested.
//
// # Usage
//
//	doc := report.NewDocument(run, files, cfg.Output.MaxRows)
//	doc.Add("Labs in Alabama only", filtered)
//	err := report.New(os.Stdout, report.DetectFormat(cfg.Output.Format)).Render(doc)
package report

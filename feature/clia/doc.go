// Package clia reconciles CDC CLIA laboratory registry captures.
//
// A Service loads a baseline master and one or more new captures (local files
// or s3:// objects), combines the captures, classifies every lab as new,
// closed or unchanged, and writes the results. It optionally publishes the
// output files to object storage and exports the run to a database.
//
// # Captures
//
// Captures saved from the CDC lab search have no header row. The Columns
// preset describes their layout and is selected with "--columns clia" or
// "--headerless".
//
// # HTTP
//
// The Feature registers:
//   - POST /reconcile: multipart upload of "baseline" and "new" files
//   - GET /reconcile/columns: the capture layout
//
// # Extra views
//
// In extra mode the report also shows the baseline, the combined captures, and
// the new master filtered by each Filter (DefaultFilters when none are given).
package clia

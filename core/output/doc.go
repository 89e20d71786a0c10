// Package output persists the result of a run to a directory.
//
// Each of the four output sets becomes one CSV file named
// "<prefix>_<set>_<timestamp>.csv", and a YAML manifest
// "<prefix>_manifest_<timestamp>.yaml" records the run ID, inputs, counts,
// collapsed duplicates, and schema warnings for traceability.
//
// Writing is all-or-nothing: files are first written as temporaries in the
// target directory and only renamed into place once every file has been
// written. On failure the temporaries are removed and no output remains.
package output

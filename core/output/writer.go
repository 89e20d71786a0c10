package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"clia-tracker/core/reconcile"
	"clia-tracker/core/record"
	"clia-tracker/core/tabular"

	"github.com/goccy/go-yaml"
)

// TimestampLayout formats the generation time in file names.
const TimestampLayout = "20060102-150405"

// File is one written output.
type File struct {
	// Set is the output set name, or "manifest".
	Set string `json:"set" yaml:"set"`
	// Path is the final location of the file.
	Path string `json:"path" yaml:"path"`
	// Rows is the number of records written (0 for the manifest).
	Rows int `json:"rows" yaml:"rows"`
}

// Manifest is the YAML document written next to the output sets.
type Manifest struct {
	Run     *reconcile.Run    `yaml:"run"`
	Summary reconcile.Summary `yaml:"summary"`
	Files   []File            `yaml:"files"`
}

// Writer writes runs to a directory.
type Writer struct {
	Dir    string
	Prefix string
}

// NewWriter creates a writer from configuration.
func NewWriter(cfg Config) *Writer {
	return &Writer{Dir: cfg.Dir, Prefix: cfg.Prefix}
}

// FileName returns the name of a set's file for a generation time.
func (w *Writer) FileName(set string, run *reconcile.Run, ext string) string {
	return w.fileName(set, run, ext, false)
}

// fileName appends the first eight characters of the run ID when tagged.
func (w *Writer) fileName(set string, run *reconcile.Run, ext string, tagged bool) string {
	name := fmt.Sprintf("%s_%s_%s", w.Prefix, set, run.GeneratedAt.UTC().Format(TimestampLayout))
	if tagged {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		name += "_" + id
	}
	return name + ext
}

var outputSets = []string{"new", "closed", "unchanged", "new_master", "manifest"}

// exists reports whether any file of the run is already present.
func (w *Writer) exists(run *reconcile.Run, tagged bool) bool {
	for _, set := range outputSets {
		ext := ".csv"
		if set == "manifest" {
			ext = ".yaml"
		}
		if _, err := os.Stat(filepath.Join(w.Dir, w.fileName(set, run, ext, tagged))); err == nil {
			return true
		}
	}
	return false
}

type pending struct {
	tmp  string
	file File
}

// Write stores the four output sets and the manifest. Either every file is
// written or none is.
func (w *Writer) Write(run *reconcile.Run) (files []File, err error) {
	if run.Result == nil {
		return nil, errors.New("output: run has no result")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", w.Dir, err)
	}

	// A run never replaces the files of another one.
	tagged := w.exists(run, false)
	if tagged && w.exists(run, true) {
		return nil, fmt.Errorf("output files of run %s already exist in %s", run.ID, w.Dir)
	}

	var staged []pending
	defer func() {
		if err != nil {
			for _, p := range staged {
				_ = os.Remove(p.tmp)
			}
		}
	}()

	res := run.Result
	for _, set := range []*record.Set{res.New, res.Closed, res.Unchanged, res.NewMaster} {
		p, err := w.stage(w.fileName(set.Name, run, ".csv", tagged), func(f *os.File) error {
			return tabular.Write(f, set)
		})
		if err != nil {
			return nil, err
		}
		p.file.Set = set.Name
		p.file.Rows = set.Len()
		staged = append(staged, p)
	}

	manifest := Manifest{Run: run, Summary: res.Summary}
	for _, p := range staged {
		manifest.Files = append(manifest.Files, p.file)
	}
	p, err := w.stage(w.fileName("manifest", run, ".yaml", tagged), func(f *os.File) error {
		data, err := yaml.MarshalWithOptions(manifest, yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return err
		}
		_, err = f.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.file.Set = "manifest"
	staged = append(staged, p)

	for i, p := range staged {
		if err := os.Rename(p.tmp, p.file.Path); err != nil {
			// Undo the renames already done so no partial run remains.
			for _, done := range staged[:i] {
				_ = os.Remove(done.file.Path)
			}
			return nil, fmt.Errorf("failed to move %s into place: %w", p.file.Path, err)
		}
		files = append(files, p.file)
	}
	return files, nil
}

func (w *Writer) stage(name string, fill func(*os.File) error) (pending, error) {
	final := filepath.Join(w.Dir, name)
	f, err := os.CreateTemp(w.Dir, "."+name+".*.tmp")
	if err != nil {
		return pending{}, fmt.Errorf("failed to create %s: %w", final, err)
	}
	p := pending{tmp: f.Name(), file: File{Path: final}}

	if err := fill(f); err != nil {
		f.Close()
		os.Remove(p.tmp)
		return pending{}, fmt.Errorf("failed to write %s: %w", final, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p.tmp)
		return pending{}, fmt.Errorf("failed to close %s: %w", final, err)
	}
	return p, nil
}

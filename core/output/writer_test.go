package output_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clia-tracker/core/output"
	"clia-tracker/core/reconcile"
	"clia-tracker/core/record"
	"clia-tracker/core/tabular"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun(t *testing.T) *reconcile.Run {
	baseline, err := tabular.Load(strings.NewReader("CLIA,LAB_NAME\nA1,X\nC1,Closed Lab\n"), "master.csv", tabular.Options{})
	require.NoError(t, err)
	newData, err := tabular.Load(strings.NewReader("CLIA,LAB_NAME\nA1,Y\nB1,Z\n"), "data1.csv", tabular.Options{})
	require.NoError(t, err)

	combined, stats := reconcile.Combine([]*record.Set{newData})
	res, err := reconcile.Reconcile(baseline, combined, reconcile.Options{})
	require.NoError(t, err)

	return &reconcile.Run{
		ID:          "run-1",
		GeneratedAt: time.Date(2026, 10, 18, 9, 30, 5, 0, time.UTC),
		Baseline:    "master.csv",
		Inputs:      []string{"data1.csv"},
		KeyColumn:   "CLIA",
		Stats:       stats,
		Result:      res,
	}
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Output")
	w := output.NewWriter(output.Config{Dir: dir, Prefix: "clia"})

	files, err := w.Write(testRun(t))
	require.NoError(t, err)
	require.Len(t, files, 5)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
	}
	assert.Equal(t, []string{
		"clia_new_20261018-093005.csv",
		"clia_closed_20261018-093005.csv",
		"clia_unchanged_20261018-093005.csv",
		"clia_new_master_20261018-093005.csv",
		"clia_manifest_20261018-093005.yaml",
	}, names)

	master, err := os.ReadFile(filepath.Join(dir, "clia_new_master_20261018-093005.csv"))
	require.NoError(t, err)
	assert.Equal(t, "CLIA,LAB_NAME\nA1,Y\nB1,Z\n", string(master))

	closed, err := os.ReadFile(filepath.Join(dir, "clia_closed_20261018-093005.csv"))
	require.NoError(t, err)
	assert.Equal(t, "CLIA,LAB_NAME\nC1,Closed Lab\n", string(closed))

	raw, err := os.ReadFile(filepath.Join(dir, "clia_manifest_20261018-093005.yaml"))
	require.NoError(t, err)
	var manifest struct {
		Run struct {
			ID     string   `yaml:"id"`
			Inputs []string `yaml:"inputs"`
		} `yaml:"run"`
		Summary reconcile.Summary `yaml:"summary"`
		Files   []output.File     `yaml:"files"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &manifest))
	assert.Equal(t, "run-1", manifest.Run.ID)
	assert.Equal(t, []string{"data1.csv"}, manifest.Run.Inputs)
	assert.Equal(t, 1, manifest.Summary.Closed)
	assert.Equal(t, 2, manifest.Summary.NewMaster)
	assert.Len(t, manifest.Files, 4)

	// No temporaries remain.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestWriter_NothingWrittenOnFailure(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "Output")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	w := output.NewWriter(output.Config{Dir: blocker, Prefix: "clia"})
	_, err := w.Write(testRun(t))
	require.Error(t, err)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriter_RequiresResult(t *testing.T) {
	w := output.NewWriter(output.Config{Dir: t.TempDir(), Prefix: "clia"})
	_, err := w.Write(&reconcile.Run{ID: "empty"})
	assert.Error(t, err)
}

func TestWriter_SameSecondRuns(t *testing.T) {
	dir := t.TempDir()
	w := output.NewWriter(output.Config{Dir: dir, Prefix: "clia"})

	first := testRun(t)
	first.ID = "aaaaaaaa-1111"
	second := testRun(t)
	second.ID = "bbbbbbbb-2222"

	firstFiles, err := w.Write(first)
	require.NoError(t, err)
	secondFiles, err := w.Write(second)
	require.NoError(t, err)

	assert.Equal(t, "clia_new_master_20261018-093005.csv", filepath.Base(firstFiles[3].Path))
	assert.Equal(t, "clia_new_master_20261018-093005_bbbbbbbb.csv", filepath.Base(secondFiles[3].Path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	_, err = w.Write(second)
	assert.ErrorContains(t, err, "already exist")
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

package clia

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clia-tracker/core/output"
	"clia-tracker/core/reconcile"
	"clia-tracker/core/storage"
	"clia-tracker/core/tabular"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	masterCSV = "CLIA,LAB_NAME,CITY\nA,Lab A,Juneau\nB,Lab B,Nome\nC,Lab C,Sitka\n"
	data1CSV  = "CLIA,LAB_NAME,CITY\nB,Lab B2,Nome\nD,Lab D,Anchorage\n"
	data2CSV  = "CLIA,LAB_NAME,CITY\nC,Lab C,Sitka\nD,Lab D2,Anchorage\n"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func testSettings() Settings {
	return Settings{
		Reconcile: reconcile.Config{KeyColumn: "CLIA", BaselineDuplicates: "reject", MaxClosedRatio: 0},
		Input:     tabular.Config{Delimiter: ",", Concurrency: 2},
		Bucket:    "registry",
		Prefix:    "reconcile",
	}
}

func newTestService(t *testing.T, settings Settings, store storage.Client, exporter Exporter) (*Service, string) {
	t.Helper()
	outDir := filepath.Join(t.TempDir(), "Output")
	writer := output.NewWriter(output.Config{Dir: outDir, Prefix: "clia"})
	return NewService(settings, writer, store, exporter, zap.NewNop()), outDir
}

type fakeExporter struct {
	runs []*reconcile.Run
	err  error
}

func (f *fakeExporter) Export(_ context.Context, run *reconcile.Run) error {
	f.runs = append(f.runs, run)
	return f.err
}

func presetRow(fields ...string) string {
	row := make([]string, len(Columns))
	copy(row, fields)
	return strings.Join(row, ",")
}

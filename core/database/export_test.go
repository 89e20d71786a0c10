package database

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"clia-tracker/core/reconcile"
	"clia-tracker/core/record"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func sampleRun(t *testing.T) *reconcile.Run {
	baseline := record.NewSet("master.csv", "CLIA", []string{"LAB_NAME"})
	baseline.Append(
		record.New("CLIA", map[string]string{"CLIA": "K1", "LAB_NAME": "Old"}),
		record.New("CLIA", map[string]string{"CLIA": "K2", "LAB_NAME": "Gone"}),
	)
	newData := record.NewSet("data1.csv", "CLIA", []string{"LAB_NAME"})
	newData.Append(
		record.New("CLIA", map[string]string{"CLIA": "K1", "LAB_NAME": "Renamed"}),
		record.New("CLIA", map[string]string{"CLIA": "K3", "LAB_NAME": "Fresh"}),
	)
	combined, stats := reconcile.Combine([]*record.Set{newData})
	res, err := reconcile.Reconcile(baseline, combined, reconcile.Options{})
	require.NoError(t, err)

	return &reconcile.Run{
		ID:          "6f1c1f3e-0000-4000-8000-000000000001",
		GeneratedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Baseline:    "master.csv",
		Inputs:      []string{"data1.csv"},
		KeyColumn:   "CLIA",
		Stats:       stats,
		Result:      res,
	}
}

func TestExporter_SQLite(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: filepath.Join(t.TempDir(), "export.db")})
	require.NoError(t, err)

	exp := NewExporter(db)
	exp.BatchSize = 2
	require.NoError(t, exp.Migrate())

	run := sampleRun(t)
	require.NoError(t, exp.Export(context.Background(), run))

	var stored RunRow
	require.NoError(t, db.First(&stored, "id = ?", run.ID).Error)
	assert.Equal(t, 2, stored.BaselineCount)
	assert.Equal(t, 1, stored.NewCount)
	assert.Equal(t, 1, stored.ClosedCount)
	assert.Equal(t, 1, stored.UnchangedCount)
	assert.Equal(t, 2, stored.NewMasterCount)
	assert.Equal(t, "data1.csv", stored.Inputs)

	var count int64
	require.NoError(t, db.Model(&RecordRow{}).Where("run_id = ?", run.ID).Count(&count).Error)
	assert.Equal(t, int64(5), count)

	var closed RecordRow
	require.NoError(t, db.Where("run_id = ? AND set_name = ?", run.ID, "closed").First(&closed).Error)
	assert.Equal(t, "K2", closed.RecordKey)
	var attrs map[string]string
	require.NoError(t, json.Unmarshal([]byte(closed.Attributes), &attrs))
	assert.Equal(t, "Gone", attrs["LAB_NAME"])

	// The same run ID cannot be exported twice.
	assert.Error(t, exp.Export(context.Background(), run))
}

func TestExporter_RollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `reconcile_runs`").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = NewExporter(gormDB).Export(context.Background(), sampleRun(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExporter_CommitsRunAndRecords(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `reconcile_runs`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `reconcile_records`").WillReturnResult(sqlmock.NewResult(1, 5))
	mock.ExpectCommit()

	err = NewExporter(gormDB).Export(context.Background(), sampleRun(t))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExporter_NoResult(t *testing.T) {
	err := NewExporter(nil).Export(context.Background(), &reconcile.Run{ID: "x"})
	assert.ErrorContains(t, err, "no result")
}

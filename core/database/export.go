package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"clia-tracker/core/reconcile"
	"clia-tracker/core/record"

	"gorm.io/gorm"
)

// RunRow is the exported summary of one reconciliation.
type RunRow struct {
	ID                 string `gorm:"primaryKey;size:36"`
	GeneratedAt        time.Time
	KeyColumn          string `gorm:"size:64"`
	Baseline           string `gorm:"size:1024"`
	Inputs             string `gorm:"type:text"`
	BaselineCount      int
	CombinedCount      int
	NewCount           int
	ClosedCount        int
	UnchangedCount     int
	NewMasterCount     int
	Duplicates         int
	BaselineDuplicates int
}

// TableName implements gorm's Tabler.
func (RunRow) TableName() string { return "reconcile_runs" }

// RecordRow is one record of one output set of a run.
// Attributes holds the record's values as a JSON object.
type RecordRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	RunID      string `gorm:"size:36;index"`
	SetName    string `gorm:"size:32;index"`
	Position   int
	RecordKey  string `gorm:"size:128;index"`
	Attributes string `gorm:"type:text"`
}

// TableName implements gorm's Tabler.
func (RecordRow) TableName() string { return "reconcile_records" }

var requiredRecordColumns = []string{"run_id", "set_name", "position", "record_key", "attributes"}

// Exporter writes completed runs to a database for auditing.
// It only ever appends; nothing reads the exported rows back.
type Exporter struct {
	db *gorm.DB
	// BatchSize is the number of records inserted per statement.
	BatchSize int
}

// NewExporter creates an exporter on an open connection.
func NewExporter(db *gorm.DB) *Exporter {
	return &Exporter{db: db, BatchSize: 500}
}

// Migrate creates or updates the export tables and checks they carry the
// columns Export writes.
func (e *Exporter) Migrate() error {
	if err := e.db.AutoMigrate(&RunRow{}, &RecordRow{}); err != nil {
		return fmt.Errorf("failed to migrate export tables: %w", err)
	}
	missing, err := MissingColumns(e.db, RecordRow{}.TableName(), requiredRecordColumns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s lacks columns %v", RecordRow{}.TableName(), missing)
	}
	return nil
}

// Export stores the run and the records of its four output sets in a single
// transaction.
func (e *Exporter) Export(ctx context.Context, run *reconcile.Run) error {
	if run.Result == nil {
		return fmt.Errorf("run %s has no result", run.ID)
	}
	res := run.Result
	s := res.Summary

	runRow := RunRow{
		ID:                 run.ID,
		GeneratedAt:        run.GeneratedAt,
		KeyColumn:          run.KeyColumn,
		Baseline:           run.Baseline,
		Inputs:             strings.Join(run.Inputs, "\n"),
		BaselineCount:      s.Baseline,
		CombinedCount:      s.Combined,
		NewCount:           s.New,
		ClosedCount:        s.Closed,
		UnchangedCount:     s.Unchanged,
		NewMasterCount:     s.NewMaster,
		Duplicates:         s.Duplicates,
		BaselineDuplicates: s.BaselineDuplicates,
	}

	var rows []RecordRow
	for _, set := range []*record.Set{res.New, res.Closed, res.Unchanged, res.NewMaster} {
		for i, r := range set.Records {
			attrs, err := json.Marshal(r.Values)
			if err != nil {
				return fmt.Errorf("failed to encode record %s: %w", r.Key, err)
			}
			rows = append(rows, RecordRow{
				RunID:      run.ID,
				SetName:    set.Name,
				Position:   i,
				RecordKey:  r.Key,
				Attributes: string(attrs),
			})
		}
	}

	batch := e.BatchSize
	if batch <= 0 {
		batch = 500
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&runRow).Error; err != nil {
			return fmt.Errorf("failed to export run %s: %w", run.ID, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, batch).Error; err != nil {
			return fmt.Errorf("failed to export records of run %s: %w", run.ID, err)
		}
		return nil
	})
}

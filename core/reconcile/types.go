package reconcile

import (
	"errors"
	"fmt"
	"time"

	"clia-tracker/core/record"
)

// DuplicatePolicy decides what happens when the baseline repeats a key.
type DuplicatePolicy string

const (
	// DuplicatesReject fails the run with a *record.DuplicateKeyError.
	DuplicatesReject DuplicatePolicy = "reject"
	// DuplicatesLastWins collapses baseline duplicates like Combine does.
	DuplicatesLastWins DuplicatePolicy = "last-wins"
)

// ParseDuplicatePolicy validates a policy name. The empty string means reject.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicatesReject:
		return DuplicatesReject, nil
	case DuplicatesLastWins:
		return DuplicatesLastWins, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q (want %q or %q)", s, DuplicatesReject, DuplicatesLastWins)
	}
}

// Config holds reconcile settings loaded from the environment.
type Config struct {
	// KeyColumn is the unique identifier column.
	KeyColumn string `mapstructure:"key_column" default:"CLIA"`
	// BaselineDuplicates is the DuplicatePolicy applied to the baseline.
	BaselineDuplicates string `mapstructure:"baseline_duplicates" default:"reject"`
	// MaxClosedRatio is the largest share of the baseline a run may close.
	// Zero or less disables the check, which is the default.
	MaxClosedRatio float64 `mapstructure:"max_closed_ratio" default:"0"`
}

// Options controls a single reconciliation.
type Options struct {
	// BaselineDuplicates applies to repeated keys in the baseline.
	BaselineDuplicates DuplicatePolicy
}

// Duplicate describes one collapsed key.
type Duplicate struct {
	// Key is the repeated key value.
	Key string `json:"key" yaml:"key"`
	// Kept is the origin of the record that won.
	Kept record.Origin `json:"kept" yaml:"kept"`
	// Dropped is the origin of the record that was replaced.
	Dropped record.Origin `json:"dropped" yaml:"dropped"`
}

// CombineStats reports what Combine did.
type CombineStats struct {
	// Inputs is the number of sets combined.
	Inputs int `json:"inputs" yaml:"inputs"`
	// Rows is the number of records read across all inputs.
	Rows int `json:"rows" yaml:"rows"`
	// Duplicates is the number of records collapsed into an earlier key.
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	// Collapsed lists every collapse in encounter order.
	Collapsed []Duplicate `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

// Summary provides aggregate counts for a run.
type Summary struct {
	// Baseline is the number of records in the baseline.
	Baseline int `json:"baseline" yaml:"baseline"`
	// Combined is the number of records in the combined new data.
	Combined int `json:"combined" yaml:"combined"`
	// New counts keys only present in the new data.
	New int `json:"new" yaml:"new"`
	// Closed counts keys only present in the baseline.
	Closed int `json:"closed" yaml:"closed"`
	// Unchanged counts keys present in both.
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	// NewMaster is the size of the next baseline.
	NewMaster int `json:"new_master" yaml:"new_master"`
	// Duplicates counts keys collapsed while combining new data.
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	// BaselineDuplicates counts keys collapsed in the baseline under last-wins.
	BaselineDuplicates int `json:"baseline_duplicates" yaml:"baseline_duplicates"`
}

// Result holds the four output sets of a reconciliation.
type Result struct {
	New       *record.Set
	Closed    *record.Set
	Unchanged *record.Set
	NewMaster *record.Set
	Summary   Summary
}

// ErrInvariant is wrapped by errors reporting a broken partition identity.
var ErrInvariant = errors.New("reconcile invariant violated")

// ErrExcessiveChurn is wrapped by CheckChurn failures.
var ErrExcessiveChurn = errors.New("excessive churn")

// SchemaMismatch reports a new-data input whose attributes differ from the baseline.
type SchemaMismatch struct {
	// Source is the input that differs.
	Source string `json:"source" yaml:"source"`
	// Missing lists baseline columns the input lacks.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	// Extra lists input columns the baseline lacks.
	Extra []string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

func (m SchemaMismatch) String() string {
	return fmt.Sprintf("%s: missing %v, extra %v", m.Source, m.Missing, m.Extra)
}

// Run describes one completed reconciliation together with its inputs.
// It is what reporters, writers, and exporters consume.
type Run struct {
	// ID uniquely identifies the run.
	ID string `json:"id" yaml:"id"`
	// GeneratedAt is when the run finished.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	// Baseline is the path or URI of the baseline input.
	Baseline string `json:"baseline" yaml:"baseline"`
	// Inputs lists the new-data inputs in combine order.
	Inputs []string `json:"inputs" yaml:"inputs"`
	// KeyColumn is the identifier column used.
	KeyColumn string `json:"key_column" yaml:"key_column"`
	// Stats reports the combine step.
	Stats CombineStats `json:"combine" yaml:"combine"`
	// SchemaWarnings lists inputs whose columns differ from the baseline.
	SchemaWarnings []SchemaMismatch `json:"schema_warnings,omitempty" yaml:"schema_warnings,omitempty"`
	// Result holds the output sets and summary.
	Result *Result `json:"-" yaml:"-"`
}

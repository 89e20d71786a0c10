package reconcile

import (
	"errors"
	"fmt"

	"clia-tracker/core/record"
)

// Reconcile partitions baseline and combined into new, closed, and unchanged
// sets and builds the next baseline.
// The combined set must have unique keys; Combine guarantees this, so a
// duplicate there is reported as an ErrInvariant failure.
func Reconcile(baseline, combined *record.Set, opts Options) (*Result, error) {
	if baseline == nil || combined == nil {
		return nil, errors.New("reconcile: baseline and combined sets are required")
	}

	policy := opts.BaselineDuplicates
	if policy == "" {
		policy = DuplicatesReject
	}

	var baselineDups int
	if policy == DuplicatesLastWins {
		var collapsed []Duplicate
		baseline, collapsed = collapse(baseline)
		baselineDups = len(collapsed)
	}

	baseIdx, err := baseline.Index()
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	newIdx, err := combined.Index()
	if err != nil {
		return nil, fmt.Errorf("%w: combined new data: %w", ErrInvariant, err)
	}

	res := &Result{
		New:       derive(combined, "new"),
		Closed:    derive(baseline, "closed"),
		Unchanged: derive(combined, "unchanged"),
		NewMaster: derive(combined, "new_master"),
	}

	for _, r := range combined.Records {
		if _, ok := baseIdx[r.Key]; ok {
			res.Unchanged.Append(r)
		} else {
			res.New.Append(r)
		}
	}
	for _, r := range baseline.Records {
		if _, ok := newIdx[r.Key]; !ok {
			res.Closed.Append(r)
		}
	}

	res.NewMaster.Records = make([]record.Record, 0, res.Unchanged.Len()+res.New.Len())
	res.NewMaster.Append(res.Unchanged.Records...)
	res.NewMaster.Append(res.New.Records...)

	res.Summary = Summary{
		Baseline:           baseline.Len(),
		Combined:           combined.Len(),
		New:                res.New.Len(),
		Closed:             res.Closed.Len(),
		Unchanged:          res.Unchanged.Len(),
		NewMaster:          res.NewMaster.Len(),
		BaselineDuplicates: baselineDups,
	}
	if err := res.Summary.Verify(); err != nil {
		return nil, err
	}
	return res, nil
}

// Verify checks the partition identities of a summary.
func (s Summary) Verify() error {
	if s.Unchanged+s.Closed != s.Baseline {
		return fmt.Errorf("%w: unchanged %d + closed %d != baseline %d", ErrInvariant, s.Unchanged, s.Closed, s.Baseline)
	}
	if s.Unchanged+s.New != s.Combined {
		return fmt.Errorf("%w: unchanged %d + new %d != combined %d", ErrInvariant, s.Unchanged, s.New, s.Combined)
	}
	if s.NewMaster != s.Combined {
		return fmt.Errorf("%w: new master %d != combined %d", ErrInvariant, s.NewMaster, s.Combined)
	}
	return nil
}

// CheckChurn fails when the run closes more than maxRatio of the baseline.
// A non-positive maxRatio or an empty baseline always passes.
func CheckChurn(s Summary, maxRatio float64) error {
	if maxRatio <= 0 || s.Baseline == 0 {
		return nil
	}
	ratio := float64(s.Closed) / float64(s.Baseline)
	if ratio > maxRatio {
		return fmt.Errorf("%w: run closes %d of %d baseline records (%.1f%%, limit %.1f%%)",
			ErrExcessiveChurn, s.Closed, s.Baseline, ratio*100, maxRatio*100)
	}
	return nil
}

// CompareSchemas lists the inputs whose attribute columns differ from the
// baseline's. Column order is ignored.
func CompareSchemas(baseline *record.Set, sets []*record.Set) []SchemaMismatch {
	var out []SchemaMismatch
	for _, s := range sets {
		var m SchemaMismatch
		for _, c := range baseline.Attributes() {
			if !s.HasColumn(c) {
				m.Missing = append(m.Missing, c)
			}
		}
		for _, c := range s.Attributes() {
			if !baseline.HasColumn(c) {
				m.Extra = append(m.Extra, c)
			}
		}
		if len(m.Missing) > 0 || len(m.Extra) > 0 {
			m.Source = s.Name
			out = append(out, m)
		}
	}
	return out
}

func derive(from *record.Set, name string) *record.Set {
	return &record.Set{Name: name, KeyColumn: from.KeyColumn, Columns: append([]string(nil), from.Columns...)}
}

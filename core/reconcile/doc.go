// Package reconcile compares a baseline registry against freshly captured data.
//
// The package is pure and synchronous: it takes record sets already in memory
// and returns record sets. It never touches files, storage, or the network.
//
// # Architecture
//
// The reconcile system consists of two steps:
//
// 1. Combine: merges the new-data sets (one per captured file) into a single set
//    keyed by the key column. Keys seen more than once are collapsed with a
//    last-write-wins rule (later file, then later row). Columns are the outer
//    union of every input's columns; records lacking a column get the empty value.
//    Every collapse is counted in CombineStats and can be observed through a hook.
//
// 2. Reconcile: builds key indexes for the baseline and the combined set and
//    partitions them into four sets:
//      - New:       keys in combined but not in baseline (combined order)
//      - Closed:    keys in baseline but not in combined (baseline order)
//      - Unchanged: keys in both, carrying the combined (latest) values
//      - NewMaster: Unchanged followed by New, the baseline of the next run
//
// Every result is checked against the partition identities
// |Unchanged|+|Closed| = |Baseline| and |Unchanged|+|New| = |Combined|.
//
// # Guards
//
// CompareSchemas reports inputs whose attribute columns differ from the
// baseline. CheckChurn rejects runs closing a suspicious share of the baseline,
// which usually means a truncated capture.
//
// # Usage Example
//
//	combined, stats := reconcile.Combine(newSets, reconcile.WithDuplicateHook(func(d reconcile.Duplicate) {
//	    log.Debug("duplicate collapsed", zap.String("key", d.Key))
//	}))
//	result, err := reconcile.Reconcile(baseline, combined, reconcile.Options{})
//	if err != nil {
//	    return err
//	}
//	result.Summary.Duplicates = stats.Duplicates
package reconcile

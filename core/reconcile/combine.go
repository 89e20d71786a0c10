package reconcile

import "clia-tracker/core/record"

// CombineOption configures Combine.
type CombineOption func(*combineConfig)

type combineConfig struct {
	name      string
	keyColumn string
	hook      func(Duplicate)
}

// WithName sets the name of the combined set. Defaults to "combined".
func WithName(name string) CombineOption {
	return func(c *combineConfig) { c.name = name }
}

// WithKeyColumn sets the key column of the combined set.
// Only needed when there may be no input sets to take it from.
func WithKeyColumn(column string) CombineOption {
	return func(c *combineConfig) { c.keyColumn = column }
}

// WithDuplicateHook registers a function called for every collapsed key.
// The hook observes the merge; it cannot change its outcome.
func WithDuplicateHook(fn func(Duplicate)) CombineOption {
	return func(c *combineConfig) { c.hook = fn }
}

// Combine merges the sets into one, in argument order then row order.
// A key seen again replaces the earlier record in place: the combined set keeps
// the position of the first occurrence and the values of the last one.
func Combine(sets []*record.Set, opts ...CombineOption) (*record.Set, CombineStats) {
	cfg := combineConfig{name: "combined"}
	for _, opt := range opts {
		opt(&cfg)
	}
	key := cfg.keyColumn
	if key == "" && len(sets) > 0 {
		key = sets[0].KeyColumn
	}

	out := &record.Set{Name: cfg.name, KeyColumn: key, Columns: unionColumns(key, sets)}
	stats := CombineStats{Inputs: len(sets)}
	m := newMerger(out, cfg.hook)
	for _, s := range sets {
		for _, r := range s.Records {
			stats.Rows++
			m.add(r)
		}
	}
	stats.Duplicates = len(m.collapsed)
	stats.Collapsed = m.collapsed
	return out, stats
}

// collapse applies the Combine rule to a single set without changing its columns.
func collapse(s *record.Set) (*record.Set, []Duplicate) {
	out := &record.Set{Name: s.Name, KeyColumn: s.KeyColumn, Columns: append([]string(nil), s.Columns...)}
	m := newMerger(out, nil)
	for _, r := range s.Records {
		m.add(r)
	}
	return out, m.collapsed
}

type merger struct {
	out       *record.Set
	pos       map[string]int
	hook      func(Duplicate)
	collapsed []Duplicate
}

func newMerger(out *record.Set, hook func(Duplicate)) *merger {
	return &merger{out: out, pos: make(map[string]int), hook: hook}
}

func (m *merger) add(r record.Record) {
	filled := r.Fill(m.out.Columns)
	i, seen := m.pos[r.Key]
	if !seen {
		m.pos[r.Key] = len(m.out.Records)
		m.out.Records = append(m.out.Records, filled)
		return
	}

	d := Duplicate{Key: r.Key, Kept: r.Origin, Dropped: m.out.Records[i].Origin}
	m.out.Records[i] = filled
	m.collapsed = append(m.collapsed, d)
	if m.hook != nil {
		m.hook(d)
	}
}

// unionColumns returns every column of the sets in first-seen order.
func unionColumns(key string, sets []*record.Set) []string {
	var cols []string
	seen := make(map[string]struct{})
	for _, s := range sets {
		for _, c := range s.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	if _, ok := seen[key]; !ok && key != "" {
		cols = append([]string{key}, cols...)
	}
	return cols
}

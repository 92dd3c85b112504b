// Package sampletable implements the sample table contract of spec.md §6:
// rows indexed by (project_id, sample_id), each carrying species, an
// optional per-sample map_strategy override, and an is_merged flag that
// excludes the row from planning entirely.
package sampletable

import "sort"

// Key identifies one row.
type Key struct {
	ProjectID string
	SampleID  string
}

// Row is one sample table entry.
type Row struct {
	ProjectID   string `yaml:"project_id"`
	SampleID    string `yaml:"sample_id"`
	Species     string `yaml:"species"`
	MapStrategy string `yaml:"map_strategy,omitempty"`
	IsMerged    bool   `yaml:"is_merged,omitempty"`
}

// Key returns the row's identity.
func (r Row) Key() Key {
	return Key{ProjectID: r.ProjectID, SampleID: r.SampleID}
}

// Table is the immutable, ordered collection of sample rows. Iteration
// order is deterministic: rows are sorted by (project_id, sample_id) so the
// plan builder's output is reproducible across runs (spec.md §4.3).
type Table struct {
	rows []Row
}

// New builds a Table from an unordered row slice, sorting it deterministically.
func New(rows []Row) Table {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProjectID != sorted[j].ProjectID {
			return sorted[i].ProjectID < sorted[j].ProjectID
		}
		return sorted[i].SampleID < sorted[j].SampleID
	})
	return Table{rows: sorted}
}

// Rows returns the table's rows in deterministic order. The returned slice
// must not be mutated by the caller.
func (t Table) Rows() []Row {
	return t.rows
}

// Plannable returns the rows for which is_merged is false — the ones the
// plan builder actually processes (spec.md §4.3: "Merged samples ... are
// skipped entirely").
func (t Table) Plannable() []Row {
	var out []Row
	for _, r := range t.rows {
		if !r.IsMerged {
			out = append(out, r)
		}
	}
	return out
}

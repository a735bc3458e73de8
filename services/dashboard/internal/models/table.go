package models

import (
	"encoding/json"
	"sort"
)

// Table is an immutable, ordered set of postings. Filtering produces a new
// Table; the rows of an existing one are never modified.
type Table struct {
	source string
	rows   []JobPosting
}

// NewTable copies rows into a new Table.
func NewTable(source string, rows []JobPosting) *Table {
	owned := make([]JobPosting, len(rows))
	copy(owned, rows)
	return &Table{source: source, rows: owned}
}

func (t *Table) Source() string {
	return t.source
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (t *Table) At(i int) JobPosting {
	return t.rows[i]
}

// Rows returns a copy of the rows.
func (t *Table) Rows() []JobPosting {
	out := make([]JobPosting, len(t.rows))
	copy(out, t.rows)
	return out
}

// Where returns a new Table with the rows for which keep returns true,
// in their original order.
func (t *Table) Where(keep func(JobPosting) bool) *Table {
	kept := make([]JobPosting, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	return &Table{source: t.source, rows: kept}
}

// Distinct returns the sorted distinct values of field across the table.
func (t *Table) Distinct(field func(JobPosting) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, row := range t.rows {
		v := field(row)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

type encodedTable struct {
	Source string       `json:"source"`
	Rows   []JobPosting `json:"rows"`
}

// MarshalBinary lets a Table be stored through cache.Cache.
func (t *Table) MarshalBinary() ([]byte, error) {
	return json.Marshal(encodedTable{Source: t.source, Rows: t.rows})
}

func (t *Table) UnmarshalBinary(data []byte) error {
	var enc encodedTable
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	t.source = enc.Source
	t.rows = enc.Rows
	return nil
}

// Package memory serves worksheets held in memory. It backs local
// development, the demo mode and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"spendtrack/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	tables map[string]sheets.Table
	reads  int
}

var _ sheets.Reader = (*Store)(nil)

// New returns a store serving tables keyed by dataset name.
func New(tables map[string]sheets.Table) *Store {
	s := &Store{tables: map[string]sheets.Table{}}
	for k, v := range tables {
		s.tables[k] = cloneTable(v)
	}
	return s
}

func (s *Store) Name() string { return "memory" }

// Set replaces the table for a dataset.
func (s *Store) Set(dataset string, t sheets.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[dataset] = cloneTable(t)
}

// Read returns a copy of the table for ref.Dataset.
func (s *Store) Read(_ context.Context, ref sheets.WorkbookRef) (sheets.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	t, ok := s.tables[ref.Dataset]
	if !ok {
		return sheets.Table{}, fmt.Errorf("memory %s: %w", ref.Dataset, sheets.ErrNotFound)
	}
	return cloneTable(t), nil
}

// Reads reports how many times Read was called.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func cloneTable(t sheets.Table) sheets.Table {
	out := sheets.Table{Header: append([]string(nil), t.Header...)}
	if t.Rows != nil {
		out.Rows = make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = append([]string(nil), r...)
		}
	}
	return out
}

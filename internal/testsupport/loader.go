package testsupport

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tshape/internal/batch"
	"tshape/internal/shape"
)

// MemoryLoader serves tables from memory, keyed by "<subject>_<symbol>.csv".
type MemoryLoader struct {
	mu     sync.Mutex
	tables map[string]shape.Table
	recs   map[string]batch.Record
	reads  map[string]int
}

// NewMemoryLoader returns an empty loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{
		tables: make(map[string]shape.Table),
		recs:   make(map[string]batch.Record),
		reads:  make(map[string]int),
	}
}

// Add registers a table for subject and symbol and returns its record ID.
func (m *MemoryLoader) Add(subject, symbol string, table shape.Table) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := subject + "_" + symbol + ".csv"
	m.tables[id] = table
	m.recs[id] = batch.Record{ID: id, Subject: subject, Symbol: symbol}
	return id
}

// Records implements batch.Loader.
func (m *MemoryLoader) Records(ctx context.Context) ([]batch.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]batch.Record, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Table implements batch.Loader.
func (m *MemoryLoader) Table(ctx context.Context, id string) (shape.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.tables[id]
	if !ok {
		return nil, fmt.Errorf("no table %q", id)
	}
	m.reads[id]++
	return table, nil
}

// Reads returns how many times the table with id was fetched.
func (m *MemoryLoader) Reads(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[id]
}

package table

import (
	"context"
	"sync"
)

// MemoryTable keeps rows in process. It backs dry runs and tests.
type MemoryTable struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
}

// NewMemoryTable creates an empty table with the given header.
func NewMemoryTable(header []string) *MemoryTable {
	return &MemoryTable{header: append([]string(nil), header...)}
}

// Rows returns every row keyed by header name
func (t *MemoryTable) Rows(ctx context.Context) ([]map[string]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]map[string]string, 0, len(t.rows))
	for _, cells := range t.rows {
		out = append(out, zipRow(t.header, cells))
	}
	return out, nil
}

// Append stores a copy of cells
func (t *MemoryTable) Append(ctx context.Context, cells []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = append(t.rows, append([]string(nil), cells...))
	return nil
}

// Cells returns a copy of the raw rows in insertion order.
func (t *MemoryTable) Cells() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// MemoryOpener hands out one MemoryTable per Ref, creating it on first use.
type MemoryOpener struct {
	mu     sync.Mutex
	header []string
	tables map[Ref]*MemoryTable
}

// NewMemoryOpener creates a new MemoryOpener whose tables use header
func NewMemoryOpener(header []string) *MemoryOpener {
	return &MemoryOpener{header: header, tables: make(map[Ref]*MemoryTable)}
}

// Open returns the table for ref
func (o *MemoryOpener) Open(ctx context.Context, ref Ref) (Table, error) {
	return o.Table(ref), nil
}

// Table returns the concrete table for ref.
func (o *MemoryOpener) Table(ref Ref) *MemoryTable {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.tables[ref]
	if !ok {
		t = NewMemoryTable(o.header)
		o.tables[ref] = t
	}
	return t
}

func (o *MemoryOpener) Close() error { return nil }

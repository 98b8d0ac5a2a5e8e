// Package memory is an in-process SnapshotWriter. The worker uses it when
// no spreadsheet is configured; it keeps the last mirrored tables.
package memory

import (
	"context"
	"sync"

	"pennywise/internal/ledger"
	ports "pennywise/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	tabs   ports.TabNames
	tables map[string]ports.Table
	writes int
}

var _ ports.SnapshotWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{tabs: ports.DefaultTabNames(), tables: map[string]ports.Table{}}
}

func (w *Writer) WriteSnapshot(ctx context.Context, snap ledger.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tables := ports.BuildTables(snap, w.tabs)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range tables {
		w.tables[t.Name] = t
	}
	w.writes++
	return nil
}

// Table returns the last content written to the named tab.
func (w *Writer) Table(name string) (ports.Table, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tables[name]
	return t, ok
}

// Writes counts successful WriteSnapshot calls.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

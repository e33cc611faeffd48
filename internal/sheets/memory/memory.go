// Package memory is an in-process ledger used when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"finance/internal/core"
	ports "finance/internal/sheets"
)

type Ledger struct {
	mu    sync.Mutex
	order []string
	rows  map[string][]string
}

var _ ports.LedgerWriter = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{rows: make(map[string][]string)}
}

func (l *Ledger) UpsertTransaction(_ context.Context, t core.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[t.ID]; !ok {
		l.order = append(l.order, t.ID)
	}
	l.rows[t.ID] = ports.Row(t)
	return nil
}

func (l *Ledger) DeleteTransaction(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[id]; !ok {
		return nil
	}
	delete(l.rows, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns the ledger contents, header first, in insertion order.
func (l *Ledger) Rows() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]string, 0, len(l.order)+1)
	out = append(out, append([]string(nil), ports.Header...))
	for _, id := range l.order {
		out = append(out, append([]string(nil), l.rows[id]...))
	}
	return out
}

// Package memory keeps transactions in process memory. Contents are lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finance/internal/core"
)

type Store struct {
	mu     sync.RWMutex
	items  map[string]core.Transaction
	byUser map[string]map[string]struct{}
}

func New() *Store {
	return &Store{
		items:  make(map[string]core.Transaction),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; ok {
		return fmt.Errorf("%w: transaction %s already exists", core.ErrStorage, t.ID)
	}
	s.items[t.ID] = t
	ids, ok := s.byUser[t.UserID]
	if !ok {
		ids = make(map[string]struct{})
		s.byUser[t.UserID] = ids
	}
	ids[t.ID] = struct{}{}
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; !ok {
		return core.ErrNotFound
	}
	s.items[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return core.ErrNotFound
	}
	delete(s.items, id)
	delete(s.byUser[t.UserID], id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, f core.Filter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for id := range s.byUser[userID] {
		if t := s.items[id]; f.Matches(t) {
			out = append(out, t)
		}
	}
	core.SortByDateDesc(out)
	return out, nil
}

// Len returns the number of stored transactions across all users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

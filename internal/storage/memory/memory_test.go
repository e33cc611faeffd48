package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"finance/internal/core"
	"finance/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Repository {
		return New()
	})
}

func TestConcurrentCreates(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.CreateTransaction(context.Background(), core.Transaction{
				ID:       fmt.Sprintf("t%d", i),
				UserID:   "u1",
				Amount:   core.Money{Cents: 100},
				Type:     core.Expense,
				Category: "food",
				Date:     core.NewDate(2024, 1, 1+i%28),
			})
		}(i)
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Fatalf("expected 50 items, got %d", s.Len())
	}
	got, err := s.ListTransactions(context.Background(), "u1", core.Filter{})
	if err != nil || len(got) != 50 {
		t.Fatalf("expected 50 listed, got %d (err=%v)", len(got), err)
	}
}

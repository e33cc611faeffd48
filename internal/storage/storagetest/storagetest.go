// Package storagetest holds behaviour checks shared by every transaction store.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"finance/internal/core"
)

// Repository is the store surface exercised by Run.
type Repository interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error)
	Ping(ctx context.Context) error
}

var base = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func tx(id, user string, typ core.TransactionType, category string, day int, cents int64, created time.Duration) core.Transaction {
	return core.Transaction{
		ID:          id,
		UserID:      user,
		Amount:      core.Money{Cents: cents},
		Type:        typ,
		Category:    category,
		Date:        core.NewDate(2024, 1, day),
		Description: "desc " + id,
		CreatedAt:   base.Add(created),
		UpdatedAt:   base.Add(created),
	}
}

// Run exercises newRepo against the behaviour every store must share.
func Run(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("CreateGet", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		want := tx("t1", "u1", core.Expense, "food", 15, 1250, 0)
		if err := repo.CreateTransaction(ctx, want); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetTransaction(ctx, "t1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		assertEqual(t, want, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetTransaction(context.Background(), "nope")
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		orig := tx("t1", "u1", core.Expense, "food", 15, 1250, 0)
		if err := repo.CreateTransaction(ctx, orig); err != nil {
			t.Fatalf("create: %v", err)
		}
		updated := orig
		updated.Amount = core.Money{Cents: 9900}
		updated.Category = "transport"
		updated.Description = ""
		updated.UpdatedAt = base.Add(time.Hour)
		if err := repo.UpdateTransaction(ctx, updated); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := repo.GetTransaction(ctx, "t1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		assertEqual(t, updated, got)

		missing := tx("ghost", "u1", core.Expense, "food", 1, 100, 0)
		if err := repo.UpdateTransaction(ctx, missing); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound updating missing, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		if err := repo.CreateTransaction(ctx, tx("t1", "u1", core.Income, "salary", 1, 100, 0)); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.DeleteTransaction(ctx, "t1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.GetTransaction(ctx, "t1"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.DeleteTransaction(ctx, "t1"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("ListFiltersAndOrder", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seed := []core.Transaction{
			tx("a", "u1", core.Income, "salary", 1, 10000, 0),
			tx("b", "u1", core.Expense, "food", 5, 4000, time.Minute),
			tx("c", "u1", core.Expense, "food", 20, 2000, 2*time.Minute),
			tx("d", "u1", core.Expense, "transport", 20, 500, 3*time.Minute),
			tx("e", "u2", core.Expense, "food", 10, 700, 0),
		}
		for _, s := range seed {
			if err := repo.CreateTransaction(ctx, s); err != nil {
				t.Fatalf("create %s: %v", s.ID, err)
			}
		}

		cases := []struct {
			name string
			user string
			f    core.Filter
			want []string
		}{
			{"all", "u1", core.Filter{}, []string{"d", "c", "b", "a"}},
			{"other user", "u2", core.Filter{}, []string{"e"}},
			{"unknown user", "u3", core.Filter{}, nil},
			{"type", "u1", core.Filter{Type: core.Expense}, []string{"d", "c", "b"}},
			{"category", "u1", core.Filter{Category: "food"}, []string{"c", "b"}},
			{"start inclusive", "u1", core.Filter{StartDate: core.NewDate(2024, 1, 5).Time}, []string{"d", "c", "b"}},
			{"end inclusive", "u1", core.Filter{EndDate: core.NewDate(2024, 1, 5).Time}, []string{"b", "a"}},
			{"range and type", "u1", core.Filter{Type: core.Expense, StartDate: core.NewDate(2024, 1, 2).Time, EndDate: core.NewDate(2024, 1, 19).Time}, []string{"b"}},
			{"empty range", "u1", core.Filter{StartDate: core.NewDate(2024, 2, 1).Time}, nil},
		}
		for _, tc := range cases {
			got, err := repo.ListTransactions(ctx, tc.user, tc.f)
			if err != nil {
				t.Fatalf("%s: list: %v", tc.name, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("%s: expected %v, got %d items", tc.name, tc.want, len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("%s: position %d expected %s, got %s", tc.name, i, id, got[i].ID)
				}
				if got[i].UserID != tc.user {
					t.Fatalf("%s: leaked transaction of %s", tc.name, got[i].UserID)
				}
			}
		}
	})

	t.Run("SupportedYearBounds", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		oldest := tx("old", "u1", core.Expense, "food", 1, 100, 0)
		oldest.Date = core.NewDate(core.MinYear, 1, 1)
		newest := tx("new", "u1", core.Income, "salary", 1, 200, time.Minute)
		newest.Date = core.NewDate(core.MaxYear, 12, 31)
		for _, want := range []core.Transaction{oldest, newest} {
			if err := repo.CreateTransaction(ctx, want); err != nil {
				t.Fatalf("create %s: %v", want.ID, err)
			}
			got, err := repo.GetTransaction(ctx, want.ID)
			if err != nil {
				t.Fatalf("get %s: %v", want.ID, err)
			}
			assertEqual(t, want, got)
		}

		got, err := repo.ListTransactions(ctx, "u1", core.Filter{
			StartDate: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(core.MaxYear, 12, 31, 23, 59, 59, 999999999, time.UTC),
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != "new" {
			t.Fatalf("expected only the newest transaction, got %+v", got)
		}

		got, err = repo.ListTransactions(ctx, "u1", core.Filter{EndDate: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != "old" {
			t.Fatalf("expected only the oldest transaction, got %+v", got)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := newRepo(t).Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

func assertEqual(t *testing.T, want, got core.Transaction) {
	t.Helper()
	if want.ID != got.ID || want.UserID != got.UserID || want.Amount != got.Amount ||
		want.Type != got.Type || want.Category != got.Category || want.Description != got.Description {
		t.Fatalf("transaction mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if !want.Date.Equal(got.Date.Time) || !want.CreatedAt.Equal(got.CreatedAt) || !want.UpdatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("timestamp mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

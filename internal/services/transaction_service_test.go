package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"finance/internal/amqp"
	"finance/internal/core"
	"finance/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
	closed bool
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func (f *fakePublisher) actions() []amqp.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]amqp.Action, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Action
	}
	return out
}

func newTestService(pub EventPublisher) *TransactionService {
	svc := NewTransactionService(memory.New(), pub)
	clock := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("tx-%d", seq)
	}
	return svc
}

func groceries() NewTransaction {
	return NewTransaction{
		Amount:      core.Money{Cents: 1250},
		Type:        core.Expense,
		Category:    "food",
		Date:        core.NewDate(2024, 1, 15),
		Description: "Groceries",
	}
}

func TestCreateTransaction(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)
	ctx := context.Background()

	got, err := svc.CreateTransaction(ctx, "user-1", groceries())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID != "tx-1" || got.UserID != "user-1" || got.Amount.Cents != 1250 {
		t.Fatalf("unexpected transaction %+v", got)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("timestamps not set: %+v", got)
	}

	list, err := svc.ListTransactions(ctx, "user-1", core.Filter{})
	if err != nil || len(list) != 1 || list[0].ID != got.ID {
		t.Fatalf("expected stored transaction, got %v (err=%v)", list, err)
	}
	if a := pub.actions(); len(a) != 1 || a[0] != amqp.ActionCreated {
		t.Fatalf("expected one created event, got %v", a)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		user   string
		mutate func(*NewTransaction)
		want   error
	}{
		{"no user", "", func(*NewTransaction) {}, core.ErrUnauthorized},
		{"zero amount", "u", func(n *NewTransaction) { n.Amount = core.Money{} }, core.ErrInvalidAmount},
		{"bad type", "u", func(n *NewTransaction) { n.Type = "gift" }, core.ErrInvalidType},
		{"no category", "u", func(n *NewTransaction) { n.Category = "" }, core.ErrMissingCategory},
		{"no date", "u", func(n *NewTransaction) { n.Date = core.Date{} }, core.ErrMissingDate},
		{"date beyond supported years", "u", func(n *NewTransaction) { n.Date = core.NewDate(2300, 6, 15) }, core.ErrDateOutOfRange},
	}
	for _, tc := range cases {
		in := groceries()
		tc.mutate(&in)
		if _, err := svc.CreateTransaction(ctx, tc.user, in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	list, _ := svc.ListTransactions(ctx, "u", core.Filter{})
	if len(list) != 0 {
		t.Fatalf("rejected creates must not be stored, got %d", len(list))
	}
}

func TestCreateSurvivesPublisherFailure(t *testing.T) {
	svc := newTestService(&fakePublisher{err: errors.New("broker down")})
	if _, err := svc.CreateTransaction(context.Background(), "u", groceries()); err != nil {
		t.Fatalf("publisher failure must not fail the request: %v", err)
	}
}

func TestListTransactionsEmptyIsNotNil(t *testing.T) {
	svc := newTestService(nil)
	list, err := svc.ListTransactions(context.Background(), "nobody", core.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestUpdateTransaction(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)
	ctx := context.Background()
	orig, _ := svc.CreateTransaction(ctx, "u1", groceries())

	amount := core.Money{Cents: 9900}
	got, err := svc.UpdateTransaction(ctx, "u1", orig.ID, core.TransactionPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Amount.Cents != 9900 || got.Category != "food" || got.Description != "Groceries" {
		t.Fatalf("unexpected update result %+v", got)
	}
	if !got.UpdatedAt.After(orig.UpdatedAt) || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("timestamps wrong: created %v updated %v", got.CreatedAt, got.UpdatedAt)
	}

	stored, _ := svc.GetTransaction(ctx, "u1", orig.ID)
	if stored.Amount.Cents != 9900 {
		t.Fatalf("update not persisted: %+v", stored)
	}
	if a := pub.actions(); len(a) != 2 || a[1] != amqp.ActionUpdated {
		t.Fatalf("expected created+updated events, got %v", a)
	}
}

func TestUpdateTransactionOwnership(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	orig, _ := svc.CreateTransaction(ctx, "owner", groceries())

	cat := "transport"
	if _, err := svc.UpdateTransaction(ctx, "intruder", orig.ID, core.TransactionPatch{Category: &cat}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}
	if _, err := svc.UpdateTransaction(ctx, "owner", "missing", core.TransactionPatch{Category: &cat}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}

	stored, _ := svc.GetTransaction(ctx, "owner", orig.ID)
	if stored.Category != "food" {
		t.Fatalf("foreign update leaked: %+v", stored)
	}
}

func TestUpdateTransactionInvalidPatch(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	orig, _ := svc.CreateTransaction(ctx, "u1", groceries())

	bad := core.TransactionType("gift")
	if _, err := svc.UpdateTransaction(ctx, "u1", orig.ID, core.TransactionPatch{Type: &bad}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)
	ctx := context.Background()
	orig, _ := svc.CreateTransaction(ctx, "u1", groceries())

	if err := svc.DeleteTransaction(ctx, "u2", orig.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := svc.DeleteTransaction(ctx, "u1", orig.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetTransaction(ctx, "u1", orig.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteTransaction(ctx, "u1", orig.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}
	if a := pub.actions(); len(a) != 2 || a[1] != amqp.ActionDeleted {
		t.Fatalf("expected created+deleted events, got %v", a)
	}
}

func TestSummary(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	seed := []NewTransaction{
		{Amount: core.Money{Cents: 10000}, Type: core.Income, Category: "salary", Date: core.NewDate(2024, 1, 1)},
		{Amount: core.Money{Cents: 4000}, Type: core.Expense, Category: "food", Date: core.NewDate(2024, 1, 2)},
		{Amount: core.Money{Cents: 2000}, Type: core.Expense, Category: "food", Date: core.NewDate(2024, 1, 3)},
		{Amount: core.Money{Cents: 7000}, Type: core.Expense, Category: "housing", Date: core.NewDate(2023, 12, 1)},
	}
	for _, in := range seed {
		if _, err := svc.CreateTransaction(ctx, "u1", in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	start := core.NewDate(2024, 1, 1).Time
	sum, err := svc.Summary(ctx, "u1", start, time.Time{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalIncome.Cents != 10000 || sum.TotalExpenses.Cents != 6000 || sum.Balance.Cents != 4000 {
		t.Fatalf("unexpected totals %+v", sum)
	}
	if !sum.Period.Start.Equal(start) || sum.Period.End.IsZero() {
		t.Fatalf("unexpected period %+v", sum.Period)
	}

	all, _ := svc.Summary(ctx, "u1", time.Time{}, time.Time{})
	if !all.Period.Start.Equal(time.Unix(0, 0)) {
		t.Fatalf("open start should report epoch, got %v", all.Period.Start)
	}
	if all.Balance.Cents != -3000 {
		t.Fatalf("expected -3000 balance, got %d", all.Balance.Cents)
	}

	if _, err := svc.Summary(ctx, "", time.Time{}, time.Time{}); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSummaryByCategory(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	seed := []NewTransaction{
		{Amount: core.Money{Cents: 10000}, Type: core.Income, Category: "salary", Date: core.NewDate(2024, 1, 1)},
		{Amount: core.Money{Cents: 4000}, Type: core.Expense, Category: "food", Date: core.NewDate(2024, 1, 2)},
		{Amount: core.Money{Cents: 2000}, Type: core.Expense, Category: "food", Date: core.NewDate(2024, 1, 3)},
	}
	for _, in := range seed {
		svc.CreateTransaction(ctx, "u1", in)
	}

	got, err := svc.SummaryByCategory(ctx, "u1", core.Filter{Type: core.Expense, Category: "ignored"})
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if got.Total.Cents != 6000 || len(got.Categories) != 1 {
		t.Fatalf("unexpected breakdown %+v", got)
	}
	if c := got.Categories[0]; c.Name != "Alimentation" || c.Percentage != 100 || c.Amount.Cents != 6000 {
		t.Fatalf("unexpected category %+v", c)
	}

	mixed, _ := svc.SummaryByCategory(ctx, "u1", core.Filter{})
	if mixed.Total.Cents != 16000 || mixed.Categories[0].CategoryID != "salary" {
		t.Fatalf("without type filter both types are grouped: %+v", mixed)
	}
}

func TestTransactionService_Close(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.New(), pub)
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}

	empty := &TransactionService{}
	if err := empty.Close(); err != nil {
		t.Fatalf("Close should not return error with nil components: %v", err)
	}
}

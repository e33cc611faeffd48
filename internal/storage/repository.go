package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finance/internal/core"

	_ "modernc.org/sqlite"
)

const sqlitePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + sqlitePragmas
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w: %w", core.ErrStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:          t.ID,
		UserID:      t.UserID,
		AmountCents: t.Amount.Cents,
		Type:        string(t.Type),
		Category:    t.Category,
		OccurredAt:  t.Date.UnixNano(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UnixNano(),
		UpdatedAt:   t.UpdatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w: %w", core.ErrStorage, err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"type", row.Type,
		"category", row.Category,
		"amount_cents", row.AmountCents)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w: %w", id, core.ErrStorage, err)
	}
	return rowToTransaction(row), nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		AmountCents: t.Amount.Cents,
		Type:        string(t.Type),
		Category:    t.Category,
		OccurredAt:  t.Date.UnixNano(),
		Description: t.Description,
		UpdatedAt:   t.UpdatedAt.UnixNano(),
		ID:          t.ID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update transaction %s: %w: %w", t.ID, core.ErrStorage, err)
	}

	slog.InfoContext(ctx, "Transaction updated in SQLite", "id", t.ID)
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w: %w", id, core.ErrStorage, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

// ListTransactions returns the user's transactions matching f, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error) {
	params := ListTransactionsParams{
		UserID:   userID,
		Type:     string(f.Type),
		Category: f.Category,
	}
	if !f.StartDate.IsZero() {
		params.From = sql.NullInt64{Int64: f.StartDate.UnixNano(), Valid: true}
	}
	if !f.EndDate.IsZero() {
		params.To = sql.NullInt64{Int64: f.EndDate.UnixNano(), Valid: true}
	}

	rows, err := r.queries.ListTransactions(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w: %w", core.ErrStorage, err)
	}

	txs := make([]core.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = rowToTransaction(row)
	}
	return txs, nil
}

func rowToTransaction(row TransactionRow) core.Transaction {
	return core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Amount:      core.Money{Cents: row.AmountCents},
		Type:        core.TransactionType(row.Type),
		Category:    row.Category,
		Date:        core.Date{Time: time.Unix(0, row.OccurredAt).UTC()},
		Description: row.Description,
		CreatedAt:   time.Unix(0, row.CreatedAt).UTC(),
		UpdatedAt:   time.Unix(0, row.UpdatedAt).UTC(),
	}
}

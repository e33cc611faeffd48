package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TransactionRow mirrors a row of the transactions table.
// Timestamps are unix nanoseconds in UTC.
type TransactionRow struct {
	ID          string
	UserID      string
	AmountCents int64
	Type        string
	Category    string
	OccurredAt  int64
	Description string
	CreatedAt   int64
	UpdatedAt   int64
}

const transactionColumns = `id, user_id, amount_cents, type, category, occurred_at, description, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (TransactionRow, error) {
	var i TransactionRow
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.AmountCents,
		&i.Type,
		&i.Category,
		&i.OccurredAt,
		&i.Description,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	ID          string
	UserID      string
	AmountCents int64
	Type        string
	Category    string
	OccurredAt  int64
	Description string
	CreatedAt   int64
	UpdatedAt   int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.ID,
		arg.UserID,
		arg.AmountCents,
		arg.Type,
		arg.Category,
		arg.OccurredAt,
		arg.Description,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanTransaction(row)
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const updateTransaction = `-- name: UpdateTransaction :one
UPDATE transactions
SET amount_cents = ?, type = ?, category = ?, occurred_at = ?, description = ?, updated_at = ?
WHERE id = ?
RETURNING ` + transactionColumns

type UpdateTransactionParams struct {
	AmountCents int64
	Type        string
	Category    string
	OccurredAt  int64
	Description string
	UpdatedAt   int64
	ID          string
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.AmountCents,
		arg.Type,
		arg.Category,
		arg.OccurredAt,
		arg.Description,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanTransaction(row)
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions
WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = ?1
  AND (?2 = '' OR type = ?2)
  AND (?3 = '' OR category = ?3)
  AND (?4 IS NULL OR occurred_at >= ?4)
  AND (?5 IS NULL OR occurred_at <= ?5)
ORDER BY occurred_at DESC, created_at DESC, id DESC`

type ListTransactionsParams struct {
	UserID   string
	Type     string
	Category string
	From     sql.NullInt64
	To       sql.NullInt64
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions,
		arg.UserID,
		arg.Type,
		arg.Category,
		arg.From,
		arg.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

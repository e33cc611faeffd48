// Package bolt stores transactions in an embedded bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finance/internal/core"

	bolt "go.etcd.io/bbolt"
)

var (
	transactionsBucketName = []byte("transactions")
	byIDBucketName         = []byte("byID")
	byUserBucketName       = []byte("byUser")
)

// record is the JSON form persisted under byID.
type record struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	AmountCents int64     `json:"amountCents"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Repository struct {
	db *bolt.DB
}

// Open creates or opens the bbolt file at path.
func Open(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	repo, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// New prepares the bucket layout on an already opened database.
func New(db *bolt.DB) (*Repository, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		tBucket, err := tx.CreateBucketIfNotExists(transactionsBucketName)
		if err != nil {
			return err
		}
		if _, err := tBucket.CreateBucketIfNotExists(byIDBucketName); err != nil {
			return err
		}
		if _, err := tBucket.CreateBucketIfNotExists(byUserBucketName); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(transactionsBucketName) == nil {
			return fmt.Errorf("%w: transactions bucket missing", core.ErrStorage)
		}
		return nil
	})
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	raw, err := json.Marshal(toRecord(t))
	if err != nil {
		return fmt.Errorf("encode transaction: %w: %w", core.ErrStorage, err)
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		tBucket := tx.Bucket(transactionsBucketName)
		byID := tBucket.Bucket(byIDBucketName)
		if byID.Get([]byte(t.ID)) != nil {
			return fmt.Errorf("transaction %s already exists", t.ID)
		}
		if err := byID.Put([]byte(t.ID), raw); err != nil {
			return err
		}
		userBucket, err := tBucket.Bucket(byUserBucketName).CreateBucketIfNotExists([]byte(t.UserID))
		if err != nil {
			return err
		}
		return userBucket.Put([]byte(t.ID), []byte{})
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w: %w", core.ErrStorage, err)
	}

	slog.InfoContext(ctx, "Transaction saved to bolt", "id", t.ID, "type", t.Type, "category", t.Category)
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var rec record
	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(transactionsBucketName).Bucket(byIDBucketName).Get([]byte(id))
		if raw == nil {
			return core.ErrNotFound
		}
		return json.Unmarshal(raw, &rec)
	})
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, err
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w: %w", id, core.ErrStorage, err)
	}
	return rec.toTransaction(), nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	raw, err := json.Marshal(toRecord(t))
	if err != nil {
		return fmt.Errorf("encode transaction: %w: %w", core.ErrStorage, err)
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		byID := tx.Bucket(transactionsBucketName).Bucket(byIDBucketName)
		if byID.Get([]byte(t.ID)) == nil {
			return core.ErrNotFound
		}
		return byID.Put([]byte(t.ID), raw)
	})
	if errors.Is(err, core.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("update transaction %s: %w: %w", t.ID, core.ErrStorage, err)
	}

	slog.InfoContext(ctx, "Transaction updated in bolt", "id", t.ID)
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		tBucket := tx.Bucket(transactionsBucketName)
		byID := tBucket.Bucket(byIDBucketName)
		raw := byID.Get([]byte(id))
		if raw == nil {
			return core.ErrNotFound
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if userBucket := tBucket.Bucket(byUserBucketName).Bucket([]byte(rec.UserID)); userBucket != nil {
			if err := userBucket.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return byID.Delete([]byte(id))
	})
	if errors.Is(err, core.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w: %w", id, core.ErrStorage, err)
	}

	slog.InfoContext(ctx, "Transaction deleted from bolt", "id", id)
	return nil
}

// ListTransactions scans the user's index bucket and filters in memory.
func (r *Repository) ListTransactions(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error) {
	var txs []core.Transaction
	err := r.db.View(func(tx *bolt.Tx) error {
		tBucket := tx.Bucket(transactionsBucketName)
		userBucket := tBucket.Bucket(byUserBucketName).Bucket([]byte(userID))
		if userBucket == nil {
			return nil
		}
		byID := tBucket.Bucket(byIDBucketName)
		return userBucket.ForEach(func(k, _ []byte) error {
			raw := byID.Get(k)
			if raw == nil {
				return nil
			}
			var rec record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			if t := rec.toTransaction(); f.Matches(t) {
				txs = append(txs, t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w: %w", core.ErrStorage, err)
	}

	core.SortByDateDesc(txs)
	return txs, nil
}

func toRecord(t core.Transaction) record {
	return record{
		ID:          t.ID,
		UserID:      t.UserID,
		AmountCents: t.Amount.Cents,
		Type:        string(t.Type),
		Category:    t.Category,
		Date:        t.Date.Time,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r record) toTransaction() core.Transaction {
	return core.Transaction{
		ID:          r.ID,
		UserID:      r.UserID,
		Amount:      core.Money{Cents: r.AmountCents},
		Type:        core.TransactionType(r.Type),
		Category:    r.Category,
		Date:        core.Date{Time: r.Date.UTC()},
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

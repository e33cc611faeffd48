package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finance/internal/amqp"
	"finance/internal/core"

	"github.com/google/uuid"
)

// NewTransaction is the caller-supplied part of a transaction to create.
type NewTransaction struct {
	Amount      core.Money
	Type        core.TransactionType
	Category    string
	Date        core.Date
	Description string
}

// TransactionService owns transaction rules: identity, ownership, validation
// and change notification. Storage is behind TransactionRepository; events
// are best effort and never fail a request.
type TransactionService struct {
	repo      TransactionRepository
	publisher EventPublisher

	now   func() time.Time
	newID func() string
}

// NewTransactionService wires a service. publisher may be nil.
func NewTransactionService(repo TransactionRepository, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		repo:      repo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrUnauthorized
	}
	return nil
}

// ListTransactions returns the user's transactions matching f, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

// GetTransaction returns one of the user's transactions. Transactions owned
// by someone else are reported as not found.
func (s *TransactionService) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}
	return s.owned(ctx, userID, id)
}

func (s *TransactionService) owned(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

// CreateTransaction validates in, assigns id and timestamps and stores it.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, in NewTransaction) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}

	now := s.now()
	t := core.Transaction{
		ID:          s.newID(),
		UserID:      userID,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Date:        in.Date,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, t))
	return t, nil
}

// UpdateTransaction applies a partial update to one of the user's transactions.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}
	current, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated := p.Apply(current, s.now())
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.repo.UpdateTransaction(ctx, updated); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionUpdated, updated))
	return updated, nil
}

// DeleteTransaction removes one of the user's transactions.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrNotFound
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, amqp.NewDeleteEvent(id, userID))
	return nil
}

// Ping checks the underlying store.
func (s *TransactionService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *TransactionService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "id", ev.ID, "action", ev.Action)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		// The change is already stored; the event is best effort.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", ev.ID, "action", ev.Action, "error", err)
	}
}

// Close closes both storage and the event publisher.
func (s *TransactionService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}

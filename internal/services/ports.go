package services

import (
	"context"

	"finance/internal/amqp"
	"finance/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionRepository persists transactions. Lookups by id are not
	// scoped to a user; ownership is checked by the service.
	TransactionRepository interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
		// ListTransactions returns the user's matches ordered by date descending.
		ListTransactions(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error)
		Ping(ctx context.Context) error
		Close() error
	}

	// EventPublisher announces transaction changes to other processes.
	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
		Close() error
	}
)

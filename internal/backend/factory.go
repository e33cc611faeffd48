package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finance/internal/amqp"
	"finance/internal/services"
	"finance/internal/storage"
	"finance/internal/storage/bolt"
	"finance/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger

	// dialEvents is swapped in tests to avoid a real broker.
	dialEvents func(url, exchange, queue string) (services.EventPublisher, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dialEvents: func(url, exchange, queue string) (services.EventPublisher, error) {
			return amqp.NewClient(url, exchange, queue)
		},
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := f.createRepository(config)
	if err != nil {
		return nil, err
	}

	publisher := f.createPublisher(config)
	svc := services.NewTransactionService(repo, publisher)

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("backend %s not reachable: %w", config.Type, err)
	}

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"events_enabled", publisher != nil)

	return &BackendResult{
		Backend:       svc,
		Cleanup:       svc.Close,
		EventsEnabled: publisher != nil,
	}, nil
}

func (f *DefaultFactory) createRepository(config Config) (services.TransactionRepository, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Debug("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case BoltBackend:
		repo, err := bolt.Open(config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt repository: %w", err)
		}
		f.logger.Debug("Opened bolt store", "db_path", config.BoltDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createPublisher returns nil when events are disabled or the broker is down.
func (f *DefaultFactory) createPublisher(config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	pub, err := f.dialEvents(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return pub
}

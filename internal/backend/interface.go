package backend

import (
	"context"
	"time"

	"finance/internal/core"
	"finance/internal/services"
)

// Backend is everything the HTTP API needs from the domain layer.
type Backend interface {
	ListTransactions(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, in services.NewTransaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	Summary(ctx context.Context, userID string, start, end time.Time) (core.Summary, error)
	SummaryByCategory(ctx context.Context, userID string, f core.Filter) (services.CategoryBreakdown, error)
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	// EventsEnabled is true when change events reach a broker.
	EventsEnabled bool
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	BoltDBPath   string

	// Optional change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	BoltBackend   BackendType = "bolt"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, BoltBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

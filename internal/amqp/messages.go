package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finance/internal/core"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// TransactionSnapshot is the state of a transaction after the change.
// Amount travels as a decimal string so no float rounding happens on the wire.
type TransactionSnapshot struct {
	Amount      string    `json:"amount"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TransactionEvent announces a change to a stored transaction.
// Version grows with every change so consumers can drop stale deliveries.
type TransactionEvent struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	Action      Action               `json:"action"`
	Version     int64                `json:"version"`
	Timestamp   time.Time            `json:"timestamp"`
	Transaction *TransactionSnapshot `json:"transaction,omitempty"`
}

var ErrInvalidEvent = errors.New("invalid transaction event")

// NewTransactionEvent builds the event for a created or updated transaction.
func NewTransactionEvent(action Action, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		ID:        t.ID,
		UserID:    t.UserID,
		Action:    action,
		Version:   t.UpdatedAt.UnixNano(),
		Timestamp: time.Now().UTC(),
		Transaction: &TransactionSnapshot{
			Amount:      t.Amount.String(),
			Type:        string(t.Type),
			Category:    t.Category,
			Date:        t.Date.Time,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		},
	}
}

// NewDeleteEvent builds the event for a removed transaction.
func NewDeleteEvent(id, userID string) *TransactionEvent {
	now := time.Now().UTC()
	return &TransactionEvent{
		ID:        id,
		UserID:    userID,
		Action:    ActionDeleted,
		Version:   now.UnixNano(),
		Timestamp: now,
	}
}

func (e *TransactionEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	switch e.Action {
	case ActionCreated, ActionUpdated:
		if e.Transaction == nil {
			return fmt.Errorf("%w: %s event without transaction", ErrInvalidEvent, e.Action)
		}
	case ActionDeleted:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidEvent, e.Action)
	}
	return nil
}

// ToTransaction rebuilds the domain value carried by a created/updated event.
func (e *TransactionEvent) ToTransaction() (core.Transaction, error) {
	if e.Transaction == nil {
		return core.Transaction{}, fmt.Errorf("%w: no transaction payload", ErrInvalidEvent)
	}
	cents, err := core.ParseDecimalToCents(e.Transaction.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: amount %q: %w", ErrInvalidEvent, e.Transaction.Amount, err)
	}
	return core.Transaction{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      core.Money{Cents: cents},
		Type:        core.TransactionType(e.Transaction.Type),
		Category:    e.Transaction.Category,
		Date:        core.Date{Time: e.Transaction.Date.UTC()},
		Description: e.Transaction.Description,
		CreatedAt:   e.Transaction.CreatedAt,
		UpdatedAt:   e.Transaction.UpdatedAt,
	}, nil
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

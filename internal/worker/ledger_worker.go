package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finance/internal/amqp"
	"finance/internal/cache"
	"finance/internal/sheets"
)

const (
	versionCacheSize = 50000
	versionCacheTTL  = 24 * time.Hour
)

// LedgerWorker applies transaction events to a spreadsheet ledger.
type LedgerWorker struct {
	ledger sheets.LedgerWriter
	// versions remembers the last applied version per transaction id.
	versions *cache.LRUCache[int64]
}

func NewLedgerWorker(ledger sheets.LedgerWriter) *LedgerWorker {
	return &LedgerWorker{
		ledger:   ledger,
		versions: cache.NewLRUCache[int64](versionCacheSize, versionCacheTTL),
	}
}

// VersionCache exposes the applied-version cache for periodic cleanup.
func (w *LedgerWorker) VersionCache() *cache.LRUCache[int64] {
	return w.versions
}

// HandleEvent is an amqp.EventHandler. Returning an error requeues the event.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if last, ok := w.versions.Get(ev.ID); ok && ev.Version < last {
		slog.InfoContext(ctx, "Skipping stale transaction event",
			"id", ev.ID,
			"action", ev.Action,
			"version", ev.Version,
			"applied_version", last)
		return nil
	}

	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		t, err := ev.ToTransaction()
		if err != nil {
			// Undecodable payloads will never succeed; drop them.
			slog.ErrorContext(ctx, "Dropping event with invalid payload", "id", ev.ID, "error", err)
			return nil
		}
		if err := w.ledger.UpsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("upsert ledger row: %w", err)
		}
	case amqp.ActionDeleted:
		if err := w.ledger.DeleteTransaction(ctx, ev.ID); err != nil {
			return fmt.Errorf("delete ledger row: %w", err)
		}
	default:
		slog.WarnContext(ctx, "Ignoring unknown event action", "id", ev.ID, "action", ev.Action)
		return nil
	}

	w.versions.Set(ev.ID, ev.Version)
	slog.InfoContext(ctx, "Ledger synchronized",
		"id", ev.ID,
		"action", ev.Action,
		"version", ev.Version)
	return nil
}

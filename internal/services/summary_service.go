package services

import (
	"context"
	"time"

	"finance/internal/core"
)

// CategoryBreakdown is the by-category view of a filtered set.
type CategoryBreakdown struct {
	Categories []core.CategorySummary
	Total      core.Money
}

// Summary totals the user's transactions dated within [start, end].
// Zero bounds are open; the reported period falls back to the unix epoch
// and the current time.
func (s *TransactionService) Summary(ctx context.Context, userID string, start, end time.Time) (core.Summary, error) {
	txs, err := s.ListTransactions(ctx, userID, core.Filter{StartDate: start, EndDate: end})
	if err != nil {
		return core.Summary{}, err
	}

	period := core.Period{Start: start, End: end}
	if period.Start.IsZero() {
		period.Start = time.Unix(0, 0).UTC()
	}
	if period.End.IsZero() {
		period.End = s.now()
	}
	return core.Summarize(txs, period), nil
}

// SummaryByCategory groups the user's transactions matching f by category.
// Only type and date range are honoured; a category criterion is ignored.
func (s *TransactionService) SummaryByCategory(ctx context.Context, userID string, f core.Filter) (CategoryBreakdown, error) {
	f.Category = ""
	txs, err := s.ListTransactions(ctx, userID, f)
	if err != nil {
		return CategoryBreakdown{}, err
	}
	cats, total := core.SummarizeByCategory(txs)
	return CategoryBreakdown{Categories: cats, Total: total}, nil
}

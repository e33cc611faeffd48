package core

import (
	"sort"
	"time"
)

// Period is the time window a Summary covers.
type Period struct {
	Start time.Time
	End   time.Time
}

// Summary holds income/expense totals for a set of transactions.
type Summary struct {
	TotalIncome   Money
	TotalExpenses Money
	Balance       Money
	Period        Period
}

// CategorySummary is the share of one category within a filtered set.
type CategorySummary struct {
	CategoryID string
	Name       string
	Amount     Money
	Percentage float64
	Color      string
}

// Summarize totals income and expenses. Balance is always income minus expenses.
func Summarize(txs []Transaction, period Period) Summary {
	var income, expenses Money
	for _, t := range txs {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expenses = expenses.Add(t.Amount)
		}
	}
	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
		Period:        period,
	}
}

// SummarizeByCategory groups amounts by category id and returns the groups
// sorted by amount descending together with the grand total. Percentages are
// relative to the grand total and are all zero when the total is zero.
func SummarizeByCategory(txs []Transaction) ([]CategorySummary, Money) {
	byID := make(map[string]int64)
	var total int64
	for _, t := range txs {
		byID[t.Category] += t.Amount.Cents
		total += t.Amount.Cents
	}

	out := make([]CategorySummary, 0, len(byID))
	for id, cents := range byID {
		cs := CategorySummary{
			CategoryID: id,
			Name:       id,
			Amount:     Money{Cents: cents},
			Color:      DefaultCategoryColor,
		}
		if c, ok := CategoryByID(id); ok {
			cs.Name = c.Name
			cs.Color = c.Color
		}
		if total > 0 {
			cs.Percentage = float64(cents) / float64(total) * 100
		}
		out = append(out, cs)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, Money{Cents: total}
}

// SortByDateDesc orders transactions newest first. Ties fall back to creation
// time and then id so the order is stable across stores.
func SortByDateDesc(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

package sheets

import (
	"context"

	"finance/internal/core"
)

// Header is the first row of the ledger sheet.
var Header = []string{"ID", "User", "Date", "Type", "Category", "Description", "Amount"}

// Ports for outbound adapters.
type (
	// LedgerWriter mirrors transactions into a spreadsheet, one row each.
	LedgerWriter interface {
		// UpsertTransaction writes the row for t, replacing an existing row with the same id.
		UpsertTransaction(ctx context.Context, t core.Transaction) error
		// DeleteTransaction removes the row for id. Missing rows are not an error.
		DeleteTransaction(ctx context.Context, id string) error
	}
)

// Row renders t as ledger cells in Header order. The category is shown by
// its catalogue name, falling back to the raw id.
func Row(t core.Transaction) []string {
	category := t.Category
	if c, ok := core.CategoryByID(t.Category); ok {
		category = c.Name
	}
	return []string{
		t.ID,
		t.UserID,
		t.Date.Format("2006-01-02"),
		string(t.Type),
		category,
		t.Description,
		t.Amount.String(),
	}
}

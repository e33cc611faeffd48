//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"finance/internal/core"

	"github.com/google/uuid"
)

// Integration tests require a real spreadsheet shared with a service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_LedgerFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	saJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	saFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if saJSON == "" && saFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, Config{
		SpreadsheetID:      spreadsheetID,
		SheetName:          os.Getenv("GOOGLE_SHEET_NAME"),
		ServiceAccountJSON: saJSON,
		ServiceAccountFile: saFile,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	now := time.Now().UTC()
	tx := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      "integration",
		Amount:      core.Money{Cents: 1234},
		Type:        core.Expense,
		Category:    "food",
		Date:        core.NewDate(now.Year(), int(now.Month()), now.Day()),
		Description: "integration test " + now.Format(time.RFC3339),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := client.UpsertTransaction(ctx, tx); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	tx.Amount = core.Money{Cents: 4321}
	tx.UpdatedAt = time.Now().UTC()
	if err := client.UpsertTransaction(ctx, tx); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// Drop the cached row so the delete resolves it from the sheet.
	client.InvalidateRowCache()
	if err := client.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

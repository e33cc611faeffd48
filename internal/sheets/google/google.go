// Package google exports transactions to a Google Sheets ledger.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"finance/internal/cache"
	"finance/internal/core"
	ports "finance/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultSheetName    = "Transactions"
	defaultRowCacheSize = 10000
	defaultRowCacheTTL  = 10 * time.Minute
	lastColumn          = "G"
	// Cells are stored as sent; descriptions starting with "=" stay text.
	valueInputRaw = "RAW"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	RowCacheSize       int
	RowCacheTTL        time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// rows maps transaction id to its 1-based row number.
	rows *cache.LRUCache[int]

	// mu serialises writes: deletes shift every row below them.
	mu          sync.Mutex
	sheetID     *int64
	headerReady bool
}

var _ ports.LedgerWriter = (*Client)(nil)

// New creates a ledger client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	if cfg.SheetName == "" {
		cfg.SheetName = defaultSheetName
	}
	if cfg.RowCacheSize <= 0 {
		cfg.RowCacheSize = defaultRowCacheSize
	}
	if cfg.RowCacheTTL <= 0 {
		cfg.RowCacheTTL = defaultRowCacheTTL
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		rows:          cache.NewLRUCache[int](cfg.RowCacheSize, cfg.RowCacheTTL),
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when cfg names none.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// RowCache exposes the id to row cache so callers can schedule its cleanup.
func (c *Client) RowCache() *cache.LRUCache[int] {
	return c.rows
}

// InvalidateRowCache forgets every known row position.
func (c *Client) InvalidateRowCache() {
	c.rows.Purge()
}

func (c *Client) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureHeader(ctx); err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{toInterfaces(ports.Row(t))}}

	row, found, err := c.findRow(ctx, t.ID)
	if err != nil {
		return err
	}
	if found {
		rng := c.a1(fmt.Sprintf("A%d:%s%d", row, lastColumn, row))
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption(valueInputRaw).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d: %w", row, err)
		}
		slog.InfoContext(ctx, "Updated ledger row", "id", t.ID, "row", row)
		return nil
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.a1("A:"+lastColumn), vr).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if resp.Updates != nil {
		if n, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			c.rows.Set(t.ID, n)
			row = n
		}
	}
	slog.InfoContext(ctx, "Appended ledger row", "id", t.ID, "row", row)
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	row, found, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		slog.InfoContext(ctx, "Ledger row already absent", "id", id)
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(row - 1),
					EndIndex:        int64(row),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}

	// Every row below the deleted one moved up.
	c.rows.Purge()
	slog.InfoContext(ctx, "Deleted ledger row", "id", id, "row", row)
	return nil
}

// findRow returns the row holding id. A cache miss scans column A and
// refreshes the cache with every id seen.
func (c *Client) findRow(ctx context.Context, id string) (int, bool, error) {
	if row, ok := c.rows.Get(id); ok {
		return row, true, nil
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.a1("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("read id column: %w", err)
	}

	found := 0
	for i, r := range resp.Values {
		if i == 0 || len(r) == 0 {
			continue
		}
		cell := strings.TrimSpace(fmt.Sprint(r[0]))
		if cell == "" {
			continue
		}
		c.rows.Set(cell, i+1)
		if cell == id {
			found = i + 1
		}
	}
	return found, found > 0, nil
}

func (c *Client) ensureHeader(ctx context.Context) error {
	if c.headerReady {
		return nil
	}
	rng := c.a1("A1:" + lastColumn + "1")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		vr := &gsheet.ValueRange{Values: [][]interface{}{toInterfaces(ports.Header)}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption(valueInputRaw).Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		slog.InfoContext(ctx, "Wrote ledger header", "sheet", c.sheetName)
	}
	c.headerReady = true
	return nil
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

// a1 prefixes rng with the quoted sheet name.
func (c *Client) a1(rng string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(c.sheetName, "'", "''"), rng)
}

// rowFromRange extracts the first row number of an A1 range such as
// "'Transactions'!A5:G5".
func rowFromRange(rng string) (int, bool) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	if i := strings.Index(rng, ":"); i >= 0 {
		rng = rng[:i]
	}
	digits := strings.TrimLeft(rng, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz$")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

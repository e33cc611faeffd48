package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"finance/internal/core"
)

func TestParseDateRange(t *testing.T) {
	dr, err := parseDateRange(url.Values{"type": {"bogus"}, "startDate": {"2024-03-01"}, "endDate": {"2024-03-31"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dr.Start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", dr.Start)
	}
	if !dr.End.Equal(time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC)) {
		t.Fatalf("unexpected end %v", dr.End)
	}
	if !dr.RequestedEnd.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("requested end should stay as supplied, got %v", dr.RequestedEnd)
	}

	dr, err = parseDateRange(url.Values{"endDate": {"2024-03-31T12:00:00Z"}})
	if err != nil || !dr.End.Equal(dr.RequestedEnd) {
		t.Fatalf("timestamp end should not be extended: %+v, %v", dr, err)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    core.Filter
		wantErr error
	}{
		{
			name:  "empty",
			query: url.Values{},
			want:  core.Filter{},
		},
		{
			name:  "all fields",
			query: url.Values{"type": {"Expense"}, "category": {" food "}, "startDate": {"2024-03-01"}, "endDate": {"2024-03-31"}},
			want: core.Filter{
				Type:      core.Expense,
				Category:  "food",
				StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC),
			},
		},
		{
			name:  "timestamp end date kept as is",
			query: url.Values{"endDate": {"2024-03-31T12:00:00+02:00"}},
			want:  core.Filter{EndDate: time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)},
		},
		{
			name:    "bad type",
			query:   url.Values{"type": {"transfer"}},
			wantErr: core.ErrInvalidType,
		},
		{
			name:    "bad start date",
			query:   url.Values{"startDate": {"01/03/2024"}},
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "bad end date",
			query:   url.Values{"endDate": {"tomorrow"}},
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "start date before supported years",
			query:   url.Values{"startDate": {"1600-01-01"}},
			wantErr: core.ErrDateOutOfRange,
		},
		{
			name:    "end date after supported years",
			query:   url.Values{"endDate": {"2300-06-15"}},
			wantErr: core.ErrDateOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, core.ErrValidation) {
					t.Fatalf("filter errors must be validation errors: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type != tt.want.Type || got.Category != tt.want.Category ||
				!got.StartDate.Equal(tt.want.StartDate) || !got.EndDate.Equal(tt.want.EndDate) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{`12.5`, 1250, false},
		{`"12,50"`, 1250, false},
		{`"0.015"`, 2, false},
		{`100`, 10000, false},
		{`0`, 0, true},
		{`-3`, 0, true},
		{`"abc"`, 0, true},
		{`true`, 0, true},
		{`{}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseAmount(json.RawMessage(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cents != tt.want {
				t.Fatalf("expected %d cents, got %d", tt.want, got.Cents)
			}
		})
	}
}

func decodeRequest(t *testing.T, body string) transactionRequest {
	t.Helper()
	var req transactionRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return req
}

func TestTransactionRequest_ToNewTransaction(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"complete", `{"amount": 42.1, "type": "income", "category": "salary", "date": "2024-03-01", "description": "March"}`, nil},
		{"description optional", `{"amount": "10", "type": "expense", "category": "food", "date": "2024-03-01"}`, nil},
		{"missing amount", `{"type": "expense", "category": "food", "date": "2024-03-01"}`, core.ErrMissingFields},
		{"null amount", `{"amount": null, "type": "expense", "category": "food", "date": "2024-03-01"}`, core.ErrMissingFields},
		{"missing date", `{"amount": 1, "type": "expense", "category": "food"}`, core.ErrMissingFields},
		{"blank category", `{"amount": 1, "type": "expense", "category": "  ", "date": "2024-03-01"}`, core.ErrMissingFields},
		{"zero amount", `{"amount": 0, "type": "expense", "category": "food", "date": "2024-03-01"}`, core.ErrInvalidAmount},
		{"bad type", `{"amount": 1, "type": "gift", "category": "food", "date": "2024-03-01"}`, core.ErrInvalidType},
		{"bad date", `{"amount": 1, "type": "expense", "category": "food", "date": "March 1st"}`, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := decodeRequest(t, tt.body).ToNewTransaction()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Amount.Cents <= 0 || in.Category == "" || in.Date.IsZero() {
				t.Fatalf("incomplete result %+v", in)
			}
		})
	}
}

func TestTransactionRequest_ToPatch(t *testing.T) {
	p, err := decodeRequest(t, `{"amount": "7,25", "description": "lunch\u0007"}`).ToPatch()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Amount == nil || p.Amount.Cents != 725 {
		t.Fatalf("unexpected amount %+v", p.Amount)
	}
	if p.Description == nil || *p.Description != "lunch" {
		t.Fatalf("description should be sanitized, got %v", p.Description)
	}
	if p.Type != nil || p.Category != nil || p.Date != nil {
		t.Fatalf("absent fields must stay nil: %+v", p)
	}

	empty, err := decodeRequest(t, `{}`).ToPatch()
	if err != nil || !empty.IsEmpty() {
		t.Fatalf("expected empty patch, got %+v, %v", empty, err)
	}

	if _, err := decodeRequest(t, `{"type": ""}`).ToPatch(); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"type":"income","extra":1}`, nil},
		{"malformed", `{"type":`, errInvalidJSON},
		{"trailing data", `{} {}`, errInvalidJSON},
		{"too large", `{"description":"` + strings.Repeat("a", maxRequestBodyBytes) + `"}`, errBodyTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(tt.body))
			var req transactionRequest
			err := decodeJSON(httptest.NewRecorder(), r, &req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Fatalf("got %q", got)
	}
}

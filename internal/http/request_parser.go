// Package http provides HTTP server and handler implementations.
//
// This file implements parsing of query filters and JSON request bodies into
// domain values. Validation errors come back as core errors so handlers can
// map them uniformly.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finance/internal/core"
	"finance/internal/services"
)

var (
	errInvalidJSON  = errors.New("invalid JSON body")
	errBodyTooLarge = errors.New("request body too large")
)

// ParseFilter reads type, category, startDate and endDate from a query string.
// A calendar endDate covers the whole day.
func ParseFilter(query url.Values) (core.Filter, error) {
	var f core.Filter

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			return core.Filter{}, err
		}
		f.Type = t
	}
	f.Category = sanitizeInput(query.Get("category"))

	dr, err := parseDateRange(query)
	if err != nil {
		return core.Filter{}, err
	}
	f.StartDate, f.EndDate = dr.Start, dr.End
	return f, nil
}

// dateRange holds the startDate/endDate bounds of a query. End is the
// inclusive bound used for filtering; RequestedEnd is endDate as supplied,
// before a calendar date is stretched to its last nanosecond.
type dateRange struct {
	Start        time.Time
	End          time.Time
	RequestedEnd time.Time
}

// parseDateRange reads only startDate and endDate; other keys are ignored.
func parseDateRange(query url.Values) (dateRange, error) {
	var dr dateRange
	if v := strings.TrimSpace(query.Get("startDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return dateRange{}, fmt.Errorf("%w (startDate)", err)
		}
		dr.Start = d.Time
	}
	if v := strings.TrimSpace(query.Get("endDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return dateRange{}, fmt.Errorf("%w (endDate)", err)
		}
		dr.RequestedEnd = d.Time
		dr.End = endOfDay(v, d.Time)
	}
	return dr, nil
}

// endOfDay extends a bare calendar date to its last nanosecond.
func endOfDay(raw string, t time.Time) time.Time {
	if _, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}

// decodeJSON reads at most maxRequestBodyBytes into dst. Unknown fields are
// ignored; trailing data after the object is rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errInvalidJSON
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(dst); err != nil {
		return errInvalidJSON
	}
	if dec.More() {
		return errInvalidJSON
	}
	return nil
}

// transactionRequest is the body of create and update calls. Pointer fields
// distinguish "absent" from "empty" for partial updates.
type transactionRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Type        *string         `json:"type"`
	Category    *string         `json:"category"`
	Date        *string         `json:"date"`
	Description *string         `json:"description"`
}

// ToNewTransaction requires amount, type, category and date.
func (req transactionRequest) ToNewTransaction() (services.NewTransaction, error) {
	if isAbsent(req.Amount) || req.Type == nil || req.Category == nil || req.Date == nil ||
		strings.TrimSpace(*req.Type) == "" || sanitizeInput(*req.Category) == "" || strings.TrimSpace(*req.Date) == "" {
		return services.NewTransaction{}, core.ErrMissingFields
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return services.NewTransaction{}, err
	}
	txType, err := core.ParseTransactionType(*req.Type)
	if err != nil {
		return services.NewTransaction{}, err
	}
	date, err := core.ParseDate(*req.Date)
	if err != nil {
		return services.NewTransaction{}, err
	}

	in := services.NewTransaction{
		Amount:   amount,
		Type:     txType,
		Category: sanitizeInput(*req.Category),
		Date:     date,
	}
	if req.Description != nil {
		in.Description = sanitizeInput(*req.Description)
	}
	return in, nil
}

// ToPatch converts the fields present in the body.
func (req transactionRequest) ToPatch() (core.TransactionPatch, error) {
	var p core.TransactionPatch

	if !isAbsent(req.Amount) {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.Amount = &amount
	}
	if req.Type != nil {
		t, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.Type = &t
	}
	if req.Category != nil {
		c := sanitizeInput(*req.Category)
		p.Category = &c
	}
	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.Date = &d
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		p.Description = &desc
	}
	return p, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseAmount accepts a JSON number or a decimal string ("12.50", "12,50").
func parseAmount(raw json.RawMessage) (core.Money, error) {
	raw = bytes.TrimSpace(raw)
	var text string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return core.Money{}, core.ErrInvalidAmount
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return core.Money{}, core.ErrInvalidAmount
		}
		text = n.String()
	}

	cents, err := core.ParseDecimalToCents(text)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

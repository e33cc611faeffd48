package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "finance/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	logger := applog.New(applog.Config{Output: buf, Format: "json", Level: slog.LevelDebug})
	return NewMiddleware(logger, func(*http.Request) string { return "203.0.113.9" })
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		applog.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("expected generated id, got %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q does not match context id %q", rec.Header().Get(HeaderRequestID), seen)
	}
	if !strings.Contains(buf.String(), `"request_id":"`+seen+`"`) {
		t.Fatalf("handler log lacks request id: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"status_code":201`) {
		t.Fatalf("completion log lacks status: %s", buf.String())
	}
}

func TestMiddleware_InboundRequestID(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		keepsID bool
	}{
		{"printable id kept", "abc-123", true},
		{"spaces rejected", "abc 123", false},
		{"too long rejected", strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			m := newTestMiddleware(&buf)
			h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

			req := httptest.NewRequest(http.MethodGet, "/summary", nil)
			req.Header.Set(HeaderRequestID, tt.header)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			if (got == tt.header) != tt.keepsID {
				t.Fatalf("header %q -> response id %q", tt.header, got)
			}
		})
	}
}

func TestMiddleware_Metrics(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, p := range []string{"/a", "/b", "/boom"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 3 {
		t.Fatalf("expected 3 requests, got %d", got.TotalRequests)
	}
	if got.ServerErrors != 1 {
		t.Fatalf("expected 1 server error, got %d", got.ServerErrors)
	}
}

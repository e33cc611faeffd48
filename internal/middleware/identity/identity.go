// Package identity reads the caller's user id from a trusted request header.
// Authentication happens upstream; the header is taken as-is.
package identity

import (
	"context"
	"net/http"
	"strings"

	applog "finance/internal/log"
)

type contextKey string

const userIDKey contextKey = "user_id"

// DefaultHeader is used when no header name is configured.
const DefaultHeader = "X-User-Id"

// maxUserIDLength bounds the header value stored in logs and records.
const maxUserIDLength = 128

// WithUserID returns ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID extracts the user id from context, "" when absent.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// Middleware requires header on every request it wraps. onMissing writes
// the refusal for requests without a usable value.
func Middleware(header string, onMissing func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(header))
			if userID == "" || len(userID) > maxUserIDLength {
				if onMissing != nil {
					onMissing(w, r)
				} else {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

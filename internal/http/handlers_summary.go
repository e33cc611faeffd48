package http

import (
	"context"
	"net/http"
	"strings"

	"finance/internal/core"
	applog "finance/internal/log"
	"finance/internal/middleware/identity"
)

// handleSummary answers GET /summary?startDate=&endDate=. Other query keys
// are ignored. The reported period ends at endDate as supplied.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	dr, err := parseDateRange(r.URL.Query())
	if err != nil {
		s.writeError(w, r, applog.OpSummary, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), backendCallTimeout)
	defer cancel()

	summary, err := s.backend.Summary(ctx, identity.UserID(r.Context()), dr.Start, dr.End)
	if err != nil {
		s.writeError(w, r, applog.OpSummary, err)
		return
	}
	if !dr.RequestedEnd.IsZero() {
		summary.Period.End = dr.RequestedEnd
	}

	s.countSummary()
	NewJSONResponse().Body(map[string]any{
		"summary": toSummaryDTO(summary),
	}).Write(w)
}

// handleSummaryByCategory answers GET /summary/by-category?type=&startDate=&endDate=.
func (s *Server) handleSummaryByCategory(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, applog.OpSummary, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), backendCallTimeout)
	defer cancel()

	breakdown, err := s.backend.SummaryByCategory(ctx, identity.UserID(r.Context()), f)
	if err != nil {
		s.writeError(w, r, applog.OpSummary, err)
		return
	}

	s.countSummary()
	NewJSONResponse().Body(map[string]any{
		"categories": toCategorySummaryDTOs(breakdown),
		"total":      amountJSON(breakdown.Total),
	}).Write(w)
}

// handleCategories lists the catalogue, optionally narrowed to one type.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.DefaultCategories()
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			s.writeError(w, r, applog.OpList, err)
			return
		}
		cats = core.CategoriesByType(t)
	}

	NewJSONResponse().Body(map[string]any{
		"categories": toCategoryDTOs(cats),
	}).Write(w)
}

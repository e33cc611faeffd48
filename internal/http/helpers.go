package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"finance/internal/core"
	applog "finance/internal/log"
	"finance/internal/services"
)

// User-facing messages.
const (
	msgUnauthorized = "Non autorisé"
	msgNotFound     = "Transaction non trouvée"
	msgMissingData  = "Données manquantes"
	msgInvalidData  = "Données invalides"
	msgInvalidJSON  = "Format de requête invalide"
	msgBodyTooLarge = "Requête trop volumineuse"
	msgServerError  = "Erreur serveur"
	msgRateLimited  = "Trop de requêtes, réessayez plus tard"
	msgCreated      = "Transaction créée avec succès"
	msgUpdated      = "Transaction mise à jour avec succès"
	msgDeleted      = "Transaction supprimée avec succès"
)

const (
	timestampLayout      = time.RFC3339Nano
	maxRequestBodyBytes  = 1 << 20
	backendCallTimeout   = 10 * time.Second
	readinessCallTimeout = 5 * time.Second
)

type transactionDTO struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

type periodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type summaryDTO struct {
	TotalIncome   json.Number `json:"totalIncome"`
	TotalExpenses json.Number `json:"totalExpenses"`
	Balance       json.Number `json:"balance"`
	Period        periodDTO   `json:"period"`
}

type categorySummaryDTO struct {
	Category   string      `json:"category"`
	CategoryID string      `json:"categoryId"`
	Amount     json.Number `json:"amount"`
	Percentage float64     `json:"percentage"`
	Color      string      `json:"color"`
}

type categoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	IsDefault bool   `json:"isDefault"`
}

// amountJSON renders money as a bare JSON number in major units.
func amountJSON(m core.Money) json.Number {
	return json.Number(m.Decimal().String())
}

func formatDate(d core.Date) string {
	if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 && d.Nanosecond() == 0 {
		return d.Format(time.DateOnly)
	}
	return d.Format(timestampLayout)
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		UserID:      t.UserID,
		Amount:      amountJSON(t.Amount),
		Type:        t.Type.String(),
		Category:    t.Category,
		Date:        formatDate(t.Date),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:   t.UpdatedAt.UTC().Format(timestampLayout),
	}
}

func toTransactionDTOs(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, len(txs))
	for i, t := range txs {
		out[i] = toTransactionDTO(t)
	}
	return out
}

func toSummaryDTO(s core.Summary) summaryDTO {
	return summaryDTO{
		TotalIncome:   amountJSON(s.TotalIncome),
		TotalExpenses: amountJSON(s.TotalExpenses),
		Balance:       amountJSON(s.Balance),
		Period: periodDTO{
			Start: s.Period.Start.UTC().Format(timestampLayout),
			End:   s.Period.End.UTC().Format(timestampLayout),
		},
	}
}

func toCategorySummaryDTOs(b services.CategoryBreakdown) []categorySummaryDTO {
	out := make([]categorySummaryDTO, len(b.Categories))
	for i, c := range b.Categories {
		out[i] = categorySummaryDTO{
			Category:   c.Name,
			CategoryID: c.CategoryID,
			Amount:     amountJSON(c.Amount),
			Percentage: c.Percentage,
			Color:      c.Color,
		}
	}
	return out
}

func toCategoryDTOs(cats []core.Category) []categoryDTO {
	out := make([]categoryDTO, len(cats))
	for i, c := range cats {
		out[i] = categoryDTO{
			ID:        c.ID,
			Name:      c.Name,
			Type:      string(c.Type),
			Color:     c.Color,
			Icon:      c.Icon,
			IsDefault: c.IsDefault,
		}
	}
	return out
}

// errorFor maps a domain error to its HTTP response.
func errorFor(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return UnauthorizedError()
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(msgNotFound)
	case errors.Is(err, core.ErrMissingFields):
		return BadRequestError(msgMissingData)
	case errors.Is(err, core.ErrValidation):
		return BadRequestError(msgInvalidData + ": " + validationDetail(err))
	default:
		return InternalServerError()
	}
}

// validationDetail drops the generic prefix shared by every validation error.
func validationDetail(err error) string {
	return strings.TrimPrefix(err.Error(), core.ErrValidation.Error()+": ")
}

// writeError answers with the mapped error and logs server-side failures.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		fields := applog.NewFields().WithErrorType(errorType(err))
		s.structured(r.Context()).LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, fields)
	} else {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, op,
			applog.FieldStatusCode, resp.statusCode,
			applog.FieldError, err.Error())
	}
	resp.Write(w)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrStorage):
		return applog.ErrorTypeDatabase
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeNetwork
	default:
		return applog.ErrorTypeInternal
	}
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

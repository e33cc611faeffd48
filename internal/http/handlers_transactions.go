package http

import (
	"context"
	"errors"
	"net/http"

	applog "finance/internal/log"
	"finance/internal/middleware/identity"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), backendCallTimeout)
	defer cancel()

	txs, err := s.backend.ListTransactions(ctx, identity.UserID(r.Context()), f)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"transactions": toTransactionDTOs(txs),
	}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendCallTimeout)
	defer cancel()

	t, err := s.backend.GetTransaction(ctx, identity.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"transaction": toTransactionDTO(t),
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	in, err := req.ToNewTransaction()
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), backendCallTimeout)
	defer cancel()

	userID := identity.UserID(r.Context())
	t, err := s.backend.CreateTransaction(ctx, userID, in)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	s.countCreated()
	s.structured(r.Context()).LogTransaction(r.Context(), applog.OpCreate, userID, t.ID, t.Amount.Cents, t.Type.String(), t.Category)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/transactions/"+t.ID).
		Body(map[string]string{"id": t.ID, "message": msgCreated}).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), backendCallTimeout)
	defer cancel()

	userID := identity.UserID(r.Context())
	t, err := s.backend.UpdateTransaction(ctx, userID, r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}

	s.countUpdated()
	s.structured(r.Context()).LogTransaction(r.Context(), applog.OpUpdate, userID, t.ID, t.Amount.Cents, t.Type.String(), t.Category)

	NewJSONResponse().Message(msgUpdated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendCallTimeout)
	defer cancel()

	userID := identity.UserID(r.Context())
	id := r.PathValue("id")
	if err := s.backend.DeleteTransaction(ctx, userID, id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}

	s.countDeleted()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentTransaction).InfoContext(r.Context(),
		"Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldOperation, applog.OpDelete)

	NewJSONResponse().Message(msgDeleted).Write(w)
}

func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		ErrorResponse(http.StatusRequestEntityTooLarge, msgBodyTooLarge).Write(w)
		return
	}
	BadRequestError(msgInvalidJSON).Write(w)
}

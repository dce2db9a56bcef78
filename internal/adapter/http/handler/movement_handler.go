package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// PostingService defines the write path needed by MovementHandler.
type PostingService interface {
	Post(ctx context.Context, input usecase.PostInput) (*domain.Movement, error)
	CheckFunds(ctx context.Context, accountID, currencyID string, amount decimal.Decimal) error
}

// MovementHandler handles movement postings.
type MovementHandler struct {
	posting PostingService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(posting PostingService) *MovementHandler {
	return &MovementHandler{posting: posting}
}

// Post records a movement against a balance.
func (h *MovementHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req dto.PostMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		writeDomainError(w, "invalid movement", err)
		return
	}

	movement, err := h.posting.Post(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to post movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// FundsCheck reports whether ?amount= may leave the balance.
func (h *MovementHandler) FundsCheck(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	resp := dto.FundsCheckResponse{
		AccountID:  chi.URLParam(r, "account"),
		CurrencyID: chi.URLParam(r, "currency"),
		Amount:     amount,
		Sufficient: true,
	}

	err = h.posting.CheckFunds(r.Context(), resp.AccountID, resp.CurrencyID, amount)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInsufficientFunds):
		resp.Sufficient = false
		resp.Reason = err.Error()
	default:
		writeDomainError(w, "failed to check funds", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

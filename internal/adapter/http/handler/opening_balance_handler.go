package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// OpeningBalanceService defines the behavior needed by OpeningBalanceHandler.
type OpeningBalanceService interface {
	Seed(ctx context.Context, input usecase.SeedInput) (*usecase.SeedResult, error)
	Active(ctx context.Context, accountID, currencyID string) (*domain.OpeningBalance, error)
}

// OpeningBalanceHandler handles opening balance anchors.
type OpeningBalanceHandler struct {
	openings OpeningBalanceService
}

// NewOpeningBalanceHandler creates a new OpeningBalanceHandler.
func NewOpeningBalanceHandler(openings OpeningBalanceService) *OpeningBalanceHandler {
	return &OpeningBalanceHandler{openings: openings}
}

// Seed declares a new opening balance, superseding the active one.
func (h *OpeningBalanceHandler) Seed(w http.ResponseWriter, r *http.Request) {
	var req dto.SeedOpeningBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid opening balance", err)
		return
	}

	result, err := h.openings.Seed(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to seed opening balance", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SeedFromUseCase(result))
}

// Active returns the pair's active opening balance.
func (h *OpeningBalanceHandler) Active(w http.ResponseWriter, r *http.Request) {
	opening, err := h.openings.Active(r.Context(), chi.URLParam(r, "account"), chi.URLParam(r, "currency"))
	if err != nil {
		writeDomainError(w, "failed to get opening balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OpeningBalanceFromDomain(opening))
}

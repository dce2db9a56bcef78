package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// BalanceService defines the read side needed by BalanceHandler.
type BalanceService interface {
	GetBalance(ctx context.Context, accountID, currencyID string) (*domain.Snapshot, error)
	ListBalances(ctx context.Context, accountID string) ([]*domain.Snapshot, error)
	ListMovements(ctx context.Context, input usecase.ListMovementsInput) (*usecase.MovementPage, error)
	GetMovement(ctx context.Context, id string) (*domain.Movement, error)
}

// BalanceHandler serves balances and the movement log.
type BalanceHandler struct {
	balances BalanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balances BalanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// List returns every balance held by an account.
func (h *BalanceHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.balances.ListBalances(r.Context(), chi.URLParam(r, "account"))
	if err != nil {
		writeDomainError(w, "failed to list balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromDomain(snapshots))
}

// Get returns one account/currency balance.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.balances.GetBalance(r.Context(), chi.URLParam(r, "account"), chi.URLParam(r, "currency"))
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(snapshot))
}

// Movements pages through a pair's log in sequence order.
func (h *BalanceHandler) Movements(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from", err.Error())
		return
	}

	to, err := parseTimeQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to", err.Error())
		return
	}

	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		after, err = strconv.ParseInt(v, 10, 64)
		if err != nil || after < 0 {
			writeError(w, http.StatusBadRequest, "invalid after", v)
			return
		}
	}

	page, err := h.balances.ListMovements(r.Context(), usecase.ListMovementsInput{
		AccountID:     chi.URLParam(r, "account"),
		CurrencyID:    chi.URLParam(r, "currency"),
		From:          from,
		To:            to,
		AfterSequence: after,
		Limit:         parseIntQuery(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list movements", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementPageFromUseCase(page))
}

// GetMovement returns a single movement by ID.
func (h *BalanceHandler) GetMovement(w http.ResponseWriter, r *http.Request) {
	movement, err := h.balances.GetMovement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

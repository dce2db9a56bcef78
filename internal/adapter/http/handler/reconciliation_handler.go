package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ComputeTrueBalance(ctx context.Context, accountID, currencyID string) (decimal.Decimal, error)
	Reconcile(ctx context.Context, input usecase.ReconcileInput) (*domain.ReconciliationResult, error)
	ReconcileAll(ctx context.Context, accountID, actor string, dryRun bool) (*domain.ReconciliationBatch, error)
	ReconcileSystem(ctx context.Context, actor string, dryRun bool) (*domain.ReconciliationBatch, error)
}

// ReconciliationHandler compares snapshots with their replayed logs.
type ReconciliationHandler struct {
	reconciliation ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliation ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliation: reconciliation}
}

// TrueBalance returns the balance replayed from the movement log.
func (h *ReconciliationHandler) TrueBalance(w http.ResponseWriter, r *http.Request) {
	accountID, currencyID := chi.URLParam(r, "account"), chi.URLParam(r, "currency")

	balance, err := h.reconciliation.ComputeTrueBalance(r.Context(), accountID, currencyID)
	if err != nil {
		writeDomainError(w, "failed to compute true balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TrueBalanceResponse{
		AccountID:   accountID,
		CurrencyID:  currencyID,
		TrueBalance: balance,
	})
}

// Reconcile reconciles a single pair.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReconcileRequest(w, r)
	if !ok {
		return
	}

	channel, err := domain.ParseChannel(req.Channel)
	if err != nil {
		writeDomainError(w, "invalid channel", err)
		return
	}

	result, err := h.reconciliation.Reconcile(r.Context(), usecase.ReconcileInput{
		AccountID:  chi.URLParam(r, "account"),
		CurrencyID: chi.URLParam(r, "currency"),
		Actor:      req.Actor,
		Channel:    channel,
		DryRun:     req.DryRun,
	})
	if err != nil {
		writeDomainError(w, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(result))
}

// ReconcileAccount reconciles every balance of one account.
func (h *ReconciliationHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReconcileRequest(w, r)
	if !ok {
		return
	}

	batch, err := h.reconciliation.ReconcileAll(r.Context(), chi.URLParam(r, "account"), req.Actor, req.DryRun)
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationBatchFromDomain(batch))
}

// ReconcileSystem reconciles every balance in the ledger.
func (h *ReconciliationHandler) ReconcileSystem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReconcileRequest(w, r)
	if !ok {
		return
	}

	batch, err := h.reconciliation.ReconcileSystem(r.Context(), req.Actor, req.DryRun)
	if err != nil {
		writeDomainError(w, "failed to reconcile system", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationBatchFromDomain(batch))
}

func decodeReconcileRequest(w http.ResponseWriter, r *http.Request) (dto.ReconcileRequest, bool) {
	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return req, false
	}
	return req, true
}

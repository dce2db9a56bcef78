package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// AuditService defines the read-only checks needed by AuditHandler.
type AuditService interface {
	CheckChain(ctx context.Context, accountID, currencyID string, window usecase.ChainRange) (*domain.ChainReport, error)
	AuditSigns(ctx context.Context, accountID, currencyID string) ([]domain.SignFinding, error)
}

// AuditHandler exposes chain verification and sign audits.
type AuditHandler struct {
	audit AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Chain walks a pair's log, optionally limited by ?from= and ?to=.
func (h *AuditHandler) Chain(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.audit.CheckChain(r.Context(), chi.URLParam(r, "account"), chi.URLParam(r, "currency"), usecase.ChainRange{From: from, To: to})
	if err != nil {
		writeDomainError(w, "failed to check chain", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChainReportFromDomain(report))
}

// Signs lists stored movements whose sign contradicts their kind.
func (h *AuditHandler) Signs(w http.ResponseWriter, r *http.Request) {
	findings, err := h.audit.AuditSigns(r.Context(), chi.URLParam(r, "account"), chi.URLParam(r, "currency"))
	if err != nil {
		writeDomainError(w, "failed to audit signs", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SignFindingsFromDomain(findings))
}

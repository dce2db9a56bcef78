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

// RegistryService defines the behavior needed by AccountHandler.
type RegistryService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, afterID string, limit int) ([]*domain.Account, error)
	CreateCurrency(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]*domain.Currency, error)
}

// AccountHandler handles account and currency registry requests.
type AccountHandler struct {
	registry RegistryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(registry RegistryService) *AccountHandler {
	return &AccountHandler{registry: registry}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.registry.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "account")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.registry.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts ordered by ID, resuming after the `after` cursor.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := domain.ValidatePagination(parseIntQuery(r, "limit", 0))

	accounts, err := h.registry.ListAccounts(r.Context(), r.URL.Query().Get("after"), limit)
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	resp := dto.ListAccountsResponse{Accounts: make([]*dto.AccountResponse, len(accounts))}
	for i, a := range accounts {
		resp.Accounts[i] = dto.AccountFromDomain(a)
	}

	if len(accounts) == limit {
		resp.NextCursor = accounts[len(accounts)-1].ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateCurrency registers a currency.
func (h *AccountHandler) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	currency, err := h.registry.CreateCurrency(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create currency", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CurrencyFromDomain(currency))
}

// ListCurrencies lists registered currencies.
func (h *AccountHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.registry.ListCurrencies(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list currencies", err)
		return
	}

	resp := make([]*dto.CurrencyResponse, len(currencies))
	for i, c := range currencies {
		resp[i] = dto.CurrencyFromDomain(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name                 string `json:"name"`
	AllowNegativeBalance bool   `json:"allow_negative_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:                 r.Name,
		AllowNegativeBalance: r.AllowNegativeBalance,
	}
}

// CreateCurrencyRequest represents a request to register a currency.
type CreateCurrencyRequest struct {
	Code      string `json:"code"`
	Precision int32  `json:"precision"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCurrencyRequest) ToUseCaseInput() usecase.CreateCurrencyInput {
	return usecase.CreateCurrencyInput{Code: r.Code, Precision: r.Precision}
}

// ReferenceRequest tags a movement with the business operation behind it.
type ReferenceRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// PostMovementRequest represents a request to post a movement.
type PostMovementRequest struct {
	AccountID    string            `json:"account_id"`
	CurrencyID   string            `json:"currency_id"`
	Kind         string            `json:"kind"`
	Channel      string            `json:"channel,omitempty"`
	Amount       decimal.Decimal   `json:"amount"`
	Actor        string            `json:"actor"`
	Description  string            `json:"description,omitempty"`
	Reference    *ReferenceRequest `json:"reference,omitempty"`
	RequireFunds bool              `json:"require_funds,omitempty"`
}

// ToUseCaseInput converts to use case input. Kind and channel are parsed
// here so malformed values fail before reaching the engine.
func (r *PostMovementRequest) ToUseCaseInput(idempotencyKey string) (usecase.PostInput, error) {
	kind, err := domain.ParseKind(r.Kind)
	if err != nil {
		return usecase.PostInput{}, err
	}

	channel, err := domain.ParseChannel(r.Channel)
	if err != nil {
		return usecase.PostInput{}, err
	}

	input := usecase.PostInput{
		AccountID:      r.AccountID,
		CurrencyID:     r.CurrencyID,
		Kind:           kind,
		Channel:        channel,
		Amount:         r.Amount,
		Actor:          r.Actor,
		Description:    r.Description,
		IdempotencyKey: idempotencyKey,
		RequireFunds:   r.RequireFunds,
	}

	if r.Reference != nil {
		input.Reference = &domain.Reference{Kind: r.Reference.Kind, ID: r.Reference.ID}
	}

	return input, nil
}

// CreateTransferRequest represents a request to move funds between accounts.
type CreateTransferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	CurrencyID    string          `json:"currency_id"`
	Amount        decimal.Decimal `json:"amount"`
	Actor         string          `json:"actor"`
	Description   string          `json:"description,omitempty"`
	FromChannel   string          `json:"from_channel,omitempty"`
	ToChannel     string          `json:"to_channel,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(idempotencyKey string) (usecase.TransferInput, error) {
	from, err := domain.ParseChannel(r.FromChannel)
	if err != nil {
		return usecase.TransferInput{}, fmt.Errorf("from_channel: %w", err)
	}

	to, err := domain.ParseChannel(r.ToChannel)
	if err != nil {
		return usecase.TransferInput{}, fmt.Errorf("to_channel: %w", err)
	}

	return usecase.TransferInput{
		FromAccountID:  r.FromAccountID,
		ToAccountID:    r.ToAccountID,
		CurrencyID:     r.CurrencyID,
		Amount:         r.Amount,
		Actor:          r.Actor,
		Description:    r.Description,
		IdempotencyKey: idempotencyKey,
		FromChannel:    from,
		ToChannel:      to,
	}, nil
}

// ActorRequest carries the actor for operations that need nothing else.
type ActorRequest struct {
	Actor string `json:"actor"`
}

// ComponentsRequest is the split of a cash balance.
type ComponentsRequest struct {
	CashBills decimal.Decimal `json:"cash_bills"`
	CashCoins decimal.Decimal `json:"cash_coins"`
	Bank      decimal.Decimal `json:"bank"`
}

// SeedOpeningBalanceRequest represents a request to declare an opening balance.
type SeedOpeningBalanceRequest struct {
	AccountID   string             `json:"account_id"`
	CurrencyID  string             `json:"currency_id"`
	Quantity    decimal.Decimal    `json:"quantity"`
	Components  *ComponentsRequest `json:"components,omitempty"`
	Channel     string             `json:"channel,omitempty"`
	Actor       string             `json:"actor"`
	Description string             `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SeedOpeningBalanceRequest) ToUseCaseInput() (usecase.SeedInput, error) {
	channel, err := domain.ParseChannel(r.Channel)
	if err != nil {
		return usecase.SeedInput{}, err
	}

	input := usecase.SeedInput{
		AccountID:   r.AccountID,
		CurrencyID:  r.CurrencyID,
		Quantity:    r.Quantity,
		Channel:     channel,
		Actor:       r.Actor,
		Description: r.Description,
	}

	if c := r.Components; c != nil {
		input.Components = &domain.Components{CashBills: c.CashBills, CashCoins: c.CashCoins, Bank: c.Bank}
	}

	return input, nil
}

// ReconcileRequest represents a request to reconcile one or more balances.
type ReconcileRequest struct {
	Actor   string `json:"actor"`
	Channel string `json:"channel,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

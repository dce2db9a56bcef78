package usecase

import (
	"context"
	"time"

	"github.com/casacambio/cashledger/internal/domain"
)

// RegistryUseCase resolves and maintains accounts and currencies.
type RegistryUseCase struct {
	accountRepo  AccountRepository
	currencyRepo CurrencyRepository
	idGen        IDGenerator
}

// NewRegistryUseCase creates a new RegistryUseCase.
func NewRegistryUseCase(accountRepo AccountRepository, currencyRepo CurrencyRepository, idGen IDGenerator) *RegistryUseCase {
	return &RegistryUseCase{
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
		idGen:        idGen,
	}
}

// ResolveAccount returns the active account with the given ID.
func (uc *RegistryUseCase) ResolveAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !account.Active {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// ResolveCurrency returns the active currency with the given ID.
func (uc *RegistryUseCase) ResolveCurrency(ctx context.Context, id string) (*domain.Currency, error) {
	currency, err := uc.currencyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !currency.Active {
		return nil, domain.ErrCurrencyNotFound
	}

	return currency, nil
}

// resolvePair resolves both sides of an (account, currency) pair.
func (uc *RegistryUseCase) resolvePair(ctx context.Context, accountID, currencyID string) (*domain.Account, *domain.Currency, error) {
	account, err := uc.ResolveAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}

	currency, err := uc.ResolveCurrency(ctx, currencyID)
	if err != nil {
		return nil, nil, err
	}

	return account, currency, nil
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name                 string
	AllowNegativeBalance bool
}

// CreateAccount creates a new active account.
func (uc *RegistryUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:                   uc.idGen.Generate(),
		Name:                 input.Name,
		Active:               true,
		AllowNegativeBalance: input.AllowNegativeBalance,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// CreateCurrencyInput represents input for registering a currency.
type CreateCurrencyInput struct {
	Code      string
	Precision int32
}

// CreateCurrency registers a currency. Its ID is the normalized ISO code.
func (uc *RegistryUseCase) CreateCurrency(ctx context.Context, input CreateCurrencyInput) (*domain.Currency, error) {
	code, err := domain.NormalizeCurrencyCode(input.Code)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidatePrecision(input.Precision); err != nil {
		return nil, err
	}

	currency := &domain.Currency{
		ID:        code,
		Code:      code,
		Precision: input.Precision,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.currencyRepo.Create(ctx, currency); err != nil {
		return nil, err
	}

	return currency, nil
}

// GetAccount retrieves an account by ID, active or not.
func (uc *RegistryUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccounts lists accounts ordered by ID after the given cursor.
func (uc *RegistryUseCase) ListAccounts(ctx context.Context, afterID string, limit int) ([]*domain.Account, error) {
	return uc.accountRepo.List(ctx, afterID, domain.ValidatePagination(limit))
}

// ListCurrencies lists all registered currencies.
func (uc *RegistryUseCase) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	return uc.currencyRepo.List(ctx)
}

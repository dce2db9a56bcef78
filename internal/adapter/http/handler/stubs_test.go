package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

type registryServiceStub struct {
	createFn         func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn            func(ctx context.Context, id string) (*domain.Account, error)
	listFn           func(ctx context.Context, afterID string, limit int) ([]*domain.Account, error)
	createCurrencyFn func(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error)
	listCurrencyFn   func(ctx context.Context) ([]*domain.Currency, error)
}

func (s *registryServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *registryServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *registryServiceStub) ListAccounts(ctx context.Context, afterID string, limit int) ([]*domain.Account, error) {
	return s.listFn(ctx, afterID, limit)
}

func (s *registryServiceStub) CreateCurrency(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error) {
	return s.createCurrencyFn(ctx, input)
}

func (s *registryServiceStub) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	return s.listCurrencyFn(ctx)
}

type balanceServiceStub struct {
	getFn         func(ctx context.Context, accountID, currencyID string) (*domain.Snapshot, error)
	listFn        func(ctx context.Context, accountID string) ([]*domain.Snapshot, error)
	movementsFn   func(ctx context.Context, input usecase.ListMovementsInput) (*usecase.MovementPage, error)
	getMovementFn func(ctx context.Context, id string) (*domain.Movement, error)
}

func (s *balanceServiceStub) GetBalance(ctx context.Context, accountID, currencyID string) (*domain.Snapshot, error) {
	return s.getFn(ctx, accountID, currencyID)
}

func (s *balanceServiceStub) ListBalances(ctx context.Context, accountID string) ([]*domain.Snapshot, error) {
	return s.listFn(ctx, accountID)
}

func (s *balanceServiceStub) ListMovements(ctx context.Context, input usecase.ListMovementsInput) (*usecase.MovementPage, error) {
	return s.movementsFn(ctx, input)
}

func (s *balanceServiceStub) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	return s.getMovementFn(ctx, id)
}

type postingServiceStub struct {
	postFn       func(ctx context.Context, input usecase.PostInput) (*domain.Movement, error)
	checkFundsFn func(ctx context.Context, accountID, currencyID string, amount decimal.Decimal) error
}

func (s *postingServiceStub) Post(ctx context.Context, input usecase.PostInput) (*domain.Movement, error) {
	return s.postFn(ctx, input)
}

func (s *postingServiceStub) CheckFunds(ctx context.Context, accountID, currencyID string, amount decimal.Decimal) error {
	return s.checkFundsFn(ctx, accountID, currencyID, amount)
}

type transferServiceStub struct {
	transferFn func(ctx context.Context, input usecase.TransferInput) (*domain.Transfer, error)
	getFn      func(ctx context.Context, id string) (*domain.Transfer, error)
	cancelFn   func(ctx context.Context, id, actor string) (*domain.Transfer, error)
}

func (s *transferServiceStub) Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transfer, error) {
	return s.transferFn(ctx, input)
}

func (s *transferServiceStub) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	return s.getFn(ctx, id)
}

func (s *transferServiceStub) CancelTransfer(ctx context.Context, id, actor string) (*domain.Transfer, error) {
	return s.cancelFn(ctx, id, actor)
}

type openingBalanceServiceStub struct {
	seedFn   func(ctx context.Context, input usecase.SeedInput) (*usecase.SeedResult, error)
	activeFn func(ctx context.Context, accountID, currencyID string) (*domain.OpeningBalance, error)
}

func (s *openingBalanceServiceStub) Seed(ctx context.Context, input usecase.SeedInput) (*usecase.SeedResult, error) {
	return s.seedFn(ctx, input)
}

func (s *openingBalanceServiceStub) Active(ctx context.Context, accountID, currencyID string) (*domain.OpeningBalance, error) {
	return s.activeFn(ctx, accountID, currencyID)
}

type auditServiceStub struct {
	chainFn func(ctx context.Context, accountID, currencyID string, window usecase.ChainRange) (*domain.ChainReport, error)
	signsFn func(ctx context.Context, accountID, currencyID string) ([]domain.SignFinding, error)
}

func (s *auditServiceStub) CheckChain(ctx context.Context, accountID, currencyID string, window usecase.ChainRange) (*domain.ChainReport, error) {
	return s.chainFn(ctx, accountID, currencyID, window)
}

func (s *auditServiceStub) AuditSigns(ctx context.Context, accountID, currencyID string) ([]domain.SignFinding, error) {
	return s.signsFn(ctx, accountID, currencyID)
}

type reconciliationServiceStub struct {
	trueBalanceFn func(ctx context.Context, accountID, currencyID string) (decimal.Decimal, error)
	reconcileFn   func(ctx context.Context, input usecase.ReconcileInput) (*domain.ReconciliationResult, error)
	allFn         func(ctx context.Context, accountID, actor string, dryRun bool) (*domain.ReconciliationBatch, error)
	systemFn      func(ctx context.Context, actor string, dryRun bool) (*domain.ReconciliationBatch, error)
}

func (s *reconciliationServiceStub) ComputeTrueBalance(ctx context.Context, accountID, currencyID string) (decimal.Decimal, error) {
	return s.trueBalanceFn(ctx, accountID, currencyID)
}

func (s *reconciliationServiceStub) Reconcile(ctx context.Context, input usecase.ReconcileInput) (*domain.ReconciliationResult, error) {
	return s.reconcileFn(ctx, input)
}

func (s *reconciliationServiceStub) ReconcileAll(ctx context.Context, accountID, actor string, dryRun bool) (*domain.ReconciliationBatch, error) {
	return s.allFn(ctx, accountID, actor, dryRun)
}

func (s *reconciliationServiceStub) ReconcileSystem(ctx context.Context, actor string, dryRun bool) (*domain.ReconciliationBatch, error) {
	return s.systemFn(ctx, actor, dryRun)
}

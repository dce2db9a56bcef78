package usecase_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
	"github.com/casacambio/cashledger/internal/usecase/mocks"
)

// ledger wires every use case over one in-memory store.
type ledger struct {
	store       *mocks.Store
	txManager   *mocks.TxManager
	movements   *mocks.MovementRepo
	registry    *usecase.RegistryUseCase
	posting     *usecase.PostingUseCase
	balances    *usecase.BalanceUseCase
	openings    *usecase.OpeningBalanceUseCase
	audit       *usecase.AuditUseCase
	reconciler  *usecase.ReconciliationUseCase
	transfers   *usecase.TransferUseCase
	idempotency usecase.IdempotencyStore
	cache       usecase.Cache
}

type ledgerOption func(*ledgerDeps)

type ledgerDeps struct {
	idempotency usecase.IdempotencyStore
	cache       usecase.Cache
	metrics     usecase.Metrics
}

func withIdempotency(store usecase.IdempotencyStore) ledgerOption {
	return func(d *ledgerDeps) { d.idempotency = store }
}

func withCache(cache usecase.Cache) ledgerOption {
	return func(d *ledgerDeps) { d.cache = cache }
}

func withMetrics(m usecase.Metrics) ledgerOption {
	return func(d *ledgerDeps) { d.metrics = m }
}

func newLedger(t *testing.T, opts ...ledgerOption) *ledger {
	t.Helper()

	var deps ledgerDeps
	for _, opt := range opts {
		opt(&deps)
	}

	store := mocks.NewStore()
	txManager := mocks.NewTxManager(store)
	ids := &mocks.SequentialIDs{Prefix: "id-"}
	accounts := &mocks.AccountRepo{Store: store}
	currencies := &mocks.CurrencyRepo{Store: store}
	snapshots := &mocks.SnapshotRepo{Store: store}
	movements := &mocks.MovementRepo{Store: store}
	openingRepo := &mocks.OpeningBalanceRepo{Store: store}
	outbox := &mocks.OutboxRepo{Store: store}
	retrier := mocks.Retrier{Attempts: 3}
	logger := zerolog.Nop()

	registry := usecase.NewRegistryUseCase(accounts, currencies, ids)

	posting := usecase.NewPostingUseCase(usecase.PostingConfig{
		Registry:     registry,
		TxManager:    txManager,
		SnapshotRepo: snapshots,
		MovementRepo: movements,
		OutboxRepo:   outbox,
		IDGen:        ids,
		Retrier:      retrier,
		Idempotency:  deps.idempotency,
		Cache:        deps.cache,
		Metrics:      deps.metrics,
		Logger:       logger,
	})

	return &ledger{
		store:       store,
		txManager:   txManager,
		movements:   movements,
		registry:    registry,
		posting:     posting,
		idempotency: deps.idempotency,
		cache:       deps.cache,
		balances:    usecase.NewBalanceUseCase(registry, snapshots, movements, deps.cache, logger),
		openings: usecase.NewOpeningBalanceUseCase(usecase.OpeningBalanceConfig{
			Registry:     registry,
			TxManager:    txManager,
			SnapshotRepo: snapshots,
			MovementRepo: movements,
			OpeningRepo:  openingRepo,
			OutboxRepo:   outbox,
			IDGen:        ids,
			Retrier:      retrier,
			Cache:        deps.cache,
			Logger:       logger,
		}),
		audit: usecase.NewAuditUseCase(registry, txManager, snapshots, movements, openingRepo, deps.metrics, logger),
		reconciler: usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
			Registry:     registry,
			TxManager:    txManager,
			SnapshotRepo: snapshots,
			MovementRepo: movements,
			OpeningRepo:  openingRepo,
			OutboxRepo:   outbox,
			IDGen:        ids,
			Retrier:      retrier,
			Cache:        deps.cache,
			Metrics:      deps.metrics,
			Logger:       logger,
		}),
		transfers: usecase.NewTransferUseCase(posting, txManager, movements, outbox, ids, logger),
	}
}

func (l *ledger) addAccount(id string, allowNegative bool) {
	l.store.PutAccount(&domain.Account{
		ID:                   id,
		Name:                 "Account " + id,
		Active:               true,
		AllowNegativeBalance: allowNegative,
		CreatedAt:            time.Now().UTC(),
	})
}

func (l *ledger) addCurrency(code string, precision int32) {
	l.store.PutCurrency(&domain.Currency{ID: code, Code: code, Precision: precision, Active: true})
}

func (l *ledger) quantity(t *testing.T, accountID, currencyID string) decimal.Decimal {
	t.Helper()

	snap, ok := l.store.Snapshot(accountID, currencyID)
	if !ok {
		t.Fatalf("no snapshot for %s/%s", accountID, currencyID)
	}

	return snap.Quantity
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func postInput(accountID, currencyID string, kind domain.MovementKind, amount string) usecase.PostInput {
	return usecase.PostInput{
		AccountID:  accountID,
		CurrencyID: currencyID,
		Kind:       kind,
		Amount:     dec(amount),
		Actor:      "cashier-1",
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
)

// ReconciliationConfig wires the reconciliation use case.
type ReconciliationConfig struct {
	Registry     *RegistryUseCase
	TxManager    TransactionManager
	SnapshotRepo SnapshotRepository
	MovementRepo MovementRepository
	OpeningRepo  OpeningBalanceRepository
	OutboxRepo   OutboxRepository
	IDGen        IDGenerator
	Retrier      Retrier
	Cache        Cache
	Metrics      Metrics
	Logger       zerolog.Logger
}

// ReconciliationUseCase compares snapshots with the balance replayed from the
// movement log and repairs drift with an ADJUSTMENT movement.
type ReconciliationUseCase struct {
	registry     *RegistryUseCase
	txManager    TransactionManager
	snapshotRepo SnapshotRepository
	accountRepo  AccountRepository
	outboxRepo   OutboxRepository
	replay       *replayer
	writer       *ledgerWriter
	idGen        IDGenerator
	retrier      Retrier
	cache        Cache
	metrics      Metrics
	logger       zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(cfg ReconciliationConfig) *ReconciliationUseCase {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &ReconciliationUseCase{
		registry:     cfg.Registry,
		txManager:    cfg.TxManager,
		snapshotRepo: cfg.SnapshotRepo,
		accountRepo:  cfg.Registry.accountRepo,
		outboxRepo:   cfg.OutboxRepo,
		replay:       &replayer{openingRepo: cfg.OpeningRepo, movementRepo: cfg.MovementRepo},
		writer: &ledgerWriter{
			snapshotRepo: cfg.SnapshotRepo,
			movementRepo: cfg.MovementRepo,
			outboxRepo:   cfg.OutboxRepo,
			idGen:        cfg.IDGen,
		},
		idGen:   cfg.IDGen,
		retrier: cfg.Retrier,
		cache:   cfg.Cache,
		metrics: metrics,
		logger:  cfg.Logger,
	}
}

// ComputeTrueBalance replays the pair's log on top of its opening balance,
// deriving every sign from the movement kind.
func (uc *ReconciliationUseCase) ComputeTrueBalance(ctx context.Context, accountID, currencyID string) (decimal.Decimal, error) {
	_, currency, err := uc.registry.resolvePair(ctx, accountID, currencyID)
	if err != nil {
		return decimal.Zero, err
	}

	tx, err := uc.txManager.BeginReadOnly(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	balance, _, err := uc.replay.trueBalance(ctx, tx, accountID, currencyID)
	if err != nil {
		return decimal.Zero, err
	}

	return currency.Round(balance), nil
}

// ReconcileInput selects a pair to reconcile.
type ReconcileInput struct {
	AccountID  string
	CurrencyID string
	Actor      string
	// Channel receives the adjustment on split snapshots. Defaults to CASH_BILLS.
	Channel domain.Channel
	// DryRun reports drift without writing an adjustment.
	DryRun bool
}

// Reconcile compares the pair's snapshot with its replayed balance under the
// snapshot lock. When they differ by more than the tolerance it appends an
// ADJUSTMENT for exactly the difference. Adjustments are excluded from replay,
// so reconciling again right away finds nothing to correct.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, input ReconcileInput) (*domain.ReconciliationResult, error) {
	if err := domain.ValidateActor(input.Actor); err != nil {
		return nil, err
	}

	_, currency, err := uc.registry.resolvePair(ctx, input.AccountID, input.CurrencyID)
	if err != nil {
		return nil, err
	}

	var result *domain.ReconciliationResult

	err = uc.retrier.Retry(ctx, func() error {
		r, err := uc.reconcileOnce(ctx, currency, input)
		if err != nil {
			return err
		}

		result = r

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrLockTimeout) {
			uc.metrics.LockTimeout()
		}

		return nil, err
	}

	uc.metrics.ReconciliationCompleted(result)

	if result.Corrected {
		invalidateBalance(ctx, uc.cache, uc.logger, input.AccountID, input.CurrencyID)

		uc.logger.Warn().
			Str("account_id", input.AccountID).
			Str("currency_id", input.CurrencyID).
			Str("saldo_anterior", result.SaldoAnterior.String()).
			Str("saldo_calculado", result.SaldoCalculado.String()).
			Str("diferencia", result.Diferencia.String()).
			Str("movement_id", result.Adjustment.ID).
			Msg("snapshot drift corrected")
	}

	return result, nil
}

func (uc *ReconciliationUseCase) reconcileOnce(ctx context.Context, currency *domain.Currency, input ReconcileInput) (*domain.ReconciliationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	snap, err := uc.snapshotRepo.GetForUpdate(ctx, tx, input.AccountID, input.CurrencyID)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		snap = nil
	case err != nil:
		return nil, err
	}

	trueBalance, lastSequence, err := uc.replay.trueBalance(ctx, tx, input.AccountID, input.CurrencyID)
	if err != nil {
		return nil, err
	}

	trueBalance = currency.Round(trueBalance)

	if snap == nil {
		if trueBalance.IsZero() {
			return &domain.ReconciliationResult{
				AccountID:  input.AccountID,
				CurrencyID: input.CurrencyID,
				CheckedAt:  now,
			}, nil
		}

		if snap, err = uc.snapshotRepo.LockOrCreate(ctx, tx, input.AccountID, input.CurrencyID, now); err != nil {
			return nil, err
		}
	}

	result := &domain.ReconciliationResult{
		AccountID:      input.AccountID,
		CurrencyID:     input.CurrencyID,
		SaldoAnterior:  snap.Quantity,
		SaldoCalculado: trueBalance,
		Diferencia:     trueBalance.Sub(snap.Quantity),
		CheckedAt:      now,
	}

	if !domain.ExceedsTolerance(trueBalance, snap.Quantity) {
		return result, nil
	}

	result.Drift = true

	if input.DryRun {
		return result, nil
	}

	// A snapshot that was recreated or rewound out of band must not reuse a
	// sequence already in the log.
	if snap.LastSequence < lastSequence {
		snap.LastSequence = lastSequence
	}

	channel := input.Channel
	if snap.Components != nil && channel == domain.ChannelNone {
		channel = domain.ChannelCashBills
	}

	reconciliationID := uc.idGen.Generate()

	adjustment, err := uc.writer.append(ctx, tx, snap, appendParams{
		Kind:    domain.KindAdjustment,
		Channel: channel,
		Amount:  result.Diferencia,
		Actor:   input.Actor,
		Description: fmt.Sprintf("reconciliation: snapshot %s, replayed %s, difference %s",
			result.SaldoAnterior.String(), trueBalance.String(), result.Diferencia.String()),
		Reference: &domain.Reference{Kind: domain.ReferenceReconciliation, ID: reconciliationID},
		At:        now,
	})
	if err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   domain.BalanceAggregateID(input.AccountID, input.CurrencyID),
			AggregateType: domain.AggregateTypeBalance,
			EventType:     domain.EventTypeReconciliationCorrected,
			Payload: map[string]any{
				"account_id":      input.AccountID,
				"currency_id":     input.CurrencyID,
				"movement_id":     adjustment.ID,
				"saldo_anterior":  result.SaldoAnterior.String(),
				"saldo_calculado": result.SaldoCalculado.String(),
				"diferencia":      result.Diferencia.String(),
				"actor":           input.Actor,
			},
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result.Adjustment = adjustment
	result.Corrected = true

	return result, nil
}

// ReconcileAll reconciles every currency the account holds. A failing pair is
// recorded and does not stop the others.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context, accountID, actor string, dryRun bool) (*domain.ReconciliationBatch, error) {
	if err := domain.ValidateActor(actor); err != nil {
		return nil, err
	}

	if _, err := uc.registry.ResolveAccount(ctx, accountID); err != nil {
		return nil, err
	}

	batch := &domain.ReconciliationBatch{StartedAt: time.Now().UTC()}

	snapshots, err := uc.snapshotRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	for _, snap := range snapshots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := uc.Reconcile(ctx, ReconcileInput{
			AccountID:  snap.AccountID,
			CurrencyID: snap.CurrencyID,
			Actor:      actor,
			DryRun:     dryRun,
		})
		if err != nil {
			batch.Failures = append(batch.Failures, domain.ReconciliationFailure{
				AccountID:  snap.AccountID,
				CurrencyID: snap.CurrencyID,
				Err:        err,
			})

			continue
		}

		batch.Add(result)
	}

	batch.FinishedAt = time.Now().UTC()

	return batch, nil
}

// ReconcileSystem sweeps every active account.
func (uc *ReconciliationUseCase) ReconcileSystem(ctx context.Context, actor string, dryRun bool) (*domain.ReconciliationBatch, error) {
	if err := domain.ValidateActor(actor); err != nil {
		return nil, err
	}

	batch := &domain.ReconciliationBatch{StartedAt: time.Now().UTC()}
	after := ""

	for {
		accounts, err := uc.accountRepo.List(ctx, after, SweepPageSize)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			after = account.ID

			if !account.Active {
				continue
			}

			result, err := uc.ReconcileAll(ctx, account.ID, actor, dryRun)
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}

				batch.Failures = append(batch.Failures, domain.ReconciliationFailure{AccountID: account.ID, Err: err})

				continue
			}

			batch.Merge(result)
		}

		if len(accounts) < SweepPageSize {
			break
		}
	}

	batch.FinishedAt = time.Now().UTC()

	uc.logger.Info().
		Int("pairs", len(batch.Results)).
		Int("drifted", batch.Drifted).
		Int("corrected", batch.Corrected).
		Int("failures", len(batch.Failures)).
		Dur("duration", batch.FinishedAt.Sub(batch.StartedAt)).
		Bool("dry_run", dryRun).
		Msg("reconciliation sweep finished")

	return batch, nil
}

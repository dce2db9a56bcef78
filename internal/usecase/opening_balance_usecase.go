package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
)

// OpeningBalanceUseCase provisions and re-seeds the replay anchor of a pair.
type OpeningBalanceUseCase struct {
	registry    *RegistryUseCase
	txManager   TransactionManager
	snapshots   SnapshotRepository
	openingRepo OpeningBalanceRepository
	outboxRepo  OutboxRepository
	writer      *ledgerWriter
	idGen       IDGenerator
	retrier     Retrier
	cache       Cache
	logger      zerolog.Logger
}

// OpeningBalanceConfig wires the opening balance use case.
type OpeningBalanceConfig struct {
	Registry     *RegistryUseCase
	TxManager    TransactionManager
	SnapshotRepo SnapshotRepository
	MovementRepo MovementRepository
	OpeningRepo  OpeningBalanceRepository
	OutboxRepo   OutboxRepository
	IDGen        IDGenerator
	Retrier      Retrier
	Cache        Cache
	Logger       zerolog.Logger
}

// NewOpeningBalanceUseCase creates a new OpeningBalanceUseCase.
func NewOpeningBalanceUseCase(cfg OpeningBalanceConfig) *OpeningBalanceUseCase {
	return &OpeningBalanceUseCase{
		registry:    cfg.Registry,
		txManager:   cfg.TxManager,
		snapshots:   cfg.SnapshotRepo,
		openingRepo: cfg.OpeningRepo,
		outboxRepo:  cfg.OutboxRepo,
		writer: &ledgerWriter{
			snapshotRepo: cfg.SnapshotRepo,
			movementRepo: cfg.MovementRepo,
			outboxRepo:   cfg.OutboxRepo,
			idGen:        cfg.IDGen,
		},
		idGen:   cfg.IDGen,
		retrier: cfg.Retrier,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

// SeedInput represents an opening balance declaration.
type SeedInput struct {
	Components  *domain.Components
	AccountID   string
	CurrencyID  string
	Actor       string
	Description string
	Channel     domain.Channel
	Quantity    decimal.Decimal
}

// SeedResult reports the new anchor and, on a re-seed, the delta movement.
type SeedResult struct {
	Opening    *domain.OpeningBalance
	Superseded *domain.OpeningBalance
	Movement   *domain.Movement
}

// Seed declares the pair's opening balance.
//
// On a pair with no movements the snapshot is set directly and the anchor
// starts at sequence zero. Once movements exist the anchor cannot be rewritten
// in place: the difference is posted as an OPENING_BALANCE movement, the old
// anchor is superseded and the new one starts after that movement, so replay
// keeps matching the snapshot.
func (uc *OpeningBalanceUseCase) Seed(ctx context.Context, input SeedInput) (*SeedResult, error) {
	if err := domain.ValidateActor(input.Actor); err != nil {
		return nil, err
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	account, currency, err := uc.registry.resolvePair(ctx, input.AccountID, input.CurrencyID)
	if err != nil {
		return nil, err
	}

	if err := currency.ValidateScale(input.Quantity); err != nil {
		return nil, err
	}

	if input.Components != nil && domain.ExceedsTolerance(input.Components.Total(), input.Quantity) {
		return nil, domain.ErrComponentMismatch
	}

	var result *SeedResult

	err = uc.retrier.Retry(ctx, func() error {
		r, err := uc.seedOnce(ctx, account, currency, input)
		if err != nil {
			return err
		}

		result = r

		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateBalance(ctx, uc.cache, uc.logger, account.ID, currency.ID)

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("currency_id", currency.ID).
		Str("quantity", input.Quantity.String()).
		Int64("starts_after_sequence", result.Opening.StartsAfterSequence).
		Msg("opening balance seeded")

	return result, nil
}

func (uc *OpeningBalanceUseCase) seedOnce(ctx context.Context, account *domain.Account, currency *domain.Currency, input SeedInput) (*SeedResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	snap, err := uc.snapshots.LockOrCreate(ctx, tx, account.ID, currency.ID, now)
	if err != nil {
		return nil, err
	}

	previous, err := uc.openingRepo.GetActive(ctx, tx, account.ID, currency.ID)
	if err != nil && !errors.Is(err, domain.ErrOpeningBalanceNotFound) {
		return nil, err
	}

	opening := &domain.OpeningBalance{
		ID:         uc.idGen.Generate(),
		AccountID:  account.ID,
		CurrencyID: currency.ID,
		Actor:      input.Actor,
		Quantity:   input.Quantity,
		Active:     true,
		CreatedAt:  now,
	}

	result := &SeedResult{Opening: opening, Superseded: previous}

	if snap.LastSequence == 0 {
		snap.Quantity = input.Quantity
		snap.Components = input.Components
		snap.UpdatedAt = now

		if err := uc.snapshots.Update(ctx, tx, snap); err != nil {
			return nil, err
		}
	} else if delta := input.Quantity.Sub(snap.Quantity); !delta.IsZero() {
		description := input.Description
		if description == "" {
			description = "opening balance re-seed"
		}

		movement, err := uc.writer.append(ctx, tx, snap, appendParams{
			Kind:        domain.KindOpeningBalance,
			Channel:     input.Channel,
			Amount:      delta,
			Actor:       input.Actor,
			Description: description,
			Reference:   &domain.Reference{Kind: domain.ReferenceOpeningBalance, ID: opening.ID},
			At:          now,
		})
		if err != nil {
			return nil, err
		}

		result.Movement = movement
	}

	opening.StartsAfterSequence = snap.LastSequence

	if previous != nil {
		if err := uc.openingRepo.Supersede(ctx, tx, previous.ID, opening.ID, now); err != nil {
			return nil, err
		}
	}

	if err := uc.openingRepo.Create(ctx, tx, opening); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   domain.BalanceAggregateID(account.ID, currency.ID),
			AggregateType: domain.AggregateTypeBalance,
			EventType:     domain.EventTypeOpeningBalanceSeeded,
			Payload: map[string]any{
				"opening_balance_id":    opening.ID,
				"account_id":            account.ID,
				"currency_id":           currency.ID,
				"quantity":              opening.Quantity.String(),
				"starts_after_sequence": opening.StartsAfterSequence,
			},
			CreatedAt: now,
		}
		if previous != nil {
			event.Payload["superseded_id"] = previous.ID
		}

		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// Active returns the pair's active opening balance.
func (uc *OpeningBalanceUseCase) Active(ctx context.Context, accountID, currencyID string) (*domain.OpeningBalance, error) {
	if _, _, err := uc.registry.resolvePair(ctx, accountID, currencyID); err != nil {
		return nil, err
	}

	return uc.openingRepo.GetActive(ctx, nil, accountID, currencyID)
}

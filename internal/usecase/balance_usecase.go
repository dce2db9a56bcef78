package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/casacambio/cashledger/internal/domain"
)

// BalanceUseCase serves read-only balance and movement queries.
type BalanceUseCase struct {
	registry     *RegistryUseCase
	snapshotRepo SnapshotRepository
	movementRepo MovementRepository
	cache        Cache
	cacheTTL     time.Duration
	logger       zerolog.Logger
}

// NewBalanceUseCase creates a new BalanceUseCase. cache may be nil.
func NewBalanceUseCase(
	registry *RegistryUseCase,
	snapshotRepo SnapshotRepository,
	movementRepo MovementRepository,
	cache Cache,
	logger zerolog.Logger,
) *BalanceUseCase {
	return &BalanceUseCase{
		registry:     registry,
		snapshotRepo: snapshotRepo,
		movementRepo: movementRepo,
		cache:        cache,
		cacheTTL:     BalanceCacheTTL,
		logger:       logger,
	}
}

// WithCacheTTL overrides how long balances stay cached.
func (uc *BalanceUseCase) WithCacheTTL(ttl time.Duration) *BalanceUseCase {
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
	return uc
}

func balanceCacheKey(accountID, currencyID string) string {
	return fmt.Sprintf("balance:%s:%s", accountID, currencyID)
}

func invalidateBalance(ctx context.Context, cache Cache, logger zerolog.Logger, accountID, currencyID string) {
	if cache == nil {
		return
	}

	if err := cache.Delete(ctx, balanceCacheKey(accountID, currencyID)); err != nil {
		logger.Warn().Err(err).Str("account_id", accountID).Str("currency_id", currencyID).Msg("failed to invalidate cached balance")
	}
}

// GetBalance returns the pair's snapshot. A pair that never moved has a zero balance.
func (uc *BalanceUseCase) GetBalance(ctx context.Context, accountID, currencyID string) (*domain.Snapshot, error) {
	if _, _, err := uc.registry.resolvePair(ctx, accountID, currencyID); err != nil {
		return nil, err
	}

	key := balanceCacheKey(accountID, currencyID)

	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, key); err == nil && raw != nil {
			var snap domain.Snapshot
			if err := json.Unmarshal(raw, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	snap, err := uc.snapshotRepo.Get(ctx, nil, accountID, currencyID)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return &domain.Snapshot{AccountID: accountID, CurrencyID: currencyID}, nil
	}

	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(snap); err == nil {
			if err := uc.cache.Set(ctx, key, raw, uc.cacheTTL); err != nil {
				uc.logger.Debug().Err(err).Str("key", key).Msg("failed to cache balance")
			}
		}
	}

	return snap, nil
}

// ListBalances returns every snapshot held by an account.
func (uc *BalanceUseCase) ListBalances(ctx context.Context, accountID string) ([]*domain.Snapshot, error) {
	if _, err := uc.registry.ResolveAccount(ctx, accountID); err != nil {
		return nil, err
	}

	return uc.snapshotRepo.ListByAccount(ctx, accountID)
}

// ListMovementsInput represents input for listing a pair's movements.
type ListMovementsInput struct {
	From          *time.Time
	To            *time.Time
	AccountID     string
	CurrencyID    string
	AfterSequence int64
	Limit         int
}

// MovementPage is one page of a pair's log. NextSequence feeds AfterSequence
// of the following request.
type MovementPage struct {
	Movements    []*domain.Movement
	NextSequence int64
	HasMore      bool
}

// ListMovements pages through a pair's log in sequence order.
func (uc *BalanceUseCase) ListMovements(ctx context.Context, input ListMovementsInput) (*MovementPage, error) {
	if _, _, err := uc.registry.resolvePair(ctx, input.AccountID, input.CurrencyID); err != nil {
		return nil, err
	}

	limit := domain.ValidatePagination(input.Limit)

	movements, err := uc.movementRepo.List(ctx, nil, input.AccountID, input.CurrencyID, MovementFilter{
		From:          input.From,
		To:            input.To,
		AfterSequence: input.AfterSequence,
		Limit:         limit + 1,
	})
	if err != nil {
		return nil, err
	}

	page := &MovementPage{Movements: movements}
	if len(movements) > limit {
		page.Movements = movements[:limit]
		page.HasMore = true
	}

	if n := len(page.Movements); n > 0 {
		page.NextSequence = page.Movements[n-1].Sequence
	}

	return page, nil
}

// GetMovement retrieves a single movement by ID.
func (uc *BalanceUseCase) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	return uc.movementRepo.GetByID(ctx, id)
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
)

// PostingConfig wires the posting engine.
type PostingConfig struct {
	Registry     *RegistryUseCase
	TxManager    TransactionManager
	SnapshotRepo SnapshotRepository
	MovementRepo MovementRepository
	OutboxRepo   OutboxRepository
	IDGen        IDGenerator
	Retrier      Retrier
	Idempotency  IdempotencyStore // optional
	Cache        Cache            // optional
	// IdempotencyTTL defaults to IdempotencyKeyTTL.
	IdempotencyTTL time.Duration
	Metrics        Metrics
	Logger         zerolog.Logger
}

// PostingUseCase is the only way a balance changes. Every posting locks the
// pair's snapshot, appends exactly one movement and advances the snapshot in
// the same transaction.
type PostingUseCase struct {
	registry    *RegistryUseCase
	txManager   TransactionManager
	snapshots   SnapshotRepository
	writer      *ledgerWriter
	retrier     Retrier
	idempotency IdempotencyStore
	keyTTL      time.Duration
	cache       Cache
	metrics     Metrics
	logger      zerolog.Logger
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(cfg PostingConfig) *PostingUseCase {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}

	keyTTL := cfg.IdempotencyTTL
	if keyTTL <= 0 {
		keyTTL = IdempotencyKeyTTL
	}

	return &PostingUseCase{
		registry:  cfg.Registry,
		txManager: cfg.TxManager,
		snapshots: cfg.SnapshotRepo,
		writer: &ledgerWriter{
			snapshotRepo: cfg.SnapshotRepo,
			movementRepo: cfg.MovementRepo,
			outboxRepo:   cfg.OutboxRepo,
			idGen:        cfg.IDGen,
		},
		retrier:     cfg.Retrier,
		idempotency: cfg.Idempotency,
		keyTTL:      keyTTL,
		cache:       cfg.Cache,
		metrics:     metrics,
		logger:      cfg.Logger,
	}
}

// PostInput represents a single balance change.
type PostInput struct {
	Reference      *domain.Reference
	AccountID      string
	CurrencyID     string
	Actor          string
	Description    string
	IdempotencyKey string
	Kind           domain.MovementKind
	Channel        domain.Channel
	Amount         decimal.Decimal
	// RequireFunds rejects outflows that would overdraw an account that does
	// not allow a negative balance.
	RequireFunds bool

	// system is set by the ledger's own workflows, which may use reserved
	// reference kinds.
	system bool
	// guard runs after the snapshot lock is taken and before the movement is
	// appended. An error aborts the posting.
	guard func(ctx context.Context, tx Transaction) error
}

// Post validates and applies one movement. A failed post leaves no trace.
func (uc *PostingUseCase) Post(ctx context.Context, input PostInput) (*domain.Movement, error) {
	start := time.Now()

	movement, err := uc.post(ctx, input)
	if err != nil {
		uc.metrics.PostingFailed(failureReason(err))
		if errors.Is(err, domain.ErrLockTimeout) {
			uc.metrics.LockTimeout()
		}

		return nil, err
	}

	uc.metrics.MovementPosted(movement.Kind, movement.Amount, time.Since(start))

	return movement, nil
}

func (uc *PostingUseCase) post(ctx context.Context, input PostInput) (*domain.Movement, error) {
	account, currency, err := uc.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" && uc.idempotency != nil {
		replayed, err := uc.claimKey(ctx, input.IdempotencyKey)
		if err != nil || replayed != nil {
			return replayed, err
		}
	}

	var movement *domain.Movement

	err = uc.retrier.Retry(ctx, func() error {
		m, err := uc.postOnce(ctx, account, currency, input)
		if err != nil {
			return err
		}

		movement = m

		return nil
	})
	if err != nil {
		if input.IdempotencyKey != "" && uc.idempotency != nil {
			if relErr := uc.idempotency.Release(ctx, input.IdempotencyKey); relErr != nil {
				uc.logger.Warn().Err(relErr).Str("idempotency_key", input.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}

		return nil, err
	}

	uc.afterCommit(ctx, movement, input.IdempotencyKey)

	return movement, nil
}

func (uc *PostingUseCase) validate(ctx context.Context, input PostInput) (*domain.Account, *domain.Currency, error) {
	if err := domain.ValidateActor(input.Actor); err != nil {
		return nil, nil, err
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, nil, err
	}

	validateReference := domain.ValidateCallerReference
	if input.system {
		validateReference = domain.ValidateReference
	}

	if err := validateReference(input.Reference); err != nil {
		return nil, nil, err
	}

	account, currency, err := uc.registry.resolvePair(ctx, input.AccountID, input.CurrencyID)
	if err != nil {
		return nil, nil, err
	}

	if input.Amount.IsZero() {
		return nil, nil, domain.ErrZeroAmount
	}

	if err := domain.ValidateSign(input.Kind, input.Amount); err != nil {
		return nil, nil, err
	}

	if err := currency.ValidateScale(input.Amount); err != nil {
		return nil, nil, err
	}

	return account, currency, nil
}

func (uc *PostingUseCase) postOnce(ctx context.Context, account *domain.Account, currency *domain.Currency, input PostInput) (*domain.Movement, error) {
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

	if input.guard != nil {
		if err := input.guard(ctx, tx); err != nil {
			return nil, err
		}
	}

	if input.RequireFunds && input.Amount.IsNegative() {
		if err := account.ValidateOutflow(snap.Quantity, input.Amount); err != nil {
			return nil, err
		}
	}

	movement, err := uc.writer.append(ctx, tx, snap, appendParams{
		Kind:        input.Kind,
		Channel:     input.Channel,
		Amount:      input.Amount,
		Actor:       input.Actor,
		Description: input.Description,
		Reference:   input.Reference,
		At:          now,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return movement, nil
}

// claimKey reserves an idempotency key. It returns the stored movement when
// the key already completed.
func (uc *PostingUseCase) claimKey(ctx context.Context, key string) (*domain.Movement, error) {
	exists, stored, err := uc.idempotency.CheckAndSet(ctx, key, []byte(idempotencyPending), uc.keyTTL)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, nil
	}

	if string(stored) == idempotencyPending {
		return nil, domain.ErrDuplicatePosting
	}

	var movement domain.Movement
	if err := json.Unmarshal(stored, &movement); err != nil {
		return nil, err
	}

	return &movement, nil
}

// afterCommit runs best-effort bookkeeping once the movement is durable.
func (uc *PostingUseCase) afterCommit(ctx context.Context, movement *domain.Movement, key string) {
	invalidateBalance(ctx, uc.cache, uc.logger, movement.AccountID, movement.CurrencyID)

	if key == "" || uc.idempotency == nil {
		return
	}

	body, err := json.Marshal(movement)
	if err == nil {
		err = uc.idempotency.Update(ctx, key, body, uc.keyTTL)
	}

	if err != nil {
		uc.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotent response")
	}
}

// CheckFunds reports whether amount may leave the account without breaching
// its overdraft policy. It takes no lock; Post with RequireFunds is authoritative.
func (uc *PostingUseCase) CheckFunds(ctx context.Context, accountID, currencyID string, amount decimal.Decimal) error {
	account, currency, err := uc.registry.resolvePair(ctx, accountID, currencyID)
	if err != nil {
		return err
	}

	balance := decimal.Zero

	snap, err := uc.snapshots.Get(ctx, nil, account.ID, currency.ID)
	switch {
	case err == nil:
		balance = snap.Quantity
	case !errors.Is(err, domain.ErrSnapshotNotFound):
		return err
	}

	return account.ValidateOutflow(balance, amount.Abs().Neg())
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, domain.ErrSignMismatch):
		return "sign_mismatch"
	case errors.Is(err, domain.ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrDuplicatePosting):
		return "duplicate"
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrCurrencyNotFound):
		return "not_found"
	case domain.IsValidation(err):
		return "validation"
	default:
		return "internal"
	}
}

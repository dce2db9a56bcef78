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

// TransferUseCase moves value between accounts as two independently posted
// legs sharing one reference. A credit leg that fails is compensated with a
// TRANSFER_REVERSAL on the origin.
type TransferUseCase struct {
	posting      *PostingUseCase
	txManager    TransactionManager
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	logger       zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	posting *PostingUseCase,
	txManager TransactionManager,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		posting:      posting,
		txManager:    txManager,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		logger:       logger,
	}
}

// TransferInput represents input for creating a transfer.
type TransferInput struct {
	FromAccountID  string
	ToAccountID    string
	CurrencyID     string
	Actor          string
	Description    string
	IdempotencyKey string
	FromChannel    domain.Channel
	ToChannel      domain.Channel
	Amount         decimal.Decimal
}

// Transfer debits the origin and credits the destination. If the credit leg
// fails after the debit committed, the debit is reversed and the returned
// transfer carries status compensated together with an error wrapping
// ErrTransferCompensated. If the reversal fails too the transfer is left in
// flight and can be finished with CancelTransfer.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transfer, error) {
	transfer := &domain.Transfer{
		ID:            uc.idGen.Generate(),
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		CurrencyID:    input.CurrencyID,
		Amount:        input.Amount,
		CreatedAt:     time.Now().UTC(),
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	// Both ends must exist before any money moves.
	if _, _, err := uc.posting.registry.resolvePair(ctx, input.FromAccountID, input.CurrencyID); err != nil {
		return nil, err
	}
	if _, err := uc.posting.registry.ResolveAccount(ctx, input.ToAccountID); err != nil {
		return nil, err
	}

	leg := func(suffix string) string {
		if input.IdempotencyKey == "" {
			return ""
		}

		return input.IdempotencyKey + ":" + suffix
	}

	debit, err := uc.posting.Post(ctx, PostInput{
		AccountID:      input.FromAccountID,
		CurrencyID:     input.CurrencyID,
		Kind:           domain.KindTransferOut,
		Channel:        input.FromChannel,
		Amount:         input.Amount.Neg(),
		Actor:          input.Actor,
		Description:    input.Description,
		Reference:      transfer.Reference(),
		IdempotencyKey: leg("out"),
		RequireFunds:   true,
		system:         true,
	})
	if err != nil {
		return nil, err
	}

	transfer.Debit = debit

	// A replayed debit carries the original transfer reference.
	if debit.Reference != nil && debit.Reference.ID != transfer.ID {
		transfer.ID = debit.Reference.ID
	}

	credit, err := uc.posting.Post(ctx, PostInput{
		AccountID:      input.ToAccountID,
		CurrencyID:     input.CurrencyID,
		Kind:           domain.KindTransferIn,
		Channel:        input.ToChannel,
		Amount:         input.Amount,
		Actor:          input.Actor,
		Description:    input.Description,
		Reference:      transfer.Reference(),
		IdempotencyKey: leg("in"),
		system:         true,
		guard:          uc.creditable(transfer),
	})
	if err == nil {
		transfer.Credit = credit
		transfer.Status = domain.TransferCompleted

		return transfer, nil
	}

	creditErr := err

	reversal, err := uc.reverse(ctx, transfer, input.Actor, input.FromChannel, creditErr.Error())
	if errors.Is(err, domain.ErrTransferNotInFlight) {
		// Cancelled while the credit was being attempted; the origin is already refunded.
		transfer.Status = domain.TransferCompensated

		return transfer, fmt.Errorf("%w: %w", domain.ErrTransferCompensated, creditErr)
	}
	if err != nil {
		transfer.Status = domain.TransferInFlight

		uc.logger.Error().
			Err(err).
			AnErr("credit_error", creditErr).
			Str("transfer_id", transfer.ID).
			Str("from_account_id", transfer.FromAccountID).
			Str("amount", transfer.Amount.String()).
			Msg("transfer left in flight: compensation failed")

		return transfer, errors.Join(
			fmt.Errorf("transfer %s credit leg: %w", transfer.ID, creditErr),
			fmt.Errorf("transfer %s compensation: %w", transfer.ID, err),
		)
	}

	transfer.Reversal = reversal
	transfer.Status = domain.TransferCompensated

	return transfer, fmt.Errorf("%w: %w", domain.ErrTransferCompensated, creditErr)
}

// reverse posts the compensating TRANSFER_REVERSAL on the origin and queues a
// transfer.compensated event.
func (uc *TransferUseCase) reverse(ctx context.Context, transfer *domain.Transfer, actor string, channel domain.Channel, reason string) (*domain.Movement, error) {
	reversal, err := uc.posting.Post(ctx, PostInput{
		AccountID:   transfer.FromAccountID,
		CurrencyID:  transfer.CurrencyID,
		Kind:        domain.KindTransferReversal,
		Channel:     channel,
		Amount:      transfer.Amount.Abs(),
		Actor:       actor,
		Description: truncate("transfer reversal: "+reason, domain.MaxDescriptionLength),
		Reference:   transfer.Reference(),
		system:      true,
		guard:       uc.reversible(transfer),
	})
	if err != nil {
		return nil, err
	}

	if err := uc.recordCompensation(ctx, transfer, reason); err != nil {
		uc.logger.Warn().Err(err).Str("transfer_id", transfer.ID).Msg("failed to queue transfer.compensated event")
	}

	return reversal, nil
}

// reversible re-reads the transfer's legs while the origin pair is locked, so
// concurrent cancels and compensations refund the origin at most once.
func (uc *TransferUseCase) reversible(transfer *domain.Transfer) func(context.Context, Transaction) error {
	return func(ctx context.Context, tx Transaction) error {
		legs, err := uc.movementRepo.ListByReference(ctx, tx, *transfer.Reference())
		if err != nil {
			return err
		}

		for _, m := range legs {
			switch m.Kind {
			case domain.KindTransferReversal:
				return fmt.Errorf("%w: transfer %s already reversed by %s", domain.ErrTransferNotInFlight, transfer.ID, m.ID)
			case domain.KindTransferIn:
				return fmt.Errorf("%w: transfer %s already credited by %s", domain.ErrTransferNotInFlight, transfer.ID, m.ID)
			}
		}

		return nil
	}
}

// creditable takes the origin pair's lock inside the credit transaction and
// refuses to credit a transfer whose debit was already reversed. Holding the
// origin lock orders the credit against any reversal.
func (uc *TransferUseCase) creditable(transfer *domain.Transfer) func(context.Context, Transaction) error {
	return func(ctx context.Context, tx Transaction) error {
		if _, err := uc.posting.snapshots.GetForUpdate(ctx, tx, transfer.FromAccountID, transfer.CurrencyID); err != nil {
			return err
		}

		legs, err := uc.movementRepo.ListByReference(ctx, tx, *transfer.Reference())
		if err != nil {
			return err
		}

		for _, m := range legs {
			if m.Kind == domain.KindTransferReversal {
				return fmt.Errorf("%w: transfer %s was reversed by %s", domain.ErrTransferNotInFlight, transfer.ID, m.ID)
			}
		}

		return nil
	}
}

func (uc *TransferUseCase) recordCompensation(ctx context.Context, transfer *domain.Transfer, reason string) error {
	if uc.outboxRepo == nil {
		return nil
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transfer.ID,
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferCompensated,
		Payload: map[string]any{
			"transfer_id":     transfer.ID,
			"from_account_id": transfer.FromAccountID,
			"currency_id":     transfer.CurrencyID,
			"amount":          transfer.Amount.String(),
			"reason":          reason,
		},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetTransfer rebuilds a transfer from the movements sharing its reference.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	legs, err := uc.movementRepo.ListByReference(ctx, nil, domain.Reference{Kind: domain.ReferenceTransfer, ID: id})
	if err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{ID: id}

	for _, m := range legs {
		switch m.Kind {
		case domain.KindTransferOut:
			transfer.Debit = m
			transfer.FromAccountID = m.AccountID
			transfer.CurrencyID = m.CurrencyID
			transfer.Amount = m.Amount.Abs()
			transfer.CreatedAt = m.Timestamp
		case domain.KindTransferIn:
			transfer.Credit = m
			transfer.ToAccountID = m.AccountID
		case domain.KindTransferReversal:
			transfer.Reversal = m
		}
	}

	if transfer.Debit == nil {
		return nil, domain.ErrTransferNotFound
	}

	switch {
	case transfer.Credit != nil:
		transfer.Status = domain.TransferCompleted
	case transfer.Reversal != nil:
		transfer.Status = domain.TransferCompensated
	default:
		transfer.Status = domain.TransferInFlight
	}

	return transfer, nil
}

// CancelTransfer reverses the debit of an in-flight transfer. Cancelling a
// transfer that was already compensated is a no-op.
func (uc *TransferUseCase) CancelTransfer(ctx context.Context, id, actor string) (*domain.Transfer, error) {
	if err := domain.ValidateActor(actor); err != nil {
		return nil, err
	}

	transfer, err := uc.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	switch transfer.Status {
	case domain.TransferCompensated:
		return transfer, nil
	case domain.TransferCompleted:
		return nil, domain.ErrTransferNotInFlight
	}

	reversal, err := uc.reverse(ctx, transfer, actor, transfer.Debit.Channel, "cancelled by "+actor)
	if errors.Is(err, domain.ErrTransferNotInFlight) {
		// Lost a race with another cancel, a compensation or the credit leg.
		current, getErr := uc.GetTransfer(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == domain.TransferCompensated {
			return current, nil
		}

		return nil, err
	}
	if err != nil {
		return nil, err
	}

	transfer.Reversal = reversal
	transfer.Status = domain.TransferCancelled

	return transfer, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}

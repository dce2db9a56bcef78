package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
)

// appendParams describes one movement to append under an already held lock.
type appendParams struct {
	Reference   *domain.Reference
	Actor       string
	Description string
	Kind        domain.MovementKind
	Channel     domain.Channel
	Amount      decimal.Decimal
	At          time.Time
}

// ledgerWriter is the single code path that turns a locked snapshot into an
// appended movement. Posting, seeding, reconciliation and transfers all go
// through it so the snapshot and the log can never diverge.
type ledgerWriter struct {
	snapshotRepo SnapshotRepository
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
}

// append records the movement, advances snap in place and queues a
// movement.posted event. The caller must hold snap's row lock through tx.
func (w *ledgerWriter) append(ctx context.Context, tx Transaction, snap *domain.Snapshot, p appendParams) (*domain.Movement, error) {
	sequence := snap.LastSequence + 1

	next, err := snap.Apply(p.Amount, p.Channel, sequence, p.At)
	if err != nil {
		return nil, err
	}

	movement := &domain.Movement{
		ID:            w.idGen.Generate(),
		AccountID:     snap.AccountID,
		CurrencyID:    snap.CurrencyID,
		Kind:          p.Kind,
		Channel:       p.Channel,
		Amount:        p.Amount,
		BalanceBefore: snap.Quantity,
		BalanceAfter:  next.Quantity,
		Sequence:      sequence,
		Actor:         p.Actor,
		Description:   p.Description,
		Reference:     p.Reference,
		Timestamp:     p.At,
	}

	if err := w.movementRepo.Append(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := w.snapshotRepo.Update(ctx, tx, &next); err != nil {
		return nil, err
	}

	if w.outboxRepo != nil {
		if err := w.outboxRepo.Create(ctx, tx, movementPostedEvent(w.idGen.Generate(), movement)); err != nil {
			return nil, err
		}
	}

	*snap = next

	return movement, nil
}

func movementPostedEvent(id string, m *domain.Movement) *domain.OutboxEvent {
	payload := map[string]any{
		"movement_id":    m.ID,
		"account_id":     m.AccountID,
		"currency_id":    m.CurrencyID,
		"kind":           string(m.Kind),
		"amount":         m.Amount.String(),
		"balance_before": m.BalanceBefore.String(),
		"balance_after":  m.BalanceAfter.String(),
		"sequence":       m.Sequence,
		"actor":          m.Actor,
	}
	if m.Reference != nil {
		payload["reference"] = m.Reference.String()
	}

	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   domain.BalanceAggregateID(m.AccountID, m.CurrencyID),
		AggregateType: domain.AggregateTypeBalance,
		EventType:     domain.EventTypeMovementPosted,
		Payload:       payload,
		CreatedAt:     m.Timestamp,
	}
}

// replayer folds a pair's movement log on top of its active opening balance.
type replayer struct {
	openingRepo  OpeningBalanceRepository
	movementRepo MovementRepository
}

// seed returns the active anchor, or nil when the pair was never seeded.
func (r *replayer) seed(ctx context.Context, tx Transaction, accountID, currencyID string) (*domain.OpeningBalance, error) {
	opening, err := r.openingRepo.GetActive(ctx, tx, accountID, currencyID)
	if errors.Is(err, domain.ErrOpeningBalanceNotFound) {
		return nil, nil
	}

	return opening, err
}

// walk calls fn for every movement of the pair after the given sequence, in order.
func (r *replayer) walk(ctx context.Context, tx Transaction, accountID, currencyID string, after int64, fn func(*domain.Movement)) error {
	for {
		page, err := r.movementRepo.List(ctx, tx, accountID, currencyID, MovementFilter{
			AfterSequence: after,
			Limit:         ReplayPageSize,
		})
		if err != nil {
			return err
		}

		for _, m := range page {
			fn(m)
			after = m.Sequence
		}

		if len(page) < ReplayPageSize {
			return nil
		}
	}
}

// trueBalance replays the pair's log with kind-derived signs. It also returns
// the last sequence seen, or the anchor's when no movement follows it.
func (r *replayer) trueBalance(ctx context.Context, tx Transaction, accountID, currencyID string) (decimal.Decimal, int64, error) {
	opening, err := r.seed(ctx, tx, accountID, currencyID)
	if err != nil {
		return decimal.Zero, 0, err
	}

	balance, last := domain.Seed(opening)

	err = r.walk(ctx, tx, accountID, currencyID, last, func(m *domain.Movement) {
		balance = balance.Add(m.ReplayDelta())
		last = m.Sequence
	})
	if err != nil {
		return decimal.Zero, 0, err
	}

	return balance, last, nil
}

package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/casacambio/cashledger/internal/domain"
)

// AuditUseCase walks movement logs and reports integrity findings. It never
// writes.
type AuditUseCase struct {
	registry     *RegistryUseCase
	txManager    TransactionManager
	snapshotRepo SnapshotRepository
	replay       *replayer
	metrics      Metrics
	logger       zerolog.Logger
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(
	registry *RegistryUseCase,
	txManager TransactionManager,
	snapshotRepo SnapshotRepository,
	movementRepo MovementRepository,
	openingRepo OpeningBalanceRepository,
	metrics Metrics,
	logger zerolog.Logger,
) *AuditUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &AuditUseCase{
		registry:     registry,
		txManager:    txManager,
		snapshotRepo: snapshotRepo,
		replay:       &replayer{openingRepo: openingRepo, movementRepo: movementRepo},
		metrics:      metrics,
		logger:       logger,
	}
}

// ChainRange limits which findings are reported. The walk itself always
// covers the whole log after the active anchor, since expected balances depend
// on every earlier movement.
type ChainRange struct {
	From *time.Time
	To   *time.Time
}

func (r ChainRange) contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}

	if r.To != nil && t.After(*r.To) {
		return false
	}

	return true
}

// CheckChain verifies that every movement continues the previous one and that
// its own arithmetic holds. A break never stops the walk: the next expected
// balance is taken from the broken movement's recorded balance_after, so one
// bad row produces one finding.
func (uc *AuditUseCase) CheckChain(ctx context.Context, accountID, currencyID string, window ChainRange) (*domain.ChainReport, error) {
	if _, _, err := uc.registry.resolvePair(ctx, accountID, currencyID); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	opening, err := uc.replay.seed(ctx, tx, accountID, currencyID)
	if err != nil {
		return nil, err
	}

	seed, after := domain.Seed(opening)

	report := &domain.ChainReport{
		AccountID:  accountID,
		CurrencyID: currencyID,
		Seed:       seed,
		CheckedAt:  time.Now().UTC(),
	}

	expected := seed

	err = uc.replay.walk(ctx, tx, accountID, currencyID, after, func(m *domain.Movement) {
		report.MovementsChecked++
		inRange := window.contains(m.Timestamp)

		if inRange && domain.ExceedsTolerance(m.BalanceBefore, expected) {
			report.ChainBreaks = append(report.ChainBreaks, domain.ChainBreak{
				MovementID: m.ID,
				Sequence:   m.Sequence,
				Timestamp:  m.Timestamp,
				Expected:   expected,
				Actual:     m.BalanceBefore,
				Delta:      m.BalanceBefore.Sub(expected),
			})
		}

		if inRange && m.CheckArithmetic() != nil {
			report.CalculationBreaks = append(report.CalculationBreaks, domain.CalculationBreak{
				MovementID:    m.ID,
				Sequence:      m.Sequence,
				Timestamp:     m.Timestamp,
				BalanceBefore: m.BalanceBefore,
				Amount:        m.Amount,
				BalanceAfter:  m.BalanceAfter,
				Delta:         m.BalanceAfter.Sub(m.BalanceBefore.Add(m.Amount)),
			})
		}

		if finding, ok := signFinding(m); ok && inRange {
			report.SignWarnings = append(report.SignWarnings, finding)
		}

		expected = m.BalanceAfter
	})
	if err != nil {
		return nil, err
	}

	report.FinalBalance = expected

	snap, err := uc.snapshotRepo.Get(ctx, tx, accountID, currencyID)
	switch {
	case err == nil:
		if snap.ValidateComponents() != nil {
			total := snap.Components.Total()
			report.ComponentDrift = &domain.ComponentDrift{
				Quantity:   snap.Quantity,
				Components: total,
				Delta:      total.Sub(snap.Quantity),
			}
		}
	case !errors.Is(err, domain.ErrSnapshotNotFound):
		return nil, err
	}

	uc.metrics.ChainChecked(report)

	if !report.Healthy() {
		uc.logger.Warn().
			Str("account_id", accountID).
			Str("currency_id", currencyID).
			Int("chain_breaks", len(report.ChainBreaks)).
			Int("calculation_breaks", len(report.CalculationBreaks)).
			Msg("movement chain has breaks")
	}

	return report, nil
}

// AuditSigns lists every movement of the pair, anchored or not, whose stored
// sign contradicts its kind.
func (uc *AuditUseCase) AuditSigns(ctx context.Context, accountID, currencyID string) ([]domain.SignFinding, error) {
	if _, _, err := uc.registry.resolvePair(ctx, accountID, currencyID); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var findings []domain.SignFinding

	err = uc.replay.walk(ctx, tx, accountID, currencyID, 0, func(m *domain.Movement) {
		if finding, ok := signFinding(m); ok {
			findings = append(findings, finding)
		}
	})
	if err != nil {
		return nil, err
	}

	return findings, nil
}

// signFinding flags a movement whose stored amount has the wrong sign for its
// kind. Flipping is only safe when the recorded balances moved by the
// corrected amount.
func signFinding(m *domain.Movement) (domain.SignFinding, bool) {
	if domain.ValidateSign(m.Kind, m.Amount) == nil {
		return domain.SignFinding{}, false
	}

	corrected := domain.CorrectedAmount(m.Kind, m.Amount)
	if corrected.Equal(m.Amount) {
		return domain.SignFinding{}, false
	}

	return domain.SignFinding{
		MovementID:      m.ID,
		Sequence:        m.Sequence,
		Timestamp:       m.Timestamp,
		Kind:            m.Kind,
		StoredAmount:    m.Amount,
		CorrectedAmount: corrected,
		Correctable:     m.BalanceAfter.Sub(m.BalanceBefore).Equal(corrected),
	}, true
}

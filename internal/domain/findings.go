package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainBreak reports a movement whose balance_before does not continue the previous balance_after.
type ChainBreak struct {
	Timestamp  time.Time
	MovementID string
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Delta      decimal.Decimal
	Sequence   int64
}

// CalculationBreak reports a movement where balance_after != balance_before + amount.
type CalculationBreak struct {
	Timestamp     time.Time
	MovementID    string
	BalanceBefore decimal.Decimal
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	Delta         decimal.Decimal
	Sequence      int64
}

// SignFinding reports a persisted movement whose stored sign contradicts its kind.
// Correctable is set only when the recorded before/after delta agrees with the
// corrected sign; otherwise flipping the sign would break the chain.
type SignFinding struct {
	Timestamp       time.Time
	MovementID      string
	Kind            MovementKind
	StoredAmount    decimal.Decimal
	CorrectedAmount decimal.Decimal
	Sequence        int64
	Correctable     bool
}

// ComponentDrift reports a split snapshot whose components do not add up to its quantity.
type ComponentDrift struct {
	Quantity   decimal.Decimal
	Components decimal.Decimal
	Delta      decimal.Decimal
}

// ChainReport is the outcome of walking one pair's movement log.
type ChainReport struct {
	CheckedAt         time.Time
	ComponentDrift    *ComponentDrift
	AccountID         string
	CurrencyID        string
	ChainBreaks       []ChainBreak
	CalculationBreaks []CalculationBreak
	SignWarnings      []SignFinding
	Seed              decimal.Decimal
	FinalBalance      decimal.Decimal
	MovementsChecked  int
}

// Healthy reports whether the walk found no chain or calculation breaks.
// Sign warnings are data-quality findings and do not make a chain unhealthy.
func (r *ChainReport) Healthy() bool {
	return len(r.ChainBreaks) == 0 && len(r.CalculationBreaks) == 0
}

// ReconciliationResult compares a stored snapshot with the replayed balance.
type ReconciliationResult struct {
	CheckedAt      time.Time
	Adjustment     *Movement
	AccountID      string
	CurrencyID     string
	SaldoAnterior  decimal.Decimal
	SaldoCalculado decimal.Decimal
	Diferencia     decimal.Decimal
	Drift          bool
	Corrected      bool
}

// ReconciliationFailure records a pair that could not be reconciled during a batch.
type ReconciliationFailure struct {
	AccountID  string
	CurrencyID string
	Err        error
}

// ReconciliationBatch aggregates reconciliation results over many pairs.
type ReconciliationBatch struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []*ReconciliationResult
	Failures   []ReconciliationFailure
	Corrected  int
	Drifted    int
}

// Add folds a single result into the batch.
func (b *ReconciliationBatch) Add(r *ReconciliationResult) {
	b.Results = append(b.Results, r)
	if r.Drift {
		b.Drifted++
	}
	if r.Corrected {
		b.Corrected++
	}
}

// Merge appends another batch's results and failures.
func (b *ReconciliationBatch) Merge(other *ReconciliationBatch) {
	for _, r := range other.Results {
		b.Add(r)
	}
	b.Failures = append(b.Failures, other.Failures...)
}

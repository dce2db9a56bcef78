package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Reference kinds for the business operation that originated a movement.
const (
	ReferenceTransfer       = "transfer"
	ReferenceReconciliation = "reconciliation"
	ReferenceOpeningBalance = "opening_balance"
	ReferenceExchange       = "exchange"
	ReferenceSettlement     = "settlement"
	ReferenceDailyClose     = "daily_close"
)

// Reference links a movement to the business operation that caused it.
type Reference struct {
	Kind string
	ID   string
}

func (r Reference) String() string {
	return r.Kind + ":" + r.ID
}

// IsReserved reports whether the reference kind is one the ledger assigns to
// its own movements. Replay and transfer lookups trust these kinds.
func (r Reference) IsReserved() bool {
	switch strings.ToLower(strings.TrimSpace(r.Kind)) {
	case ReferenceTransfer, ReferenceReconciliation, ReferenceOpeningBalance:
		return true
	default:
		return false
	}
}

// Movement is an immutable ledger entry recording one balance change.
type Movement struct {
	Timestamp     time.Time
	Reference     *Reference
	ID            string
	AccountID     string
	CurrencyID    string
	Actor         string
	Description   string
	Kind          MovementKind
	Channel       Channel
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Sequence      int64
}

// CheckArithmetic verifies BalanceAfter == BalanceBefore + Amount exactly.
func (m *Movement) CheckArithmetic() error {
	expected := m.BalanceBefore.Add(m.Amount)
	if !expected.Equal(m.BalanceAfter) {
		return fmt.Errorf("movement %s: balance_after %s != balance_before %s + amount %s",
			m.ID, m.BalanceAfter.String(), m.BalanceBefore.String(), m.Amount.String())
	}

	return nil
}

// IsReconciliation reports whether the movement was written by reconciliation.
func (m *Movement) IsReconciliation() bool {
	return m.Kind == KindAdjustment && m.Reference != nil && m.Reference.Kind == ReferenceReconciliation
}

// ReplayDelta is the movement's contribution to a replayed balance. The sign
// is re-derived from the kind, so rows stored with a wrong sign still replay
// correctly. Reconciliation adjustments correct the snapshot rather than the
// cash position and contribute nothing.
func (m *Movement) ReplayDelta() decimal.Decimal {
	if m.IsReconciliation() {
		return decimal.Zero
	}

	return CorrectedAmount(m.Kind, m.Amount)
}

package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

func reconcileInput() usecase.ReconcileInput {
	return usecase.ReconcileInput{AccountID: "acc-1", CurrencyID: "USD", Actor: "auditor"}
}

// A snapshot edited out of band to 100 over a log whose EGRESO was stored
// with a positive sign heals back to the kind-derived balance of 50.
func TestReconciliationUseCase_SignFlipSelfHeal(t *testing.T) {
	l := newLedger(t)
	l.addAccount("acc-1", true)
	l.addCurrency("USD", 2)
	ctx := context.Background()

	l.store.PutOpeningBalance(&domain.OpeningBalance{
		ID: "ob-1", AccountID: "acc-1", CurrencyID: "USD", Quantity: dec("0"), Active: true,
	})
	putMovement(l, 1, domain.KindIngreso, "80", "0", "80")
	putMovement(l, 2, domain.KindEgreso, "30", "80", "110")
	l.store.PutSnapshot(domain.Snapshot{AccountID: "acc-1", CurrencyID: "USD", Quantity: dec("100"), LastSequence: 2})

	trueBalance, err := l.reconciler.ComputeTrueBalance(ctx, "acc-1", "USD")
	require.NoError(t, err)
	assert.True(t, trueBalance.Equal(dec("50")))

	result, err := l.reconciler.Reconcile(ctx, reconcileInput())
	require.NoError(t, err)

	assert.True(t, result.Drift)
	assert.True(t, result.Corrected)
	assert.True(t, result.SaldoAnterior.Equal(dec("100")))
	assert.True(t, result.SaldoCalculado.Equal(dec("50")))
	assert.True(t, result.Diferencia.Equal(dec("-50")))

	require.NotNil(t, result.Adjustment)
	adj := result.Adjustment
	assert.Equal(t, domain.KindAdjustment, adj.Kind)
	assert.True(t, adj.Amount.Equal(dec("-50")))
	assert.True(t, adj.BalanceBefore.Equal(dec("100")))
	assert.True(t, adj.BalanceAfter.Equal(dec("50")))
	assert.Equal(t, int64(3), adj.Sequence)
	require.NotNil(t, adj.Reference)
	assert.Equal(t, domain.ReferenceReconciliation, adj.Reference.Kind)
	assert.Equal(t, "auditor", adj.Actor)

	assert.True(t, l.quantity(t, "acc-1", "USD").Equal(dec("50")))

	var corrected int
	for _, e := range l.store.OutboxEvents() {
		if e.EventType == domain.EventTypeReconciliationCorrected {
			corrected++
			assert.Equal(t, "-50", e.Payload["diferencia"])
		}
	}
	assert.Equal(t, 1, corrected)
}

func TestReconciliationUseCase_Idempotent(t *testing.T) {
	l := newLedger(t)
	l.addAccount("acc-1", true)
	l.addCurrency("USD", 2)
	ctx := context.Background()

	putMovement(l, 1, domain.KindIngreso, "80", "0", "80")
	l.store.PutSnapshot(domain.Snapshot{AccountID: "acc-1", CurrencyID: "USD", Quantity: dec("75"), LastSequence: 1})

	first, err := l.reconciler.Reconcile(ctx, reconcileInput())
	require.NoError(t, err)
	require.True(t, first.Corrected)
	assert.True(t, first.Diferencia.Equal(dec("5")))

	second, err := l.reconciler.Reconcile(ctx, reconcileInput())
	require.NoError(t, err)
	assert.False(t, second.Drift)
	assert.False(t, second.Corrected)
	assert.Nil(t, second.Adjustment)
	assert.True(t, second.Diferencia.IsZero())

	assert.Len(t, l.store.Movements("acc-1", "USD"), 2)

	// Later postings keep the snapshot and the replay in step.
	_, err = l.posting.Post(ctx, postInput("acc-1", "USD", domain.KindIngreso, "20"))
	require.NoError(t, err)

	third, err := l.reconciler.Reconcile(ctx, reconcileInput())
	require.NoError(t, err)
	assert.False(t, third.Drift)
	assert.True(t, l.quantity(t, "acc-1", "USD").Equal(dec("100")))
}

func TestReconciliationUseCase_WithinToleranceIsNoop(t *testing.T) {
	l := newLedger(t)
	l.addAccount("acc-1", true)
	l.addCurrency("USD", 2)

	putMovement(l, 1, domain.KindIngreso, "80", "0", "80")
	l.store.PutSnapshot(domain.Snapshot{AccountID: "acc-1", CurrencyID: "USD", Quantity: dec("80.01"), LastSequence: 1})

	result, err := l.reconciler.Reconcile(context.Background(), reconcileInput())
	require.NoError(t, err)
	assert.False(t, result.Drift)
	assert.Len(t, l.store.Movements("acc-1", "USD"), 1)
}

func TestReconciliationUseCase_DryRun(t *testing.T) {
	l := newLedger(t)
	l.addAccount("acc-1", true)
	l.addCurrency("USD", 2)

	putMovement(l, 1, domain.KindIngreso, "80", "0", "80")
	l.store.PutSnapshot(domain.Snapshot{AccountID: "acc-1", CurrencyID: "USD", Quantity: dec("10"), LastSequence: 1})

	in := reconcileInput()
	in.DryRun = true

	result, err := l.reconciler.Reconcile(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.Drift)
	assert.False(t, result.Corrected)
	assert.True(t, l.quantity(t, "acc-1", "USD").Equal(dec("10")))
}

func TestReconciliationUseCase_SplitSnapshotDefaultsToCashBills(t *testing.T) {
	l := newLedger(t)
	l.addAccount("acc-1", true)
	l.addCurrency("USD", 2)

	putMovement(l, 1, domain.KindIngreso, "100", "0", "100")
	l.store.PutSnapshot(domain.Snapshot{
		AccountID:    "acc-1",
		CurrencyID:   "USD",
		Quantity:     dec("90"),
		Components:   &domain.Components{CashBills: dec("60"), Bank: dec("30")},
		LastSequence: 1,
	})

	result, err := l.reconciler.Reconcile(context.Background(), reconcileInput())
	require.NoError(t, err)
	require.True(t, result.Corrected)
	assert.Equal(t, domain.ChannelCashBills, result.Adjustment.Channel)

	snap, ok := l.store.Snapshot("acc-1", "USD")
	require.True(t, ok)
	assert.True(t, snap.Components.CashBills.Equal(dec("70")))
	assert.NoError(t, snap.ValidateComponents())
}

func TestReconciliationUseCase_MissingSnapshot(t *testing.T) {
	l := newLedger(t)
	l.addAccount("acc-1", true)
	l.addCurrency("USD", 2)
	ctx := context.Background()

	result, err := l.reconciler.Reconcile(ctx, reconcileInput())
	require.NoError(t, err)
	assert.False(t, result.Drift)
	_, ok := l.store.Snapshot("acc-1", "USD")
	assert.False(t, ok, "an untouched pair gets no snapshot")

	putMovement(l, 1, domain.KindIngreso, "40", "0", "40")

	result, err = l.reconciler.Reconcile(ctx, reconcileInput())
	require.NoError(t, err)
	assert.True(t, result.Corrected)
	assert.True(t, l.quantity(t, "acc-1", "USD").Equal(dec("40")))
}

func TestReconciliationUseCase_ReconcileAllAndSystem(t *testing.T) {
	l := newLedger(t)
	l.addAccount("acc-1", true)
	l.addAccount("acc-2", true)
	l.addCurrency("USD", 2)
	l.addCurrency("EUR", 2)
	ctx := context.Background()

	for _, in := range []usecase.PostInput{
		postInput("acc-1", "USD", domain.KindIngreso, "10"),
		postInput("acc-1", "EUR", domain.KindIngreso, "20"),
		postInput("acc-2", "USD", domain.KindIngreso, "30"),
	} {
		_, err := l.posting.Post(ctx, in)
		require.NoError(t, err)
	}

	l.store.PutSnapshot(domain.Snapshot{AccountID: "acc-1", CurrencyID: "EUR", Quantity: dec("25"), LastSequence: 1})

	batch, err := l.reconciler.ReconcileAll(ctx, "acc-1", "auditor", false)
	require.NoError(t, err)
	assert.Len(t, batch.Results, 2)
	assert.Equal(t, 1, batch.Drifted)
	assert.Equal(t, 1, batch.Corrected)
	assert.Empty(t, batch.Failures)

	l.store.PutSnapshot(domain.Snapshot{AccountID: "acc-2", CurrencyID: "USD", Quantity: dec("0"), LastSequence: 1})

	system, err := l.reconciler.ReconcileSystem(ctx, "scheduler", false)
	require.NoError(t, err)
	assert.Len(t, system.Results, 3)
	assert.Equal(t, 1, system.Corrected)
	assert.True(t, l.quantity(t, "acc-2", "USD").Equal(dec("30")))
	assert.True(t, l.quantity(t, "acc-1", "EUR").Equal(dec("20")))
}

func TestReconciliationUseCase_Validation(t *testing.T) {
	l := newLedger(t)
	l.addAccount("acc-1", true)
	l.addCurrency("USD", 2)
	ctx := context.Background()

	_, err := l.reconciler.Reconcile(ctx, usecase.ReconcileInput{AccountID: "acc-1", CurrencyID: "USD"})
	require.ErrorIs(t, err, domain.ErrMissingActor)

	_, err = l.reconciler.Reconcile(ctx, usecase.ReconcileInput{AccountID: "acc-1", CurrencyID: "JPY", Actor: "a"})
	require.ErrorIs(t, err, domain.ErrCurrencyNotFound)

	_, err = l.reconciler.ComputeTrueBalance(ctx, "nobody", "USD")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = l.reconciler.ReconcileAll(ctx, "nobody", "a", false)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMovement_CheckArithmetic(t *testing.T) {
	m := &Movement{
		ID:            "m1",
		BalanceBefore: decimal.RequireFromString("100.10"),
		Amount:        decimal.RequireFromString("-0.10"),
		BalanceAfter:  decimal.RequireFromString("100.00"),
	}
	assert.NoError(t, m.CheckArithmetic())

	m.BalanceAfter = decimal.RequireFromString("100.01")
	assert.Error(t, m.CheckArithmetic())
}

func TestMovement_ReplayDelta(t *testing.T) {
	thirty := decimal.NewFromInt(30)

	wrongSign := &Movement{Kind: KindEgreso, Amount: thirty}
	assert.True(t, wrongSign.ReplayDelta().Equal(thirty.Neg()), "kind decides the sign")

	manual := &Movement{
		Kind:      KindAdjustment,
		Amount:    thirty.Neg(),
		Reference: &Reference{Kind: "manual", ID: "ticket-9"},
	}
	assert.True(t, manual.ReplayDelta().Equal(thirty.Neg()))

	recon := &Movement{
		Kind:      KindAdjustment,
		Amount:    thirty.Neg(),
		Reference: &Reference{Kind: ReferenceReconciliation, ID: "r1"},
	}
	assert.True(t, recon.IsReconciliation())
	assert.True(t, recon.ReplayDelta().IsZero())
}

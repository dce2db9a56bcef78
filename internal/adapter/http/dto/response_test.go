package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
)

func TestMovementFromDomain(t *testing.T) {
	if MovementFromDomain(nil) != nil {
		t.Fatalf("expected nil for nil movement")
	}

	m := &domain.Movement{
		ID:        "m-1",
		Kind:      domain.KindIngreso,
		Amount:    decimal.RequireFromString("10.50"),
		Reference: &domain.Reference{Kind: "transfer", ID: "t-1"},
	}

	raw, err := json.Marshal(MovementFromDomain(m))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	body := string(raw)
	for _, want := range []string{`"reference":"transfer:t-1"`, `"amount":"10.5"`, `"kind":"INGRESO"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
	if strings.Contains(body, `"channel"`) {
		t.Fatalf("empty channel should be omitted: %s", body)
	}
}

func TestChainReportFromDomain_Healthy(t *testing.T) {
	tests := []struct {
		name   string
		report domain.ChainReport
		want   bool
	}{
		{"clean", domain.ChainReport{}, true},
		{"sign warnings only", domain.ChainReport{SignWarnings: []domain.SignFinding{{MovementID: "m-1"}}}, true},
		{"chain break", domain.ChainReport{ChainBreaks: []domain.ChainBreak{{MovementID: "m-2"}}}, false},
		{"calculation break", domain.ChainReport{CalculationBreaks: []domain.CalculationBreak{{MovementID: "m-3"}}}, false},
		{"component drift", domain.ChainReport{ComponentDrift: &domain.ComponentDrift{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ChainReportFromDomain(&tt.report)
			if resp.Healthy != tt.want {
				t.Fatalf("Healthy = %v, want %v", resp.Healthy, tt.want)
			}
			if resp.ChainBreaks == nil || resp.CalculationBreaks == nil {
				t.Fatalf("break lists must encode as arrays, not null")
			}
		})
	}
}

func TestReconciliationFromDomain(t *testing.T) {
	resp := ReconciliationFromDomain(&domain.ReconciliationResult{
		AccountID:      "acc-1",
		CurrencyID:     "USD",
		SaldoAnterior:  decimal.NewFromInt(100),
		SaldoCalculado: decimal.NewFromInt(95),
		Diferencia:     decimal.NewFromInt(-5),
		Drift:          true,
	})

	if !resp.SnapshotBalance.Equal(decimal.NewFromInt(100)) ||
		!resp.TrueBalance.Equal(decimal.NewFromInt(95)) ||
		!resp.Difference.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("unexpected balances %+v", resp)
	}
	if resp.Adjustment != nil {
		t.Fatalf("dry reconciliation should carry no adjustment")
	}
}

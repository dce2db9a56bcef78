package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
)

func TestPostMovementRequest_ToUseCaseInput(t *testing.T) {
	var req PostMovementRequest
	body := `{"account_id":"acc-1","currency_id":"USD","kind":"egreso","channel":"cash_coins",
		"amount":"-12.50","actor":"teller:7","reference":{"kind":"exchange","id":"ex-9"},"require_funds":true}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := req.ToUseCaseInput("key-1")
	if err != nil {
		t.Fatalf("ToUseCaseInput() error = %v", err)
	}

	if got.Kind != domain.KindEgreso || got.Channel != domain.ChannelCashCoins {
		t.Fatalf("kind/channel = %s/%s", got.Kind, got.Channel)
	}
	if !got.Amount.Equal(decimal.RequireFromString("-12.5")) {
		t.Fatalf("amount = %s", got.Amount)
	}
	if got.IdempotencyKey != "key-1" || !got.RequireFunds || got.Actor != "teller:7" {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Reference == nil || *got.Reference != (domain.Reference{Kind: "exchange", ID: "ex-9"}) {
		t.Fatalf("reference = %+v", got.Reference)
	}
}

func TestPostMovementRequest_ToUseCaseInputErrors(t *testing.T) {
	tests := []struct {
		name string
		req  PostMovementRequest
		want error
	}{
		{"unknown kind", PostMovementRequest{Kind: "GIFT"}, domain.ErrUnknownKind},
		{"unknown channel", PostMovementRequest{Kind: "INGRESO", Channel: "vault"}, domain.ErrInvalidChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToUseCaseInput("")
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateTransferRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateTransferRequest{
		FromAccountID: "a",
		ToAccountID:   "b",
		CurrencyID:    "USD",
		Amount:        decimal.NewFromInt(40),
		Actor:         "teller:1",
		ToChannel:     "bank",
	}

	got, err := req.ToUseCaseInput("k")
	if err != nil {
		t.Fatalf("ToUseCaseInput() error = %v", err)
	}
	if got.FromChannel != domain.ChannelNone || got.ToChannel != domain.ChannelBank || got.IdempotencyKey != "k" {
		t.Fatalf("unexpected input %+v", got)
	}

	req.FromChannel = "pocket"
	if _, err := req.ToUseCaseInput(""); !errors.Is(err, domain.ErrInvalidChannel) {
		t.Fatalf("expected invalid channel, got %v", err)
	}
}

func TestSeedOpeningBalanceRequest_ToUseCaseInput(t *testing.T) {
	req := &SeedOpeningBalanceRequest{
		AccountID:  "acc-1",
		CurrencyID: "USD",
		Quantity:   decimal.NewFromInt(100),
		Components: &ComponentsRequest{CashBills: decimal.NewFromInt(90), CashCoins: decimal.NewFromInt(10)},
		Actor:      "admin",
	}

	got, err := req.ToUseCaseInput()
	if err != nil {
		t.Fatalf("ToUseCaseInput() error = %v", err)
	}
	if got.Components == nil || !got.Components.Total().Equal(decimal.NewFromInt(100)) {
		t.Fatalf("components = %+v", got.Components)
	}

	req.Components = nil
	got, _ = req.ToUseCaseInput()
	if got.Components != nil {
		t.Fatalf("expected no components, got %+v", got.Components)
	}
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

func TestOpeningBalanceHandler_Seed(t *testing.T) {
	var captured usecase.SeedInput
	handler := NewOpeningBalanceHandler(&openingBalanceServiceStub{
		seedFn: func(ctx context.Context, input usecase.SeedInput) (*usecase.SeedResult, error) {
			captured = input
			return &usecase.SeedResult{
				Opening:    &domain.OpeningBalance{ID: "ob-2", Quantity: input.Quantity, Active: true, StartsAfterSequence: 12},
				Superseded: &domain.OpeningBalance{ID: "ob-1", SupersededBy: "ob-2"},
				Movement:   &domain.Movement{ID: "m-13", Kind: domain.KindOpeningBalance},
			}, nil
		},
	})

	body := `{"account_id":"acc-1","currency_id":"USD","quantity":"500","components":{"cash_bills":"450","cash_coins":"50","bank":"0"},"actor":"manager:2"}`
	rec := httptest.NewRecorder()
	handler.Seed(rec, httptest.NewRequest(http.MethodPost, "/opening-balances", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, captured.Quantity.Equal(decimal.NewFromInt(500)))
	require.NotNil(t, captured.Components)
	assert.True(t, captured.Components.CashCoins.Equal(decimal.NewFromInt(50)))

	var resp dto.SeedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ob-2", resp.Opening.ID)
	assert.EqualValues(t, 12, resp.Opening.StartsAfterSequence)
	require.NotNil(t, resp.Superseded)
	assert.Equal(t, "ob-2", resp.Superseded.SupersededBy)
	assert.Equal(t, "OPENING_BALANCE", resp.Movement.Kind)
}

func TestOpeningBalanceHandler_Seed_ComponentMismatch(t *testing.T) {
	handler := NewOpeningBalanceHandler(&openingBalanceServiceStub{
		seedFn: func(ctx context.Context, input usecase.SeedInput) (*usecase.SeedResult, error) {
			return nil, domain.ErrComponentMismatch
		},
	})

	body := `{"account_id":"acc-1","currency_id":"USD","quantity":"500","components":{"cash_bills":"1","cash_coins":"0","bank":"0"},"actor":"m"}`
	rec := httptest.NewRecorder()
	handler.Seed(rec, httptest.NewRequest(http.MethodPost, "/opening-balances", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpeningBalanceHandler_Active_NotFound(t *testing.T) {
	handler := NewOpeningBalanceHandler(&openingBalanceServiceStub{
		activeFn: func(ctx context.Context, accountID, currencyID string) (*domain.OpeningBalance, error) {
			return nil, domain.ErrOpeningBalanceNotFound
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"account": "acc-1", "currency": "USD"})
	rec := httptest.NewRecorder()

	handler.Active(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// withURLParams attaches chi route params to req.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAccountHandler_Create_Success(t *testing.T) {
	account := &domain.Account{
		ID:                   "acc-1",
		Name:                 "till 1",
		Active:               true,
		AllowNegativeBalance: true,
	}

	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&registryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return account, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{Name: "till 1", AllowNegativeBalance: true})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Name != "till 1" || !captured.AllowNegativeBalance {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "acc-1" {
		t.Fatalf("expected account ID acc-1, got %s", resp.ID)
	}
}

func TestAccountHandler_Create_InvalidJSON(t *testing.T) {
	handler := NewAccountHandler(&registryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatal("CreateAccount should not be called for invalid payload")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Create_ValidationError(t *testing.T) {
	handler := NewAccountHandler(&registryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, fmt.Errorf("%w: empty", domain.ErrInvalidAccountName)
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(`{"name":""}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&registryServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Account, error) {
			if id != "missing" {
				t.Fatalf("unexpected id %q", id)
			}
			return nil, domain.ErrAccountNotFound
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/missing", nil), map[string]string{"account": "missing"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_MissingID(t *testing.T) {
	handler := NewAccountHandler(&registryServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_List_SetsNextCursorOnFullPage(t *testing.T) {
	var gotAfter string
	var gotLimit int
	handler := NewAccountHandler(&registryServiceStub{
		listFn: func(ctx context.Context, afterID string, limit int) ([]*domain.Account, error) {
			gotAfter, gotLimit = afterID, limit
			return []*domain.Account{{ID: "acc-2"}, {ID: "acc-3"}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts?after=acc-1&limit=2", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotAfter != "acc-1" || gotLimit != 2 {
		t.Fatalf("expected after=acc-1 limit=2, got %q %d", gotAfter, gotLimit)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Accounts) != 2 || resp.NextCursor != "acc-3" {
		t.Fatalf("unexpected page: %+v", resp)
	}
}

func TestAccountHandler_List_DefaultLimitNoCursor(t *testing.T) {
	handler := NewAccountHandler(&registryServiceStub{
		listFn: func(ctx context.Context, afterID string, limit int) ([]*domain.Account, error) {
			if limit != 50 {
				t.Fatalf("expected default limit 50, got %d", limit)
			}
			return []*domain.Account{{ID: "acc-1"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/accounts", nil))

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.NextCursor != "" {
		t.Fatalf("expected no cursor on a short page, got %q", resp.NextCursor)
	}
}

func TestAccountHandler_CreateCurrency_Conflict(t *testing.T) {
	handler := NewAccountHandler(&registryServiceStub{
		createCurrencyFn: func(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error) {
			if input.Code != "usd" || input.Precision != 2 {
				t.Fatalf("unexpected input %+v", input)
			}
			return nil, domain.ErrCurrencyExists
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/currencies", bytes.NewBufferString(`{"code":"usd","precision":2}`))
	rec := httptest.NewRecorder()

	handler.CreateCurrency(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAccountHandler_ListCurrencies_Error(t *testing.T) {
	handler := NewAccountHandler(&registryServiceStub{
		listCurrencyFn: func(ctx context.Context) ([]*domain.Currency, error) {
			return nil, errors.New("db down")
		},
	})

	rec := httptest.NewRecorder()
	handler.ListCurrencies(rec, httptest.NewRequest(http.MethodGet, "/currencies", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

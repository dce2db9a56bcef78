package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Active               bool      `json:"active"`
	AllowNegativeBalance bool      `json:"allow_negative_balance"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:                   a.ID,
		Name:                 a.Name,
		Active:               a.Active,
		AllowNegativeBalance: a.AllowNegativeBalance,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

// ListAccountsResponse is one page of accounts. NextCursor feeds the
// `after` parameter of the next request.
type ListAccountsResponse struct {
	Accounts   []*AccountResponse `json:"accounts"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// CurrencyResponse represents a currency in API responses.
type CurrencyResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Precision int32  `json:"precision"`
	Active    bool   `json:"active"`
}

// CurrencyFromDomain converts domain currency to response.
func CurrencyFromDomain(c *domain.Currency) *CurrencyResponse {
	return &CurrencyResponse{ID: c.ID, Code: c.Code, Precision: c.Precision, Active: c.Active}
}

// ComponentsResponse is the split of a cash balance.
type ComponentsResponse struct {
	CashBills decimal.Decimal `json:"cash_bills"`
	CashCoins decimal.Decimal `json:"cash_coins"`
	Bank      decimal.Decimal `json:"bank"`
}

func componentsFromDomain(c *domain.Components) *ComponentsResponse {
	if c == nil {
		return nil
	}

	return &ComponentsResponse{CashBills: c.CashBills, CashCoins: c.CashCoins, Bank: c.Bank}
}

// BalanceResponse represents a balance snapshot.
type BalanceResponse struct {
	AccountID    string              `json:"account_id"`
	CurrencyID   string              `json:"currency_id"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Components   *ComponentsResponse `json:"components,omitempty"`
	LastSequence int64               `json:"last_sequence"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// BalanceFromDomain converts a snapshot to response.
func BalanceFromDomain(s *domain.Snapshot) *BalanceResponse {
	return &BalanceResponse{
		AccountID:    s.AccountID,
		CurrencyID:   s.CurrencyID,
		Quantity:     s.Quantity,
		Components:   componentsFromDomain(s.Components),
		LastSequence: s.LastSequence,
		UpdatedAt:    s.UpdatedAt,
	}
}

// BalancesFromDomain converts snapshots to responses.
func BalancesFromDomain(snapshots []*domain.Snapshot) []*BalanceResponse {
	result := make([]*BalanceResponse, len(snapshots))
	for i, s := range snapshots {
		result[i] = BalanceFromDomain(s)
	}
	return result
}

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	CurrencyID    string          `json:"currency_id"`
	Sequence      int64           `json:"sequence"`
	Kind          string          `json:"kind"`
	Channel       string          `json:"channel,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Actor         string          `json:"actor"`
	Description   string          `json:"description,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// MovementFromDomain converts domain movement to response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	if m == nil {
		return nil
	}

	resp := &MovementResponse{
		ID:            m.ID,
		AccountID:     m.AccountID,
		CurrencyID:    m.CurrencyID,
		Sequence:      m.Sequence,
		Kind:          string(m.Kind),
		Channel:       string(m.Channel),
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Actor:         m.Actor,
		Description:   m.Description,
		Timestamp:     m.Timestamp,
	}

	if m.Reference != nil {
		resp.Reference = m.Reference.String()
	}

	return resp
}

// MovementPageResponse is one page of a pair's log.
type MovementPageResponse struct {
	Movements    []*MovementResponse `json:"movements"`
	NextSequence int64               `json:"next_sequence,omitempty"`
	HasMore      bool                `json:"has_more"`
}

// MovementPageFromUseCase converts a movement page to response.
func MovementPageFromUseCase(p *usecase.MovementPage) *MovementPageResponse {
	movements := make([]*MovementResponse, len(p.Movements))
	for i, m := range p.Movements {
		movements[i] = MovementFromDomain(m)
	}

	return &MovementPageResponse{Movements: movements, NextSequence: p.NextSequence, HasMore: p.HasMore}
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID            string            `json:"id"`
	FromAccountID string            `json:"from_account_id"`
	ToAccountID   string            `json:"to_account_id"`
	CurrencyID    string            `json:"currency_id"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        string            `json:"status"`
	Debit         *MovementResponse `json:"debit,omitempty"`
	Credit        *MovementResponse `json:"credit,omitempty"`
	Reversal      *MovementResponse `json:"reversal,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	return &TransferResponse{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		CurrencyID:    t.CurrencyID,
		Amount:        t.Amount,
		Status:        string(t.Status),
		Debit:         MovementFromDomain(t.Debit),
		Credit:        MovementFromDomain(t.Credit),
		Reversal:      MovementFromDomain(t.Reversal),
		CreatedAt:     t.CreatedAt,
	}
}

// OpeningBalanceResponse represents an opening balance anchor.
type OpeningBalanceResponse struct {
	ID                  string          `json:"id"`
	AccountID           string          `json:"account_id"`
	CurrencyID          string          `json:"currency_id"`
	Quantity            decimal.Decimal `json:"quantity"`
	StartsAfterSequence int64           `json:"starts_after_sequence"`
	Actor               string          `json:"actor"`
	Active              bool            `json:"active"`
	SupersededBy        string          `json:"superseded_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// OpeningBalanceFromDomain converts an anchor to response.
func OpeningBalanceFromDomain(o *domain.OpeningBalance) *OpeningBalanceResponse {
	if o == nil {
		return nil
	}

	return &OpeningBalanceResponse{
		ID:                  o.ID,
		AccountID:           o.AccountID,
		CurrencyID:          o.CurrencyID,
		Quantity:            o.Quantity,
		StartsAfterSequence: o.StartsAfterSequence,
		Actor:               o.Actor,
		Active:              o.Active,
		SupersededBy:        o.SupersededBy,
		CreatedAt:           o.CreatedAt,
	}
}

// SeedResponse reports a seeding outcome.
type SeedResponse struct {
	Opening    *OpeningBalanceResponse `json:"opening"`
	Superseded *OpeningBalanceResponse `json:"superseded,omitempty"`
	Movement   *MovementResponse       `json:"movement,omitempty"`
}

// SeedFromUseCase converts a seed result to response.
func SeedFromUseCase(r *usecase.SeedResult) *SeedResponse {
	return &SeedResponse{
		Opening:    OpeningBalanceFromDomain(r.Opening),
		Superseded: OpeningBalanceFromDomain(r.Superseded),
		Movement:   MovementFromDomain(r.Movement),
	}
}

// ReconciliationResponse reports the outcome of reconciling one pair.
type ReconciliationResponse struct {
	AccountID       string            `json:"account_id"`
	CurrencyID      string            `json:"currency_id"`
	SnapshotBalance decimal.Decimal   `json:"snapshot_balance"`
	TrueBalance     decimal.Decimal   `json:"true_balance"`
	Difference      decimal.Decimal   `json:"difference"`
	Drift           bool              `json:"drift"`
	Corrected       bool              `json:"corrected"`
	Adjustment      *MovementResponse `json:"adjustment,omitempty"`
	CheckedAt       time.Time         `json:"checked_at"`
}

// ReconciliationFromDomain converts a reconciliation result to response.
func ReconciliationFromDomain(r *domain.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:       r.AccountID,
		CurrencyID:      r.CurrencyID,
		SnapshotBalance: r.SaldoAnterior,
		TrueBalance:     r.SaldoCalculado,
		Difference:      r.Diferencia,
		Drift:           r.Drift,
		Corrected:       r.Corrected,
		Adjustment:      MovementFromDomain(r.Adjustment),
		CheckedAt:       r.CheckedAt,
	}
}

// ReconciliationFailureResponse names a pair that could not be reconciled.
type ReconciliationFailureResponse struct {
	AccountID  string `json:"account_id"`
	CurrencyID string `json:"currency_id"`
	Error      string `json:"error"`
}

// ReconciliationBatchResponse reports a multi-pair reconciliation.
type ReconciliationBatchResponse struct {
	Results    []*ReconciliationResponse        `json:"results"`
	Failures   []*ReconciliationFailureResponse `json:"failures,omitempty"`
	Corrected  int                              `json:"corrected"`
	Drifted    int                              `json:"drifted"`
	StartedAt  time.Time                        `json:"started_at"`
	FinishedAt time.Time                        `json:"finished_at"`
}

// ReconciliationBatchFromDomain converts a batch to response.
func ReconciliationBatchFromDomain(b *domain.ReconciliationBatch) *ReconciliationBatchResponse {
	resp := &ReconciliationBatchResponse{
		Results:    make([]*ReconciliationResponse, len(b.Results)),
		Corrected:  b.Corrected,
		Drifted:    b.Drifted,
		StartedAt:  b.StartedAt,
		FinishedAt: b.FinishedAt,
	}

	for i, r := range b.Results {
		resp.Results[i] = ReconciliationFromDomain(r)
	}

	for _, f := range b.Failures {
		resp.Failures = append(resp.Failures, &ReconciliationFailureResponse{
			AccountID:  f.AccountID,
			CurrencyID: f.CurrencyID,
			Error:      f.Err.Error(),
		})
	}

	return resp
}

// ChainBreakResponse reports a link whose balance_before differs from the
// previous balance_after.
type ChainBreakResponse struct {
	MovementID string          `json:"movement_id"`
	Sequence   int64           `json:"sequence"`
	Expected   decimal.Decimal `json:"expected"`
	Actual     decimal.Decimal `json:"actual"`
	Delta      decimal.Decimal `json:"delta"`
	Timestamp  time.Time       `json:"timestamp"`
}

// CalculationBreakResponse reports a movement whose arithmetic is wrong.
type CalculationBreakResponse struct {
	MovementID    string          `json:"movement_id"`
	Sequence      int64           `json:"sequence"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Delta         decimal.Decimal `json:"delta"`
	Timestamp     time.Time       `json:"timestamp"`
}

// SignFindingResponse reports a stored movement whose sign contradicts its kind.
type SignFindingResponse struct {
	MovementID      string          `json:"movement_id"`
	Sequence        int64           `json:"sequence"`
	Kind            string          `json:"kind"`
	StoredAmount    decimal.Decimal `json:"stored_amount"`
	CorrectedAmount decimal.Decimal `json:"corrected_amount"`
	Correctable     bool            `json:"correctable"`
	Timestamp       time.Time       `json:"timestamp"`
}

// SignFindingsFromDomain converts sign findings to responses.
func SignFindingsFromDomain(findings []domain.SignFinding) []*SignFindingResponse {
	result := make([]*SignFindingResponse, len(findings))
	for i, f := range findings {
		result[i] = &SignFindingResponse{
			MovementID:      f.MovementID,
			Sequence:        f.Sequence,
			Kind:            string(f.Kind),
			StoredAmount:    f.StoredAmount,
			CorrectedAmount: f.CorrectedAmount,
			Correctable:     f.Correctable,
			Timestamp:       f.Timestamp,
		}
	}
	return result
}

// ComponentDriftResponse reports split components that do not add up.
type ComponentDriftResponse struct {
	Quantity   decimal.Decimal `json:"quantity"`
	Components decimal.Decimal `json:"components"`
	Delta      decimal.Decimal `json:"delta"`
}

// ChainReportResponse is the outcome of a chain walk.
type ChainReportResponse struct {
	AccountID         string                      `json:"account_id"`
	CurrencyID        string                      `json:"currency_id"`
	Healthy           bool                        `json:"healthy"`
	MovementsChecked  int                         `json:"movements_checked"`
	Seed              decimal.Decimal             `json:"seed"`
	FinalBalance      decimal.Decimal             `json:"final_balance"`
	ChainBreaks       []*ChainBreakResponse       `json:"chain_breaks"`
	CalculationBreaks []*CalculationBreakResponse `json:"calculation_breaks"`
	SignWarnings      []*SignFindingResponse      `json:"sign_warnings"`
	ComponentDrift    *ComponentDriftResponse     `json:"component_drift,omitempty"`
	CheckedAt         time.Time                   `json:"checked_at"`
}

// ChainReportFromDomain converts a chain report to response.
func ChainReportFromDomain(r *domain.ChainReport) *ChainReportResponse {
	resp := &ChainReportResponse{
		AccountID:         r.AccountID,
		CurrencyID:        r.CurrencyID,
		Healthy:           len(r.ChainBreaks) == 0 && len(r.CalculationBreaks) == 0 && r.ComponentDrift == nil,
		MovementsChecked:  r.MovementsChecked,
		Seed:              r.Seed,
		FinalBalance:      r.FinalBalance,
		ChainBreaks:       make([]*ChainBreakResponse, len(r.ChainBreaks)),
		CalculationBreaks: make([]*CalculationBreakResponse, len(r.CalculationBreaks)),
		SignWarnings:      SignFindingsFromDomain(r.SignWarnings),
		CheckedAt:         r.CheckedAt,
	}

	for i, b := range r.ChainBreaks {
		resp.ChainBreaks[i] = &ChainBreakResponse{
			MovementID: b.MovementID,
			Sequence:   b.Sequence,
			Expected:   b.Expected,
			Actual:     b.Actual,
			Delta:      b.Delta,
			Timestamp:  b.Timestamp,
		}
	}

	for i, b := range r.CalculationBreaks {
		resp.CalculationBreaks[i] = &CalculationBreakResponse{
			MovementID:    b.MovementID,
			Sequence:      b.Sequence,
			BalanceBefore: b.BalanceBefore,
			Amount:        b.Amount,
			BalanceAfter:  b.BalanceAfter,
			Delta:         b.Delta,
			Timestamp:     b.Timestamp,
		}
	}

	if d := r.ComponentDrift; d != nil {
		resp.ComponentDrift = &ComponentDriftResponse{Quantity: d.Quantity, Components: d.Components, Delta: d.Delta}
	}

	return resp
}

// TrueBalanceResponse reports the balance replayed from the log.
type TrueBalanceResponse struct {
	AccountID   string          `json:"account_id"`
	CurrencyID  string          `json:"currency_id"`
	TrueBalance decimal.Decimal `json:"true_balance"`
}

// FundsCheckResponse reports whether an outflow fits the account's policy.
type FundsCheckResponse struct {
	AccountID  string          `json:"account_id"`
	CurrencyID string          `json:"currency_id"`
	Amount     decimal.Decimal `json:"amount"`
	Sufficient bool            `json:"sufficient"`
	Reason     string          `json:"reason,omitempty"`
}

package domain

import "time"

// Event types
const (
	EventTypeMovementPosted          = "movement.posted"
	EventTypeReconciliationCorrected = "reconciliation.corrected"
	EventTypeOpeningBalanceSeeded    = "opening_balance.seeded"
	EventTypeTransferCompensated     = "transfer.compensated"
)

// Aggregate types
const (
	AggregateTypeBalance  = "balance"
	AggregateTypeTransfer = "transfer"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Payload       map[string]any
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Published     bool
}

// BalanceAggregateID identifies the (account, currency) pair an event belongs to.
func BalanceAggregateID(accountID, currencyID string) string {
	return accountID + "/" + currencyID
}

// MovementPostedEvent payload
type MovementPostedEvent struct {
	MovementID    string `json:"movement_id"`
	AccountID     string `json:"account_id"`
	CurrencyID    string `json:"currency_id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	Sequence      int64  `json:"sequence"`
	Actor         string `json:"actor"`
	Reference     string `json:"reference,omitempty"`
}

// ReconciliationCorrectedEvent payload
type ReconciliationCorrectedEvent struct {
	AccountID      string `json:"account_id"`
	CurrencyID     string `json:"currency_id"`
	MovementID     string `json:"movement_id"`
	SaldoAnterior  string `json:"saldo_anterior"`
	SaldoCalculado string `json:"saldo_calculado"`
	Diferencia     string `json:"diferencia"`
	Actor          string `json:"actor"`
}

// OpeningBalanceSeededEvent payload
type OpeningBalanceSeededEvent struct {
	OpeningBalanceID    string `json:"opening_balance_id"`
	AccountID           string `json:"account_id"`
	CurrencyID          string `json:"currency_id"`
	Quantity            string `json:"quantity"`
	StartsAfterSequence int64  `json:"starts_after_sequence"`
	SupersededID        string `json:"superseded_id,omitempty"`
}

// TransferCompensatedEvent payload
type TransferCompensatedEvent struct {
	TransferID    string `json:"transfer_id"`
	FromAccountID string `json:"from_account_id"`
	CurrencyID    string `json:"currency_id"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason"`
}

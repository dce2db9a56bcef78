package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus tracks a two-leg inter-account transfer.
type TransferStatus string

const (
	TransferCompleted   TransferStatus = "completed"
	TransferCompensated TransferStatus = "compensated"
	TransferInFlight    TransferStatus = "in_flight"
	TransferCancelled   TransferStatus = "cancelled"
)

// Transfer moves value between two accounts in the same currency through a
// TRANSFER_OUT leg on the origin and a TRANSFER_IN leg on the destination.
type Transfer struct {
	CreatedAt     time.Time
	Debit         *Movement
	Credit        *Movement
	Reversal      *Movement
	ID            string
	FromAccountID string
	ToAccountID   string
	CurrencyID    string
	Status        TransferStatus
	Amount        decimal.Decimal
}

// Reference returns the reference shared by every leg of the transfer.
func (t *Transfer) Reference() *Reference {
	return &Reference{Kind: ReferenceTransfer, ID: t.ID}
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

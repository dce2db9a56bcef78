package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Registry errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrCurrencyNotFound = errors.New("currency not found")
	ErrCurrencyExists   = errors.New("currency already registered")

	// Posting errors
	ErrSignMismatch      = errors.New("amount sign does not match movement kind")
	ErrUnknownKind       = errors.New("unknown movement kind")
	ErrZeroAmount        = errors.New("amount must not be zero")
	ErrAmountPrecision   = errors.New("amount exceeds currency precision")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrChannelRequired   = errors.New("channel required for split balance")
	ErrInvalidChannel    = errors.New("invalid balance channel")
	ErrMissingActor      = errors.New("actor is required")
	ErrDuplicatePosting  = errors.New("posting with this idempotency key is already in progress")
	ErrMovementNotFound  = errors.New("movement not found")

	// Concurrency errors
	ErrLockTimeout = errors.New("timed out waiting for balance lock")

	// Snapshot and opening balance errors
	ErrSnapshotNotFound       = errors.New("balance snapshot not found")
	ErrComponentMismatch      = errors.New("balance components do not add up to quantity")
	ErrOpeningBalanceNotFound = errors.New("opening balance not found")

	// Transfer errors
	ErrSameAccount         = errors.New("cannot transfer to same account")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrTransferCompensated = errors.New("transfer credit leg failed and was compensated")
	ErrTransferNotInFlight = errors.New("transfer is not in flight")
)

// SignMismatchError reports a movement whose amount sign contradicts its kind.
type SignMismatchError struct {
	Kind     MovementKind
	Amount   decimal.Decimal
	Expected Sign
}

func (e *SignMismatchError) Error() string {
	return fmt.Sprintf("%s: kind %s requires %s amount, got %s", ErrSignMismatch, e.Kind, e.Expected, e.Amount.String())
}

// Unwrap lets errors.Is match ErrSignMismatch.
func (e *SignMismatchError) Unwrap() error {
	return ErrSignMismatch
}

// IsRetryable reports whether an operation that failed with err may be retried.
// Failed transactions leave no trace, so lock timeouts are safe to retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

// IsValidation reports whether err is a caller error that must never be retried.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrCurrencyNotFound),
		errors.Is(err, ErrSignMismatch),
		errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrZeroAmount),
		errors.Is(err, ErrAmountPrecision),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrChannelRequired),
		errors.Is(err, ErrInvalidChannel),
		errors.Is(err, ErrMissingActor),
		errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrTransferNotInFlight):
		return true
	default:
		return false
	}
}

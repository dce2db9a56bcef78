package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a physical or logical cash point ("punto") tracked per currency.
type Account struct {
	ID                   string
	Name                 string
	Active               bool
	AllowNegativeBalance bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ValidateOutflow checks whether balance can absorb an outflow of amount
// under the account's overdraft policy. Amount may be given with either sign.
func (a *Account) ValidateOutflow(balance, amount decimal.Decimal) error {
	if a.AllowNegativeBalance {
		return nil
	}

	if balance.Sub(amount.Abs()).IsNegative() {
		return fmt.Errorf("%w: balance %s, outflow %s", ErrInsufficientFunds, balance.String(), amount.Abs().String())
	}

	return nil
}

// Currency is an immutable currency identity with a fixed minor-unit precision.
type Currency struct {
	ID        string
	Code      string
	Precision int32
	Active    bool
	CreatedAt time.Time
}

// Round rounds d to the currency's precision (half away from zero).
func (c *Currency) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(c.precision())
}

// ValidateScale rejects amounts carrying more decimal places than the currency allows.
func (c *Currency) ValidateScale(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(c.precision())) {
		return fmt.Errorf("%w: %s allows %d decimal places, got %s", ErrAmountPrecision, c.Code, c.precision(), d.String())
	}

	return nil
}

func (c *Currency) precision() int32 {
	if c.Precision < 0 {
		return DefaultPrecision
	}

	return c.Precision
}

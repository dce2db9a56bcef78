package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Channel names the sub-component of a split balance a movement affects.
type Channel string

const (
	ChannelNone      Channel = ""
	ChannelCashBills Channel = "CASH_BILLS"
	ChannelCashCoins Channel = "CASH_COINS"
	ChannelBank      Channel = "BANK"
)

// ParseChannel normalizes s into a Channel. The empty string is ChannelNone.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ChannelNone, ChannelCashBills, ChannelCashCoins, ChannelBank:
		return c, nil
	default:
		return ChannelNone, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
}

// Components splits a balance into cash bills, cash coins and bank money.
type Components struct {
	CashBills decimal.Decimal
	CashCoins decimal.Decimal
	Bank      decimal.Decimal
}

// Total returns the sum of all components.
func (c Components) Total() decimal.Decimal {
	return c.CashBills.Add(c.CashCoins).Add(c.Bank)
}

// Apply returns c with amount added to the given channel.
func (c Components) Apply(channel Channel, amount decimal.Decimal) (Components, error) {
	switch channel {
	case ChannelCashBills:
		c.CashBills = c.CashBills.Add(amount)
	case ChannelCashCoins:
		c.CashCoins = c.CashCoins.Add(amount)
	case ChannelBank:
		c.Bank = c.Bank.Add(amount)
	case ChannelNone:
		return c, ErrChannelRequired
	default:
		return c, fmt.Errorf("%w: %q", ErrInvalidChannel, string(channel))
	}

	return c, nil
}

// Snapshot is the denormalized current balance of one (account, currency) pair.
type Snapshot struct {
	UpdatedAt    time.Time
	Components   *Components
	AccountID    string
	CurrencyID   string
	Quantity     decimal.Decimal
	LastSequence int64
}

// ValidateComponents checks that split components add up to Quantity within Tolerance.
func (s *Snapshot) ValidateComponents() error {
	if s.Components == nil {
		return nil
	}

	total := s.Components.Total()
	if ExceedsTolerance(total, s.Quantity) {
		return fmt.Errorf("%w: components %s, quantity %s", ErrComponentMismatch, total.String(), s.Quantity.String())
	}

	return nil
}

// Apply returns the snapshot state after a movement of amount on channel.
// Unsplit snapshots ignore the channel.
func (s Snapshot) Apply(amount decimal.Decimal, channel Channel, sequence int64, at time.Time) (Snapshot, error) {
	if s.Components != nil {
		next, err := s.Components.Apply(channel, amount)
		if err != nil {
			return s, err
		}

		s.Components = &next
	}

	s.Quantity = s.Quantity.Add(amount)
	s.LastSequence = sequence
	s.UpdatedAt = at

	return s, nil
}

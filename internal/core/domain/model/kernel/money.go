package kernel

import (
	"errors"
	"fmt"

	"flowershop/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of fraction digits kept for every amount.
const moneyScale = 2

var (
	ErrMoneyIsNotConstructed = errors.New("Money must be created via NewMoney, MoneyFromString or ZeroMoney")
	ErrMoneyIsNegative       = errs.NewValueIsInvalidError("money must not be negative")
)

// Money is a non-negative fixed-point amount rounded to two fraction digits.
// Prices, line totals and order totals are all Money.
//
// The zero value is invalid. Build amounts with NewMoney, MoneyFromString or
// ZeroMoney.
//
// Example:
//
//	price := kernel.MustMoney("150")
//	line := price.Mul(7)                       // 1050.00
//	total := line.Add(kernel.MustMoney("300")) // 1350.00
type Money struct {
	amount        decimal.Decimal
	isConstructed bool
}

// NewMoney rounds amount to two fraction digits and rejects negative values.
//
// Returns:
//   - Money: the rounded amount
//   - error: a ValueIsInvalidError for negative amounts
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, errs.NewValueIsInvalidErrorWithCause(
			"money must not be negative",
			fmt.Errorf("%s is less than 0", amount.String()),
		)
	}
	return Money{amount: amount.Round(moneyScale), isConstructed: true}, nil
}

// MoneyFromString parses a decimal literal such as "1250.50".
//
// Returns:
//   - Money: the parsed amount
//   - error: a ValueIsInvalidError for malformed or negative literals
//
// Example:
//
//	fee, err := kernel.MoneyFromString("300.00")
func MoneyFromString(s string) (Money, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money", err)
	}
	return NewMoney(amount)
}

// MustMoney is for constants and tests.
//
// It panics when s is not a valid amount.
func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a valid zero amount.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero, isConstructed: true}
}

// Validate checks that m was built by a constructor rather than declared zero.
//
// Returns:
//   - error: ErrMoneyIsNotConstructed for the zero value, nil otherwise
func (m Money) Validate() error {
	if !m.isConstructed {
		return ErrMoneyIsNotConstructed
	}
	return nil
}

// Decimal exposes the amount for persistence and arithmetic at the edges.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add returns the sum of both amounts.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount), isConstructed: true}
}

// Sub floors the result at zero; a discount never makes a total negative.
//
// Example:
//
//	kernel.MustMoney("100").Sub(kernel.MustMoney("250")) // 0.00
func (m Money) Sub(other Money) Money {
	diff := m.amount.Sub(other.amount)
	if diff.IsNegative() {
		return ZeroMoney()
	}
	return Money{amount: diff, isConstructed: true}
}

// Mul multiplies a unit price by a quantity.
//
// Example:
//
//	kernel.MustMoney("12.50").Mul(3) // 37.50
func (m Money) Mul(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity))).Round(moneyScale), isConstructed: true}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Equal compares amounts by value, ignoring decimal representation.
//
// Example:
//
//	a, _ := kernel.MoneyFromString("10")
//	b, _ := kernel.MoneyFromString("10.00")
//	a.Equal(b) // true
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String formats the amount with two fraction digits.
func (m Money) String() string {
	return m.amount.StringFixed(moneyScale)
}

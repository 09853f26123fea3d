// Package money implements the fixed-point currency type used by every
// balance computation in the engine. Amounts are integer minor units
// (cents); binary floating point never enters arithmetic.
package money

import (
	"errors"
	"fmt"
)

// ErrUnderflow is returned when a subtraction would produce a negative amount.
var ErrUnderflow = errors.New("money: underflow")

// ErrBadSplit is returned when SplitEvenly is called with n <= 0 or on a
// negative amount.
var ErrBadSplit = errors.New("money: split requires n > 0 and a non-negative amount")

// Money is an exact amount in minor units of a single currency.
type Money struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

// New returns an amount of cents in the given currency.
func New(cents int64, currency string) Money {
	return Money{Cents: cents, Currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// mustSameCurrency panics on a cross-currency operation. Mixing currencies
// is a programmer error, not an input error: no public API accepts amounts
// in more than one currency per pool or wallet.
func (m Money) mustSameCurrency(o Money) {
	if m.Currency != o.Currency {
		panic(fmt.Sprintf("money: currency mismatch %q vs %q", m.Currency, o.Currency))
	}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	m.mustSameCurrency(o)
	return Money{Cents: m.Cents + o.Cents, Currency: m.Currency}
}

// Sub returns m - o, or ErrUnderflow if the result would be negative.
func (m Money) Sub(o Money) (Money, error) {
	m.mustSameCurrency(o)
	if o.Cents > m.Cents {
		return Money{}, ErrUnderflow
	}
	return Money{Cents: m.Cents - o.Cents, Currency: m.Currency}, nil
}

// MulInt returns m * n.
func (m Money) MulInt(n int64) Money {
	return Money{Cents: m.Cents * n, Currency: m.Currency}
}

// Cmp returns -1, 0 or +1 comparing m against o.
func (m Money) Cmp(o Money) int {
	m.mustSameCurrency(o)
	switch {
	case m.Cents < o.Cents:
		return -1
	case m.Cents > o.Cents:
		return 1
	default:
		return 0
	}
}

// Equal reports whether m and o are the same amount of the same currency.
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Cents == o.Cents
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.Cents > 0 }

// SplitEvenly divides m into n parts whose sum is exactly m. The remainder
// minor units, if any, go one each to the first parts. Negative amounts are
// rejected: the remainder top-up only makes sense going upward.
func (m Money) SplitEvenly(n int) ([]Money, error) {
	if n <= 0 || m.Cents < 0 {
		return nil, ErrBadSplit
	}
	base := m.Cents / int64(n)
	rem := m.Cents % int64(n)
	parts := make([]Money, n)
	for i := range parts {
		c := base
		if int64(i) < rem {
			c++
		}
		parts[i] = Money{Cents: c, Currency: m.Currency}
	}
	return parts, nil
}

// String formats the amount as "12.34 USD".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Cents/100, m.Cents%100, m.Currency)
}

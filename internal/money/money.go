// Package money represents currency amounts as integer minor units.
// Arithmetic never touches floating point; decimal is only used at the edges
// to parse and print amounts.
package money

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/BearBump/FreightDesk/internal/errs"
)

// Amount is a value in cents (or the minor unit of the payment currency).
type Amount int64

const DefaultCurrency = "USD"

// MaxAmount (999,999,999,999.99) bounds every amount accepted from callers.
// Any number of payments summed against one invoice stays within int64.
const MaxAmount Amount = 99_999_999_999_999

var maxCents = decimal.NewFromInt(int64(MaxAmount))

func Cents(c int64) Amount { return Amount(c) }

// FromMajor converts a whole-unit value (e.g. 1500 dollars) into cents.
func FromMajor(units int64) Amount { return Amount(units * 100) }

// Parse reads "1500", "1500.5" or "1500.25". More than two fractional digits
// is rejected instead of silently rounded.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, errs.Validation("amount", "invalid amount %q", s)
	}
	return FromDecimal(d)
}

func FromDecimal(d decimal.Decimal) (Amount, error) {
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, errs.Validation("amount", "amount %s has more than two decimal places", d.String())
	}
	if cents.Abs().GreaterThan(maxCents) {
		return 0, errs.Validation("amount", "amount %s exceeds the maximum of %s", d.String(), MaxAmount)
	}
	return Amount(cents.IntPart()), nil
}

func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -2) }

func (a Amount) String() string { return a.Decimal().StringFixed(2) }

func (a Amount) IsPositive() bool { return a > 0 }

// Check requires a to be positive and at most MaxAmount.
func Check(field string, a Amount) error {
	if !a.IsPositive() {
		return errs.Validation(field, "%s must be greater than 0", field)
	}
	if a > MaxAmount {
		return errs.Validation(field, "%s must not exceed %s", field, MaxAmount)
	}
	return nil
}

// MarshalJSON prints the amount in major units as a JSON number (1500.25).
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var raw json.Number
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		raw = json.Number(str)
	} else {
		raw = json.Number(s)
	}
	v, err := Parse(raw.String())
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Sum adds amounts.
func Sum(as ...Amount) Amount {
	var total Amount
	for _, a := range as {
		total += a
	}
	return total
}

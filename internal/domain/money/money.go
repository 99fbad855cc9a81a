// Package money holds the exact-decimal primitives used for every monetary
// value in the billing domain.
package money

import (
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for amounts.
const Scale int32 = 2

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidRate     = errors.New("invalid rate")
)

// Limits bounds the values accepted for amounts and quantities.
type Limits struct {
	MaxAmount   decimal.Decimal
	MaxQuantity decimal.Decimal
}

// DefaultLimits returns the ceilings used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxAmount:   decimal.RequireFromString("999999.99"),
		MaxQuantity: decimal.NewFromInt(9999),
	}
}

var amountReplacer = strings.NewReplacer("₹", "", "$", "", ",", "", " ", "", "\t", "")

// ParseAmount parses a user supplied amount such as "₹1,250.50" into an exact
// decimal rounded to two places.
func ParseAmount(raw string, limits Limits) (decimal.Decimal, error) {
	clean := amountReplacer.Replace(strings.TrimSpace(raw))
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}

	return ValidateAmount(d, limits)
}

// ValidateAmount checks sign and ceiling and rounds to two places.
func ValidateAmount(d decimal.Decimal, limits Limits) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount cannot be negative", ErrInvalidAmount)
	}
	if !limits.MaxAmount.IsZero() && d.GreaterThan(limits.MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount cannot exceed %s", ErrInvalidAmount, limits.MaxAmount.StringFixed(Scale))
	}
	return Round(d), nil
}

// ValidateQuantity requires 0 < q <= MaxQuantity.
func ValidateQuantity(q decimal.Decimal, limits Limits) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidQuantity)
	}
	if !limits.MaxQuantity.IsZero() && q.GreaterThan(limits.MaxQuantity) {
		return fmt.Errorf("%w: quantity cannot exceed %s", ErrInvalidQuantity, limits.MaxQuantity.String())
	}
	return nil
}

// ValidateRate requires a non-negative rate within the amount ceiling.
func ValidateRate(r decimal.Decimal, limits Limits) error {
	if r.IsNegative() {
		return fmt.Errorf("%w: rate cannot be negative", ErrInvalidRate)
	}
	if !limits.MaxAmount.IsZero() && r.GreaterThan(limits.MaxAmount) {
		return fmt.Errorf("%w: rate cannot exceed %s", ErrInvalidRate, limits.MaxAmount.StringFixed(Scale))
	}
	return nil
}

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Sum adds values in order.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Format renders d with the currency's grapheme and separators, e.g. "₹2,360.00".
// Unknown currency codes fall back to "<CODE> 2360.00".
func Format(d decimal.Decimal, currency string) string {
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%s %s", currency, d.StringFixed(Scale))
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// Percentage returns part/whole*100 rounded to two places, 0 when whole is zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(Scale)
}

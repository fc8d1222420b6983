package facturae

import "github.com/shopspring/decimal"

// Monetary values are carried as exact decimals with a fixed precision
// class: two decimals for rates and invoice-level totals, six decimals for
// gross and unit amounts. Binary floating point is never used, so repeated
// additions cannot drift.

// Decimal2 is a fixed-point decimal rendered with exactly two decimals.
type Decimal2 struct {
	decimal.Decimal
}

// NewDecimal2 rounds d to two decimals.
func NewDecimal2(d decimal.Decimal) Decimal2 {
	return Decimal2{d.Round(2)}
}

// Add returns the sum of d and other, rounded to two decimals.
func (d Decimal2) Add(other decimal.Decimal) Decimal2 {
	return NewDecimal2(d.Decimal.Add(other))
}

// MarshalText renders the value with exactly two decimals.
func (d Decimal2) MarshalText() ([]byte, error) {
	return []byte(d.StringFixed(2)), nil
}

// UnmarshalText parses a dot-decimal value.
func (d *Decimal2) UnmarshalText(text []byte) error {
	parsed, err := decimal.NewFromString(string(text))
	if err != nil {
		return err
	}
	d.Decimal = parsed
	return nil
}

// Decimal6 is a fixed-point decimal rendered with exactly six decimals.
type Decimal6 struct {
	decimal.Decimal
}

// NewDecimal6 rounds d to six decimals.
func NewDecimal6(d decimal.Decimal) Decimal6 {
	return Decimal6{d.Round(6)}
}

// MarshalText renders the value with exactly six decimals.
func (d Decimal6) MarshalText() ([]byte, error) {
	return []byte(d.StringFixed(6)), nil
}

// UnmarshalText parses a dot-decimal value.
func (d *Decimal6) UnmarshalText(text []byte) error {
	parsed, err := decimal.NewFromString(string(text))
	if err != nil {
		return err
	}
	d.Decimal = parsed
	return nil
}

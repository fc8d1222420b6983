package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Two parsing profiles coexist by contract with the upstream model: invoice
// amounts follow the Spanish convention (comma decimal separator, optional
// dot thousands separators), while the tax rate is emitted in an invariant
// dot-decimal form wrapped in decorator characters. The profiles are
// selected per field, never auto-detected.

const invoiceDateLayout = "02/01/2006"

// ParseAmount parses a monetary amount in the Spanish convention. When the
// text contains a comma it is taken as the decimal separator and dots are
// discarded as grouping; otherwise the text is parsed as a plain dot-decimal
// value. Blank text defaults to zero.
func ParseAmount(path, text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil
	}

	if strings.Contains(text, ",") {
		text = strings.ReplaceAll(text, ".", "")
		text = strings.ReplaceAll(text, ",", ".")
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %q", ErrInvalidField, path, text)
	}
	return d, nil
}

// ParseRate parses a tax rate from its decorated raw text, e.g. "(21.00%)".
// The numeric value is taken from the fixed substring at offsets 1 through 5
// and parsed as an invariant dot-decimal. The decoration is assumed to be
// exactly one leading character followed by a five-character rate; text
// shorter than six characters fails. This precondition is a contract with
// the analysis model output and must not be relaxed silently.
func ParseRate(path, text string) (decimal.Decimal, error) {
	runes := []rune(text)
	if len(runes) < 6 {
		return decimal.Zero, fmt.Errorf("%w: %s: rate text %q shorter than 6 characters", ErrInvalidField, path, text)
	}

	raw := string(runes[1:6])
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %q", ErrInvalidField, path, raw)
	}
	return d, nil
}

// ParseDate parses a date in the exact day/month/four-digit-year form used
// on the printed invoices.
func ParseDate(path, text string) (time.Time, error) {
	t, err := time.Parse(invoiceDateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %q", ErrInvalidField, path, text)
	}
	return t, nil
}

// ParseQuantity parses a line quantity in the Spanish convention, defaulting
// blank text to zero.
func ParseQuantity(path, text string) (decimal.Decimal, error) {
	return ParseAmount(path, text)
}

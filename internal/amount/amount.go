// Package amount converts user-facing decimal donation amounts into the
// representation each payment provider expects: integer minor units for
// the card provider, a decimal string for the redirect provider. Pure
// functions, no I/O.
package amount

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid donation amount")
	ErrInvalidCurrency = errors.New("unrecognized currency code")
)

// Currencies accepted by at least one of the two gateways.
var recognized = map[string]bool{
	"AED": true, "ARS": true, "AUD": true, "BGN": true, "BRL": true,
	"CAD": true, "CHF": true, "CLP": true, "CNY": true, "COP": true,
	"CZK": true, "DKK": true, "EUR": true, "GBP": true, "HKD": true,
	"HRK": true, "HUF": true, "IDR": true, "ILS": true, "INR": true,
	"ISK": true, "JPY": true, "KRW": true, "MXN": true, "MYR": true,
	"NOK": true, "NZD": true, "PHP": true, "PLN": true, "RON": true,
	"RUB": true, "SAR": true, "SEK": true, "SGD": true, "THB": true,
	"TRY": true, "TWD": true, "UAH": true, "USD": true, "VND": true,
	"ZAR": true,
}

// Card-provider currencies already denominated in their smallest unit.
var cardZeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"VND": true, "VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// Redirect-provider currencies that do not support decimal amounts.
var checkoutWholeUnit = map[string]bool{
	"HUF": true, "JPY": true, "TWD": true,
}

func validate(amt float64, currency string) (string, error) {
	if math.IsNaN(amt) || math.IsInf(amt, 0) || amt <= 0 {
		return "", ErrInvalidAmount
	}
	code := strings.ToUpper(currency)
	if !recognized[code] {
		return "", ErrInvalidCurrency
	}
	return code, nil
}

// ForCard returns the amount in the card provider's integer minor
// units. Zero-decimal currencies pass through as whole major units.
func ForCard(amt float64, currency string) (int64, error) {
	code, err := validate(amt, currency)
	if err != nil {
		return 0, err
	}
	d := decimal.NewFromFloat(amt)
	if cardZeroDecimal[code] {
		return d.Round(0).IntPart(), nil
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// ForCheckout returns the amount as the decimal string the redirect
// provider expects, e.g. "10.00", or a whole-unit string for currencies
// the provider refuses decimals for.
func ForCheckout(amt float64, currency string) (string, error) {
	code, err := validate(amt, currency)
	if err != nil {
		return "", err
	}
	d := decimal.NewFromFloat(amt)
	if checkoutWholeUnit[code] {
		return d.Round(0).String(), nil
	}
	return d.StringFixed(2), nil
}

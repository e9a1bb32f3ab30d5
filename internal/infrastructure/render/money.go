package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"LKR": "Rs ",
}

// Formatter prints prices and labels for one locale and currency
type Formatter struct {
	printer *message.Printer
	caser   cases.Caser
	symbol  string
}

// NewFormatter creates a Formatter; locale is a BCP 47 tag such as "en-US"
func NewFormatter(locale, currencyCode string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", currencyCode, err)
	}
	symbol, ok := symbols[unit.String()]
	if !ok {
		symbol = unit.String() + " "
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		caser:   cases.Title(tag),
		symbol:  symbol,
	}, nil
}

// MustFormatter is NewFormatter that panics on error; for package-level defaults
func MustFormatter(locale, currencyCode string) *Formatter {
	f, err := NewFormatter(locale, currencyCode)
	if err != nil {
		panic(err)
	}
	return f
}

// Price formats amount with two decimals and the currency symbol
func (f *Formatter) Price(amount decimal.Decimal) string {
	v := amount.Round(2).InexactFloat64()
	if v < 0 {
		return "-" + f.symbol + f.printer.Sprintf("%.2f", -v)
	}
	return f.symbol + f.printer.Sprintf("%.2f", v)
}

// FreeShippingHint returns the nudge shown while the subtotal is below the
// threshold, or "" once it is reached
func (f *Formatter) FreeShippingHint(amountToFree decimal.Decimal) string {
	if !amountToFree.IsPositive() {
		return ""
	}
	return "Add " + f.Price(amountToFree) + " more for free shipping!"
}

// Label title-cases an enum value such as "pending" or "in_transit"
func (f *Formatter) Label(value string) string {
	return f.caser.String(strings.ReplaceAll(value, "_", " "))
}

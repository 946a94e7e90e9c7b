package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/shopspring/decimal"
)

// CurrencyPair describes an FX instrument and its price conventions.
//
// PipValue is deliberately configuration, not a universal constant: most FX
// pairs quote pips at 0.0001 but pairs quoted in JPY use 0.01. Strategies
// that derive protective price offsets from pips must take the value from
// the instrument rather than hardcoding it.
type CurrencyPair struct {
	Symbol         string  `yaml:"symbol" json:"symbol" validate:"required"`
	BaseCurrency   string  `yaml:"base_currency" json:"base_currency" validate:"required,min=3,max=4"`
	QuoteCurrency  string  `yaml:"quote_currency" json:"quote_currency" validate:"required,min=3,max=4"`
	PipValue       float64 `yaml:"pip_value" json:"pip_value" validate:"required,gt=0"`
	PricePrecision int     `yaml:"price_precision" json:"price_precision" validate:"required,gt=0"`
}

// DefaultFX builds a CurrencyPair from a "BASE/QUOTE" symbol with the usual
// FX conventions: 5 decimal places and a 0.0001 pip, or 3 decimal places and
// a 0.01 pip for JPY-quoted pairs.
func DefaultFX(symbol string) (CurrencyPair, error) {
	base, quote, ok := strings.Cut(symbol, "/")
	if !ok {
		return CurrencyPair{}, errors.Newf(errors.ErrCodeInvalidInstrument, "symbol must be in BASE/QUOTE form, got %q", symbol)
	}

	pair := CurrencyPair{
		Symbol:         symbol,
		BaseCurrency:   strings.ToUpper(base),
		QuoteCurrency:  strings.ToUpper(quote),
		PipValue:       0.0001,
		PricePrecision: 5,
	}

	if pair.QuoteCurrency == "JPY" {
		pair.PipValue = 0.01
		pair.PricePrecision = 3
	}

	if err := pair.Validate(); err != nil {
		return CurrencyPair{}, err
	}

	return pair, nil
}

// RoundPrice rounds a price to the instrument's precision.
func (p CurrencyPair) RoundPrice(price float64) float64 {
	return decimal.NewFromFloat(price).Round(int32(p.PricePrecision)).InexactFloat64()
}

// Validate validates the CurrencyPair struct.
func (p *CurrencyPair) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInstrument, "invalid currency pair", err)
	}

	return nil
}

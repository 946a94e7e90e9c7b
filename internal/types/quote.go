package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
)

// QuoteTick is a single top-of-book quote for an instrument. Ticks arrive
// from a feed in non-decreasing timestamp order and are immutable once
// received.
type QuoteTick struct {
	Time    time.Time `yaml:"time" json:"time" csv:"time" validate:"required"`
	Symbol  string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Bid     float64   `yaml:"bid" json:"bid" csv:"bid" validate:"required,gt=0"`
	Ask     float64   `yaml:"ask" json:"ask" csv:"ask" validate:"required,gt=0,gtefield=Bid"`
	BidSize float64   `yaml:"bid_size" json:"bid_size" csv:"bid_size" validate:"gte=0"`
	AskSize float64   `yaml:"ask_size" json:"ask_size" csv:"ask_size" validate:"gte=0"`
}

// Mid returns the mid price of the quote.
func (q QuoteTick) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// Validate validates the QuoteTick struct.
func (q *QuoteTick) Validate() error {
	validate := validator.New()
	if err := validate.Struct(q); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidQuote, "invalid quote tick", err)
	}

	return nil
}

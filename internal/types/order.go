package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
)

type Side string

type OrderKind string

type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderKindMarket     OrderKind = "MARKET"
	OrderKindStopMarket OrderKind = "STOP_MARKET"
	OrderKindLimit      OrderKind = "LIMIT"
)

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

const (
	OrderReasonEntry      string = "entry"
	OrderReasonExit       string = "exit"
	OrderReasonStopLoss   string = "stop_loss"
	OrderReasonTakeProfit string = "take_profit"
)

// Opposite returns the opposing side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}

	return SideBuy
}

// OrderIntent is a request to open, close, or protect a position. It is
// produced by a strategy and consumed by the execution layer; the strategy
// does not track it further beyond observing position events.
type OrderIntent struct {
	ID       string    `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Symbol   string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side     Side      `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Kind     OrderKind `yaml:"kind" json:"kind" csv:"kind" validate:"required,oneof=MARKET STOP_MARKET LIMIT"`
	Quantity float64   `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	// TriggerPrice is the stop trigger for STOP_MARKET orders.
	TriggerPrice float64 `yaml:"trigger_price" json:"trigger_price" csv:"trigger_price" validate:"required_if=Kind STOP_MARKET,omitempty,gt=0"`
	// LimitPrice is the limit for LIMIT orders.
	LimitPrice float64 `yaml:"limit_price" json:"limit_price" csv:"limit_price" validate:"required_if=Kind LIMIT,omitempty,gt=0"`
	// Reason records why the order was placed, e.g. "entry" or "stop_loss".
	Reason       string    `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	StrategyName string    `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at" csv:"created_at"`
}

// Validate validates the OrderIntent struct.
func (o *OrderIntent) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order intent", err)
	}

	return nil
}

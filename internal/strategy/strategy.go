// Package strategy contains the MACD signal controllers and the narrow
// interfaces they require from their environment. A strategy is pure decision
// logic over in-memory state: it consumes quote ticks and position lifecycle
// events, and produces order intents through the ExecutionClient. Scheduling,
// order matching, and data storage belong to the surrounding runtime.
package strategy

import "github.com/rxtech-lab/macd-fx/internal/types"

// ExecutionClient is the outbound order interface a strategy produces
// intents through. Submission is fire-and-forget from the strategy's
// perspective: results are observed later via position events, not return
// values, and a submission error means the order was rejected outright.
type ExecutionClient interface {
	// SubmitMarketOrder submits an immediately-executing order.
	SubmitMarketOrder(symbol string, side types.Side, quantity float64) error
	// SubmitStopMarketOrder submits an order that converts to a market order
	// once the trigger price trades through.
	SubmitStopMarketOrder(symbol string, side types.Side, quantity float64, triggerPrice float64) error
	// SubmitLimitOrder submits an order that executes at the limit price or
	// better.
	SubmitLimitOrder(symbol string, side types.Side, quantity float64, limitPrice float64) error
	// CancelAllOrders cancels every working order for the instrument.
	CancelAllOrders(symbol string) error
	// ClosePosition submits a market order that flattens the given position.
	ClosePosition(position types.Position) error
}

// QuoteFeed controls the strategy's market data subscription.
type QuoteFeed interface {
	SubscribeQuotes(symbol string) error
	UnsubscribeQuotes(symbol string) error
}

// Strategy is the callback interface the runtime drives. Callbacks are
// invoked synchronously, one at a time, in arrival order; no concurrent
// invocation occurs by contract, so implementations hold no locks.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() string
	// OnStart is called once before the first tick.
	OnStart() error
	// OnQuoteTick processes one quote. Quotes arrive in non-decreasing
	// timestamp order.
	OnQuoteTick(tick types.QuoteTick) error
	// OnPositionEvent delivers a position lifecycle notification.
	OnPositionEvent(event types.PositionEvent) error
	// OnStop is called once after the last tick.
	OnStop() error
}

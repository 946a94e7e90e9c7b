package backtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/rxtech-lab/macd-fx/internal/strategy"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PositionEventHandler receives position lifecycle notifications from the
// venue. Strategies satisfy this through their OnPositionEvent callback.
type PositionEventHandler interface {
	OnPositionEvent(event types.PositionEvent) error
}

// SimVenue is a quote-driven execution simulation for a single instrument.
// Market orders fill at the touch (buy at ask, sell at bid); stop and limit
// orders rest until a quote trades through them. The book is netting: at
// most one open position, fills against an opposing position reduce it.
//
// Position events are delivered synchronously, inside the submit or quote
// update call that produced the fill. Strategies that gate entries on being
// flat after a close rely on this property.
type SimVenue struct {
	pair         types.CurrencyPair
	log          *logger.Logger
	quote        optional.Option[types.QuoteTick]
	pending      []types.OrderIntent
	position     optional.Option[types.Position]
	balance      decimal.Decimal
	realized     decimal.Decimal
	currency     string
	trades       []types.Trade
	orders       []types.OrderIntent
	handler      PositionEventHandler
	strategyName string
	subscribed   bool
	callbackErr  error
}

// NewSimVenue creates a venue for the given instrument and starting balance.
func NewSimVenue(pair types.CurrencyPair, startingBalance decimal.Decimal, currency string, log *logger.Logger) *SimVenue {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SimVenue{
		pair:         pair,
		log:          log,
		quote:        optional.None[types.QuoteTick](),
		pending:      nil,
		position:     optional.None[types.Position](),
		balance:      startingBalance,
		realized:     decimal.Zero,
		currency:     currency,
		trades:       nil,
		orders:       nil,
		handler:      nil,
		strategyName: "unattached",
		subscribed:   false,
		callbackErr:  nil,
	}
}

// Attach registers the strategy whose callbacks receive position events.
func (v *SimVenue) Attach(s strategy.Strategy) {
	v.handler = s
	v.strategyName = s.Name()
}

// UpdateQuote advances the venue to the next quote and triggers any resting
// orders the quote trades through.
func (v *SimVenue) UpdateQuote(tick types.QuoteTick) error {
	if tick.Symbol != v.pair.Symbol {
		return nil
	}

	v.quote = optional.Some(tick)
	v.processPendingOrders()

	return nil
}

// CallbackErr returns the first error a position event handler returned, if
// any. A callback error is fatal to the run; the engine checks this after
// every tick.
func (v *SimVenue) CallbackErr() error {
	return v.callbackErr
}

// Account returns the current account state.
func (v *SimVenue) Account() types.AccountInfo {
	return types.AccountInfo{
		Balance:     v.balance,
		RealizedPnL: v.realized,
		Currency:    v.currency,
	}
}

// Trades returns all fills in execution order.
func (v *SimVenue) Trades() []types.Trade {
	return v.trades
}

// Orders returns all accepted orders in submission order.
func (v *SimVenue) Orders() []types.OrderIntent {
	return v.orders
}

// Position returns the open position, if any.
func (v *SimVenue) Position() optional.Option[types.Position] {
	return v.position
}

// PendingOrders returns the resting stop and limit orders.
func (v *SimVenue) PendingOrders() []types.OrderIntent {
	return v.pending
}

// SubscribeQuotes implements strategy.QuoteFeed.
func (v *SimVenue) SubscribeQuotes(symbol string) error {
	if symbol != v.pair.Symbol {
		return errors.Newf(errors.ErrCodeNotSubscribed, "unknown instrument %s", symbol)
	}

	v.subscribed = true

	return nil
}

// UnsubscribeQuotes implements strategy.QuoteFeed.
func (v *SimVenue) UnsubscribeQuotes(symbol string) error {
	if symbol != v.pair.Symbol {
		return errors.Newf(errors.ErrCodeNotSubscribed, "unknown instrument %s", symbol)
	}

	v.subscribed = false

	return nil
}

// SubmitMarketOrder implements strategy.ExecutionClient.
func (v *SimVenue) SubmitMarketOrder(symbol string, side types.Side, quantity float64) error {
	return v.submitMarket(symbol, side, quantity, types.OrderReasonEntry)
}

// SubmitStopMarketOrder implements strategy.ExecutionClient. The order rests
// until a subsequent quote trades through the trigger price, then fills at
// the trigger. Submission never fills, even when the current quote is
// already through the trigger: a strategy placing a protective pair must be
// able to finish placing both legs before either can fire, otherwise the
// close would cancel a take-profit that was never submitted and leave its
// sibling orphaned.
func (v *SimVenue) SubmitStopMarketOrder(symbol string, side types.Side, quantity float64, triggerPrice float64) error {
	intent, err := v.newIntent(symbol, side, types.OrderKindStopMarket, quantity, types.OrderReasonStopLoss)
	if err != nil {
		return err
	}

	intent.TriggerPrice = triggerPrice
	if err := intent.Validate(); err != nil {
		return err
	}

	v.orders = append(v.orders, intent)
	v.pending = append(v.pending, intent)

	return nil
}

// SubmitLimitOrder implements strategy.ExecutionClient. The order rests until
// a subsequent quote reaches the limit price, then fills at the limit.
// Like stops, submission never fills against the current quote.
func (v *SimVenue) SubmitLimitOrder(symbol string, side types.Side, quantity float64, limitPrice float64) error {
	intent, err := v.newIntent(symbol, side, types.OrderKindLimit, quantity, types.OrderReasonTakeProfit)
	if err != nil {
		return err
	}

	intent.LimitPrice = limitPrice
	if err := intent.Validate(); err != nil {
		return err
	}

	v.orders = append(v.orders, intent)
	v.pending = append(v.pending, intent)

	return nil
}

// CancelAllOrders implements strategy.ExecutionClient.
func (v *SimVenue) CancelAllOrders(symbol string) error {
	if symbol != v.pair.Symbol {
		return errors.Newf(errors.ErrCodeInvalidOrder, "unknown instrument %s", symbol)
	}

	cancelled := len(v.pending)
	v.pending = nil

	if cancelled > 0 {
		v.log.Debug("cancelled resting orders", zap.Int("count", cancelled))
	}

	return nil
}

// ClosePosition implements strategy.ExecutionClient. The close is a market
// order on the exit side; its Closed event is delivered before this call
// returns.
func (v *SimVenue) ClosePosition(position types.Position) error {
	current, err := v.position.Take()
	if err != nil {
		return errors.New(errors.ErrCodeNoPosition, "no open position to close")
	}

	if current.ID != position.ID {
		return errors.Newf(errors.ErrCodeNoPosition, "position %s is not open", position.ID)
	}

	return v.submitMarket(current.Symbol, current.Side.ExitSide(), current.Quantity, types.OrderReasonExit)
}

func (v *SimVenue) submitMarket(symbol string, side types.Side, quantity float64, reason string) error {
	intent, err := v.newIntent(symbol, side, types.OrderKindMarket, quantity, reason)
	if err != nil {
		return err
	}

	if err := intent.Validate(); err != nil {
		return err
	}

	quote, err := v.quote.Take()
	if err != nil {
		return errors.New(errors.ErrCodeNoQuote, "no market data available yet")
	}

	price := quote.Bid
	if side == types.SideBuy {
		price = quote.Ask
	}

	v.orders = append(v.orders, intent)
	v.fill(intent, price, quote.Time)

	return nil
}

func (v *SimVenue) newIntent(symbol string, side types.Side, kind types.OrderKind, quantity float64, reason string) (types.OrderIntent, error) {
	if symbol != v.pair.Symbol {
		return types.OrderIntent{}, errors.Newf(errors.ErrCodeInvalidOrder, "unknown instrument %s", symbol)
	}

	createdAt := time.Time{}
	if v.quote.IsSome() {
		createdAt = v.quote.Unwrap().Time
	}

	return types.OrderIntent{
		ID:           uuid.New().String(),
		Symbol:       symbol,
		Side:         side,
		Kind:         kind,
		Quantity:     quantity,
		Reason:       reason,
		StrategyName: v.strategyName,
		CreatedAt:    createdAt,
	}, nil
}

// fill executes an order against the netting book: open when flat, extend on
// the same side, reduce against an opposing position.
func (v *SimVenue) fill(intent types.OrderIntent, price float64, executedAt time.Time) {
	entrySide := types.PositionSideShort
	if intent.Side == types.SideBuy {
		entrySide = types.PositionSideLong
	}

	current, err := v.position.Take()
	if err != nil {
		// Flat: the fill opens a new position.
		position := types.Position{
			ID:            uuid.New().String(),
			Symbol:        intent.Symbol,
			Side:          entrySide,
			Quantity:      intent.Quantity,
			AvgEntryPrice: price,
			OpenedAt:      executedAt,
		}
		v.position = optional.Some(position)
		v.recordTrade(intent, price, intent.Quantity, executedAt, decimal.Zero)
		v.log.Debug("position opened",
			zap.String("side", string(position.Side)),
			zap.Float64("price", price),
		)
		v.emit(types.NewPositionOpened(position))

		return
	}

	if current.Side == entrySide {
		// Same direction: extend at the weighted average entry.
		total := current.Quantity + intent.Quantity
		current.AvgEntryPrice = (current.AvgEntryPrice*current.Quantity + price*intent.Quantity) / total
		current.Quantity = total
		v.position = optional.Some(current)
		v.recordTrade(intent, price, intent.Quantity, executedAt, decimal.Zero)

		return
	}

	// Opposing direction: reduce. Quantity beyond the open position is
	// dropped rather than flipped.
	closeQty := intent.Quantity
	if closeQty > current.Quantity {
		v.log.Warn("order quantity exceeds open position, capping",
			zap.Float64("requested", intent.Quantity),
			zap.Float64("position", current.Quantity),
		)
		closeQty = current.Quantity
	}

	closed := current
	closed.Quantity = closeQty
	pnl := closed.PnL(price)

	v.realized = v.realized.Add(pnl)
	v.balance = v.balance.Add(pnl)
	v.recordTrade(intent, price, closeQty, executedAt, pnl)

	if closeQty >= current.Quantity {
		v.position = optional.None[types.Position]()
		v.log.Debug("position closed",
			zap.String("side", string(current.Side)),
			zap.String("pnl", pnl.String()),
		)
		v.emit(types.NewPositionClosed(current, pnl))

		return
	}

	current.Quantity -= closeQty
	v.position = optional.Some(current)
}

// processPendingOrders repeatedly fills the first triggered resting order
// until none remain triggered. Re-evaluating from scratch after every fill
// keeps the loop correct when a fill's event handler cancels orders
// re-entrantly.
func (v *SimVenue) processPendingOrders() {
	quote, err := v.quote.Take()
	if err != nil {
		return
	}

	for {
		index := -1

		for i, order := range v.pending {
			if v.triggered(order, quote) {
				index = i

				break
			}
		}

		if index < 0 {
			return
		}

		order := v.pending[index]
		v.pending = append(v.pending[:index], v.pending[index+1:]...)

		price := order.TriggerPrice
		if order.Kind == types.OrderKindLimit {
			price = order.LimitPrice
		}

		v.fill(order, price, quote.Time)
	}
}

func (v *SimVenue) triggered(order types.OrderIntent, quote types.QuoteTick) bool {
	switch order.Kind {
	case types.OrderKindStopMarket:
		if order.Side == types.SideSell {
			return quote.Bid <= order.TriggerPrice
		}

		return quote.Ask >= order.TriggerPrice
	case types.OrderKindLimit:
		if order.Side == types.SideSell {
			return quote.Bid >= order.LimitPrice
		}

		return quote.Ask <= order.LimitPrice
	default:
		return false
	}
}

func (v *SimVenue) recordTrade(intent types.OrderIntent, price float64, quantity float64, executedAt time.Time, pnl decimal.Decimal) {
	v.trades = append(v.trades, types.Trade{
		Order:         intent,
		ExecutedAt:    executedAt,
		ExecutedQty:   quantity,
		ExecutedPrice: price,
		PnL:           pnl,
	})
}

func (v *SimVenue) emit(event types.PositionEvent) {
	if v.handler == nil {
		return
	}

	if err := v.handler.OnPositionEvent(event); err != nil {
		v.log.Error("position event handler failed", zap.Error(err))

		if v.callbackErr == nil {
			v.callbackErr = errors.Wrap(errors.ErrCodeStrategyCallback, "position event handler failed", err)
		}
	}
}

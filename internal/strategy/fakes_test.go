package strategy

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/shopspring/decimal"
)

// stubSource is a scripted indicator source. Tests set value and warm
// directly between ticks instead of feeding real prices.
type stubSource struct {
	value   float64
	warm    bool
	updates int
}

func (s *stubSource) Update(price float64) { s.updates++ }
func (s *stubSource) Value() float64       { return s.value }
func (s *stubSource) Initialized() bool    { return s.warm }

type recordedOrder struct {
	side  types.Side
	kind  types.OrderKind
	qty   float64
	price float64
}

// fakeExec records every order a strategy submits and keeps a netting book of
// at most one position. Fills and closes are confirmed synchronously: the
// attached handler's position events fire before the submit call returns,
// matching the execution contract the strategies rely on.
type fakeExec struct {
	handler interface {
		OnPositionEvent(event types.PositionEvent) error
	}
	entryPrice  float64
	rejectEntry error
	markets     []recordedOrder
	stops       []recordedOrder
	limits      []recordedOrder
	cancelCalls int
	closedIDs   []string
	position    optional.Option[types.Position]
}

func newFakeExec(entryPrice float64) *fakeExec {
	return &fakeExec{
		entryPrice: entryPrice,
		position:   optional.None[types.Position](),
	}
}

func (f *fakeExec) SubmitMarketOrder(symbol string, side types.Side, quantity float64) error {
	if f.rejectEntry != nil {
		return f.rejectEntry
	}

	f.markets = append(f.markets, recordedOrder{side: side, kind: types.OrderKindMarket, qty: quantity, price: f.entryPrice})

	positionSide := types.PositionSideShort
	if side == types.SideBuy {
		positionSide = types.PositionSideLong
	}

	position := types.Position{
		ID:            uuid.New().String(),
		Symbol:        symbol,
		Side:          positionSide,
		Quantity:      quantity,
		AvgEntryPrice: f.entryPrice,
		OpenedAt:      time.Now(),
	}
	f.position = optional.Some(position)

	if f.handler != nil {
		_ = f.handler.OnPositionEvent(types.NewPositionOpened(position))
	}

	return nil
}

func (f *fakeExec) SubmitStopMarketOrder(symbol string, side types.Side, quantity float64, triggerPrice float64) error {
	f.stops = append(f.stops, recordedOrder{side: side, kind: types.OrderKindStopMarket, qty: quantity, price: triggerPrice})

	return nil
}

func (f *fakeExec) SubmitLimitOrder(symbol string, side types.Side, quantity float64, limitPrice float64) error {
	f.limits = append(f.limits, recordedOrder{side: side, kind: types.OrderKindLimit, qty: quantity, price: limitPrice})

	return nil
}

func (f *fakeExec) CancelAllOrders(symbol string) error {
	f.cancelCalls++

	return nil
}

func (f *fakeExec) ClosePosition(position types.Position) error {
	f.closedIDs = append(f.closedIDs, position.ID)
	f.position = optional.None[types.Position]()

	if f.handler != nil {
		_ = f.handler.OnPositionEvent(types.NewPositionClosed(position, decimal.Zero))
	}

	return nil
}

// closeExternally simulates a venue-side close, e.g. a protective order
// filling, by delivering the Closed event without a strategy request.
func (f *fakeExec) closeExternally(pnl decimal.Decimal) {
	position, err := f.position.Take()
	if err != nil {
		return
	}

	f.position = optional.None[types.Position]()

	if f.handler != nil {
		_ = f.handler.OnPositionEvent(types.NewPositionClosed(position, pnl))
	}
}

// fakeFeed records quote subscription calls.
type fakeFeed struct {
	subscribed   []string
	unsubscribed []string
}

func (f *fakeFeed) SubscribeQuotes(symbol string) error {
	f.subscribed = append(f.subscribed, symbol)

	return nil
}

func (f *fakeFeed) UnsubscribeQuotes(symbol string) error {
	f.unsubscribed = append(f.unsubscribed, symbol)

	return nil
}

func quoteAt(symbol string, bid float64, ask float64) types.QuoteTick {
	return types.QuoteTick{
		Time:   time.Now(),
		Symbol: symbol,
		Bid:    bid,
		Ask:    ask,
	}
}

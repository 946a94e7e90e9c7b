package backtest

import (
	"testing"
	"time"

	"github.com/rxtech-lab/macd-fx/internal/strategy"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// scriptedSource replaces the MACD pipeline with values the test sets
// directly between ticks.
type scriptedSource struct {
	value float64
	warm  bool
}

func (s *scriptedSource) Update(price float64) {}
func (s *scriptedSource) Value() float64       { return s.value }
func (s *scriptedSource) Initialized() bool    { return s.warm }

// BracketVenueTestSuite runs the bracket strategy against the simulated
// venue end to end, exercising the protective-pair lifecycle across quote
// updates rather than against recording fakes.
type BracketVenueTestSuite struct {
	suite.Suite
	venue   *SimVenue
	source  *scriptedSource
	bracket *strategy.MACDBracket
}

func TestBracketVenueSuite(t *testing.T) {
	suite.Run(t, new(BracketVenueTestSuite))
}

func (suite *BracketVenueTestSuite) SetupTest() {
	pair, err := types.DefaultFX("EUR/USD")
	suite.Require().NoError(err)

	suite.venue = NewSimVenue(pair, decimal.NewFromInt(100000), "USD", nil)
	suite.source = &scriptedSource{warm: true}

	config := strategy.MACDBracketConfig{
		Symbol:         "EUR/USD",
		FastPeriod:     12,
		SlowPeriod:     26,
		TradeSize:      1000,
		EntryThreshold: 0.00005,
		StopLossPips:   10,
		TakeProfitPips: 20,
	}

	suite.bracket, err = strategy.NewMACDBracket(config, pair, suite.source, suite.venue, suite.venue, nil)
	suite.Require().NoError(err)

	suite.venue.Attach(suite.bracket)
	suite.Require().NoError(suite.bracket.OnStart())
}

func (suite *BracketVenueTestSuite) tick(bid float64, ask float64, macd float64) {
	suite.source.value = macd

	quote := types.QuoteTick{Time: time.Now(), Symbol: "EUR/USD", Bid: bid, Ask: ask}
	suite.Require().NoError(suite.venue.UpdateQuote(quote))
	suite.Require().NoError(suite.bracket.OnQuoteTick(quote))
	suite.Require().NoError(suite.venue.CallbackErr())
}

func (suite *BracketVenueTestSuite) TestWideSpreadEntryKeepsProtectivePairIntact() {
	// A 21-pip spread puts the 10-pip stop of a fresh long through the bid
	// the moment it is submitted. Both protective legs must still be resting
	// after the entry tick so that when the stop fires, the close cancels
	// its sibling instead of leaving it working.
	suite.tick(1.1000, 1.1021, 0.00001)
	suite.True(suite.venue.Position().IsNone())

	suite.tick(1.1000, 1.1021, 0.0001)

	position, err := suite.venue.Position().Take()
	suite.Require().NoError(err)
	suite.Equal(types.PositionSideLong, position.Side)
	suite.InDelta(1.1021, position.AvgEntryPrice, 1e-9)
	suite.Len(suite.venue.PendingOrders(), 2, "stop and take-profit must both survive the entry tick")

	// The bid is still through the stop: the next quote fires it, and the
	// Closed event cancels the take-profit.
	suite.tick(1.1005, 1.1007, 0.00001)
	suite.True(suite.venue.Position().IsNone())
	suite.Empty(suite.venue.PendingOrders())

	trades := suite.venue.Trades()
	suite.Require().Len(trades, 2)
	suite.Equal(types.OrderReasonStopLoss, trades[1].Order.Reason)
	suite.InDelta(1.1011, trades[1].ExecutedPrice, 1e-9)

	// A rally through the old take-profit level must not open anything.
	suite.tick(1.1050, 1.1052, 0.00002)
	suite.True(suite.venue.Position().IsNone())
	suite.Empty(suite.venue.PendingOrders())
	suite.Len(suite.venue.Trades(), 2)
}

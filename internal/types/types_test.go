package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (suite *TypesTestSuite) TestDefaultFX() {
	pair, err := DefaultFX("EUR/USD")
	suite.Require().NoError(err)
	suite.Equal("EUR", pair.BaseCurrency)
	suite.Equal("USD", pair.QuoteCurrency)
	suite.Equal(0.0001, pair.PipValue)
	suite.Equal(5, pair.PricePrecision)
}

func (suite *TypesTestSuite) TestDefaultFXJPYQuoted() {
	pair, err := DefaultFX("USD/JPY")
	suite.Require().NoError(err)
	suite.Equal(0.01, pair.PipValue)
	suite.Equal(3, pair.PricePrecision)
}

func (suite *TypesTestSuite) TestDefaultFXRejectsBareSymbol() {
	_, err := DefaultFX("EURUSD")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInstrument))
}

func (suite *TypesTestSuite) TestRoundPrice() {
	pair, err := DefaultFX("EUR/USD")
	suite.Require().NoError(err)
	suite.InDelta(1.12345, pair.RoundPrice(1.123454), 1e-9)
	suite.InDelta(1.12346, pair.RoundPrice(1.123455), 1e-9)
}

func (suite *TypesTestSuite) TestQuoteMidAndValidation() {
	tick := QuoteTick{
		Time:   time.Now(),
		Symbol: "EUR/USD",
		Bid:    1.1000,
		Ask:    1.1002,
	}
	suite.NoError(tick.Validate())
	suite.InDelta(1.1001, tick.Mid(), 1e-9)

	crossed := tick
	crossed.Ask = 1.0998
	suite.Error(crossed.Validate())
}

func (suite *TypesTestSuite) TestPositionPnL() {
	long := Position{Side: PositionSideLong, Quantity: 1000, AvgEntryPrice: 1.1000}
	suite.True(long.PnL(1.1020).Equal(decimal.NewFromInt(2)))
	suite.True(long.PnL(1.0980).Equal(decimal.NewFromInt(-2)))

	short := Position{Side: PositionSideShort, Quantity: 1000, AvgEntryPrice: 1.1000}
	suite.True(short.PnL(1.0980).Equal(decimal.NewFromInt(2)))
	suite.True(short.PnL(1.1020).Equal(decimal.NewFromInt(-2)))
}

func (suite *TypesTestSuite) TestPositionSides() {
	suite.Equal(SideBuy, PositionSideLong.EntrySide())
	suite.Equal(SideSell, PositionSideLong.ExitSide())
	suite.Equal(SideSell, PositionSideShort.EntrySide())
	suite.Equal(SideBuy, PositionSideShort.ExitSide())
}

func (suite *TypesTestSuite) TestOrderIntentValidation() {
	intent := OrderIntent{
		ID:           uuid.New().String(),
		Symbol:       "EUR/USD",
		Side:         SideBuy,
		Kind:         OrderKindMarket,
		Quantity:     1000,
		Reason:       OrderReasonEntry,
		StrategyName: "macd_cross",
	}
	suite.NoError(intent.Validate())

	stop := intent
	stop.Kind = OrderKindStopMarket
	suite.Error(stop.Validate(), "stop order requires a trigger price")

	stop.TriggerPrice = 1.0990
	suite.NoError(stop.Validate())

	limit := intent
	limit.Kind = OrderKindLimit
	suite.Error(limit.Validate(), "limit order requires a limit price")

	limit.LimitPrice = 1.1020
	suite.NoError(limit.Validate())
}

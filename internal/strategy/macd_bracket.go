package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/macd-fx/internal/indicator"
	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"go.uber.org/zap"
)

// MACDBracketConfig configures the enhanced strategy. Protective price
// offsets are derived from pips, so the instrument's pip value decides the
// actual distance; see types.CurrencyPair.
type MACDBracketConfig struct {
	Symbol     string  `yaml:"symbol" validate:"required"`
	FastPeriod int     `yaml:"fast_period" validate:"required,gt=0,ltfield=SlowPeriod"`
	SlowPeriod int     `yaml:"slow_period" validate:"required,gt=0"`
	TradeSize  float64 `yaml:"trade_size" validate:"required,gt=0"`
	// EntryThreshold is the absolute MACD value beyond which an entry fires
	// even without a crossover.
	EntryThreshold float64 `yaml:"entry_threshold" validate:"required,gt=0"`
	// ExitThreshold is reserved for threshold-based exits; it is accepted and
	// validated but not used by the entry logic.
	ExitThreshold  float64 `yaml:"exit_threshold" validate:"gte=0"`
	StopLossPips   int     `yaml:"stop_loss_pips" validate:"required,gt=0"`
	TakeProfitPips int     `yaml:"take_profit_pips" validate:"required,gt=0"`
}

// Validate validates the config.
func (c *MACDBracketConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid macd bracket config", err)
	}

	return nil
}

// bracketState is the complete mutable state of the bracket strategy.
type bracketState struct {
	// sign is the recorded sign of the MACD value at the last reading:
	// +1, -1, or 0 when no reading has been recorded yet.
	sign     int
	position optional.Option[types.Position]
}

// MACDBracket is the enhanced MACD strategy: it enters on zero-line
// crossovers or, failing that, on the MACD value exceeding an absolute
// threshold, and protects every open position with a stop-loss and a
// take-profit order. Entries are strictly flat-to-position; the strategy
// never adds to or flips an open position.
type MACDBracket struct {
	config MACDBracketConfig
	pair   types.CurrencyPair
	macd   indicator.Source
	exec   ExecutionClient
	feed   QuoteFeed
	log    *logger.Logger
	state  bracketState
}

// NewMACDBracket creates the bracket strategy for the given instrument.
func NewMACDBracket(config MACDBracketConfig, pair types.CurrencyPair, macd indicator.Source, exec ExecutionClient, feed QuoteFeed, log *logger.Logger) (*MACDBracket, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := pair.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &MACDBracket{
		config: config,
		pair:   pair,
		macd:   macd,
		exec:   exec,
		feed:   feed,
		log:    log,
		state:  bracketState{sign: 0, position: optional.None[types.Position]()},
	}, nil
}

// Name implements Strategy.
func (s *MACDBracket) Name() string {
	return "macd_bracket"
}

// OnStart implements Strategy.
func (s *MACDBracket) OnStart() error {
	return s.feed.SubscribeQuotes(s.config.Symbol)
}

// OnStop implements Strategy. Working protective orders are cancelled and
// any open position flattened before the subscription is released.
func (s *MACDBracket) OnStop() error {
	if err := s.exec.CancelAllOrders(s.config.Symbol); err != nil {
		s.log.Warn("failed to cancel orders on stop", zap.Error(err))
	}

	if position, err := s.state.position.Take(); err == nil {
		if closeErr := s.exec.ClosePosition(position); closeErr != nil {
			s.log.Warn("failed to close position on stop", zap.Error(closeErr))
		}
	}

	return s.feed.UnsubscribeQuotes(s.config.Symbol)
}

// OnQuoteTick implements Strategy. Crossover entries take priority over
// threshold entries; the recorded sign is updated on every initialized call,
// whether or not an entry fired.
func (s *MACDBracket) OnQuoteTick(tick types.QuoteTick) error {
	if tick.Symbol != s.config.Symbol {
		return nil
	}

	s.macd.Update(tick.Mid())

	if !s.macd.Initialized() {
		return nil
	}

	value := s.macd.Value()

	sign := -1
	if value > 0 {
		sign = 1
	}

	if s.state.position.IsSome() {
		// Entries are strictly flat-to-position.
		s.state.sign = sign

		return nil
	}

	crossed := s.state.sign != 0 && s.state.sign != sign

	switch {
	case crossed && sign > 0:
		s.goLong(tick, value)
	case crossed:
		s.goShort(tick, value)
	case value > s.config.EntryThreshold:
		s.goLong(tick, value)
	case value < -s.config.EntryThreshold:
		s.goShort(tick, value)
	}

	s.state.sign = sign

	return nil
}

// OnPositionEvent implements Strategy. An opened position immediately gets
// its protective pair; a closed position cancels whichever protective order
// is still working and re-enables entries.
func (s *MACDBracket) OnPositionEvent(event types.PositionEvent) error {
	switch event.Kind {
	case types.PositionEventOpened:
		s.state.position = optional.Some(event.Position)
		s.log.Info("position opened",
			zap.String("side", string(event.Position.Side)),
			zap.Float64("avg_entry_price", event.Position.AvgEntryPrice),
		)
		s.placeProtectiveOrders(event.Position)
	case types.PositionEventClosed:
		if s.state.position.IsSome() && s.state.position.Unwrap().ID == event.Position.ID {
			s.log.Info("position closed",
				zap.String("realized_pnl", event.RealizedPnL.String()),
			)
			s.state.position = optional.None[types.Position]()

			if err := s.exec.CancelAllOrders(s.config.Symbol); err != nil {
				s.log.Warn("failed to cancel protective orders", zap.Error(err))
			}
		}
	}

	return nil
}

func (s *MACDBracket) goLong(tick types.QuoteTick, value float64) {
	if s.state.position.IsSome() {
		return
	}

	if err := s.exec.SubmitMarketOrder(s.config.Symbol, types.SideBuy, s.config.TradeSize); err != nil {
		s.log.Warn("long entry rejected", zap.Error(err))

		return
	}

	s.log.Info("going long",
		zap.Float64("ask", tick.Ask),
		zap.Float64("macd", value),
	)
}

func (s *MACDBracket) goShort(tick types.QuoteTick, value float64) {
	if s.state.position.IsSome() {
		return
	}

	if err := s.exec.SubmitMarketOrder(s.config.Symbol, types.SideSell, s.config.TradeSize); err != nil {
		s.log.Warn("short entry rejected", zap.Error(err))

		return
	}

	s.log.Info("going short",
		zap.Float64("bid", tick.Bid),
		zap.Float64("macd", value),
	)
}

// placeProtectiveOrders submits the stop-loss and take-profit pair for a
// freshly opened position: the stop on the losing side of the entry price,
// the limit on the profit side, sides mirrored for long and short.
func (s *MACDBracket) placeProtectiveOrders(position types.Position) {
	stopOffset := float64(s.config.StopLossPips) * s.pair.PipValue
	targetOffset := float64(s.config.TakeProfitPips) * s.pair.PipValue

	var stopPrice, targetPrice float64

	if position.Side == types.PositionSideLong {
		stopPrice = position.AvgEntryPrice - stopOffset
		targetPrice = position.AvgEntryPrice + targetOffset
	} else {
		stopPrice = position.AvgEntryPrice + stopOffset
		targetPrice = position.AvgEntryPrice - targetOffset
	}

	stopPrice = s.pair.RoundPrice(stopPrice)
	targetPrice = s.pair.RoundPrice(targetPrice)
	exitSide := position.Side.ExitSide()

	if err := s.exec.SubmitStopMarketOrder(s.config.Symbol, exitSide, position.Quantity, stopPrice); err != nil {
		s.log.Warn("stop-loss order rejected", zap.Error(err))
	}

	if err := s.exec.SubmitLimitOrder(s.config.Symbol, exitSide, position.Quantity, targetPrice); err != nil {
		s.log.Warn("take-profit order rejected", zap.Error(err))
	}

	s.log.Info("placed protective orders",
		zap.String("side", string(position.Side)),
		zap.Float64("stop", stopPrice),
		zap.Float64("target", targetPrice),
	)
}

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

// MACDCrossConfig configures the zero-line crossover strategy.
type MACDCrossConfig struct {
	Symbol     string  `yaml:"symbol" validate:"required"`
	FastPeriod int     `yaml:"fast_period" validate:"required,gt=0,ltfield=SlowPeriod"`
	SlowPeriod int     `yaml:"slow_period" validate:"required,gt=0"`
	TradeSize  float64 `yaml:"trade_size" validate:"required,gt=0"`
}

// Validate validates the config. Configuration errors are reported here,
// never discovered mid-run.
func (c *MACDCrossConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid macd cross config", err)
	}

	return nil
}

// zone records which side of the zero line the MACD value was on at the last
// reading. zoneNone means no initialized reading has been recorded yet.
type zone int

const (
	zoneNone zone = iota
	zoneAboveZero
	zoneBelowZero
)

func zoneOf(value float64) zone {
	if value > 0 {
		return zoneAboveZero
	}

	return zoneBelowZero
}

// crossState is the complete mutable state of the crossover strategy. It is
// swapped only from the strategy's own entry points.
type crossState struct {
	zone     zone
	position optional.Option[types.Position]
}

// MACDCross trades zero-line crossovers of the MACD line: close any opposing
// position and go with the new sign, holding at most one position at a time.
// The first initialized reading only records the zone; a crossover needs a
// prior reading to compare against.
type MACDCross struct {
	config MACDCrossConfig
	macd   indicator.Source
	exec   ExecutionClient
	feed   QuoteFeed
	log    *logger.Logger
	state  crossState
}

// NewMACDCross creates the crossover strategy. The MACD source is injected so
// the indicator math stays external to the decision logic.
func NewMACDCross(config MACDCrossConfig, macd indicator.Source, exec ExecutionClient, feed QuoteFeed, log *logger.Logger) (*MACDCross, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &MACDCross{
		config: config,
		macd:   macd,
		exec:   exec,
		feed:   feed,
		log:    log,
		state:  crossState{zone: zoneNone, position: optional.None[types.Position]()},
	}, nil
}

// Name implements Strategy.
func (s *MACDCross) Name() string {
	return "macd_cross"
}

// OnStart implements Strategy.
func (s *MACDCross) OnStart() error {
	return s.feed.SubscribeQuotes(s.config.Symbol)
}

// OnStop implements Strategy. Any open position is flattened before the
// subscription is released.
func (s *MACDCross) OnStop() error {
	if position, err := s.state.position.Take(); err == nil {
		if closeErr := s.exec.ClosePosition(position); closeErr != nil {
			s.log.Warn("failed to close position on stop", zap.Error(closeErr))
		}
	}

	return s.feed.UnsubscribeQuotes(s.config.Symbol)
}

// OnQuoteTick implements Strategy.
func (s *MACDCross) OnQuoteTick(tick types.QuoteTick) error {
	if tick.Symbol != s.config.Symbol {
		return nil
	}

	s.macd.Update(tick.Mid())

	if !s.macd.Initialized() {
		return nil // wait for the indicator to warm up
	}

	value := s.macd.Value()
	current := zoneOf(value)

	if s.state.zone == zoneNone {
		// First initialized reading: record it, a crossover needs a prior
		// reading to compare against.
		s.state.zone = current

		return nil
	}

	if current != s.state.zone {
		if current == zoneAboveZero {
			s.goLong(value)
		} else {
			s.goShort(value)
		}
	}

	// The recorded zone is updated whether or not a crossover fired.
	s.state.zone = current

	return nil
}

// OnPositionEvent implements Strategy.
func (s *MACDCross) OnPositionEvent(event types.PositionEvent) error {
	switch event.Kind {
	case types.PositionEventOpened:
		s.state.position = optional.Some(event.Position)
		s.log.Info("position opened",
			zap.String("side", string(event.Position.Side)),
			zap.Float64("avg_entry_price", event.Position.AvgEntryPrice),
		)
	case types.PositionEventClosed:
		if s.state.position.IsSome() && s.state.position.Unwrap().ID == event.Position.ID {
			s.log.Info("position closed",
				zap.String("realized_pnl", event.RealizedPnL.String()),
			)
			s.state.position = optional.None[types.Position]()
		}
	}

	return nil
}

func (s *MACDCross) goLong(value float64) {
	if s.isLong() {
		return
	}

	if s.isShort() {
		s.closeCurrentPosition()
	}

	// The entry is gated on being flat. The close above is submitted as a
	// separate order, so this gate relies on the execution layer confirming
	// the close synchronously (delivering the Closed event before
	// ClosePosition returns); with deferred confirmation the gate would
	// observe the stale position and skip the re-entry.
	if s.state.position.IsSome() {
		return
	}

	if err := s.exec.SubmitMarketOrder(s.config.Symbol, types.SideBuy, s.config.TradeSize); err != nil {
		s.log.Warn("long entry rejected", zap.Error(err))

		return
	}

	s.log.Info("going long, MACD crossed above zero", zap.Float64("macd", value))
}

func (s *MACDCross) goShort(value float64) {
	if s.isShort() {
		return
	}

	if s.isLong() {
		s.closeCurrentPosition()
	}

	if s.state.position.IsSome() {
		return
	}

	if err := s.exec.SubmitMarketOrder(s.config.Symbol, types.SideSell, s.config.TradeSize); err != nil {
		s.log.Warn("short entry rejected", zap.Error(err))

		return
	}

	s.log.Info("going short, MACD crossed below zero", zap.Float64("macd", value))
}

func (s *MACDCross) closeCurrentPosition() {
	position, err := s.state.position.Take()
	if err != nil {
		return
	}

	if closeErr := s.exec.ClosePosition(position); closeErr != nil {
		s.log.Warn("failed to close opposing position", zap.Error(closeErr))
	}
}

func (s *MACDCross) isLong() bool {
	return s.state.position.IsSome() && s.state.position.Unwrap().Side == types.PositionSideLong
}

func (s *MACDCross) isShort() bool {
	return s.state.position.IsSome() && s.state.position.Unwrap().Side == types.PositionSideShort
}

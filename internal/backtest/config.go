package backtest

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/macd-fx/internal/catalog"
	"github.com/rxtech-lab/macd-fx/internal/indicator"
	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/rxtech-lab/macd-fx/internal/strategy"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// StrategyConfig selects and parameterizes the strategy for a run. The
// bracket fields are required only when the bracket strategy is selected.
type StrategyConfig struct {
	Kind           string  `yaml:"kind" validate:"required,oneof=macd_cross macd_bracket"`
	FastPeriod     int     `yaml:"fast_period" validate:"required,gt=0,ltfield=SlowPeriod"`
	SlowPeriod     int     `yaml:"slow_period" validate:"required,gt=0"`
	TradeSize      float64 `yaml:"trade_size" validate:"required,gt=0"`
	EntryThreshold float64 `yaml:"entry_threshold" validate:"required_if=Kind macd_bracket"`
	ExitThreshold  float64 `yaml:"exit_threshold" validate:"gte=0"`
	StopLossPips   int     `yaml:"stop_loss_pips" validate:"required_if=Kind macd_bracket"`
	TakeProfitPips int     `yaml:"take_profit_pips" validate:"required_if=Kind macd_bracket"`
}

// Config is the YAML configuration of a backtest run.
type Config struct {
	CatalogPath     string         `yaml:"catalog_path" validate:"required"`
	Symbol          string         `yaml:"symbol" validate:"required"`
	StartTime       *time.Time     `yaml:"start_time"`
	EndTime         *time.Time     `yaml:"end_time"`
	StartingBalance float64        `yaml:"starting_balance" validate:"required,gt=0"`
	Currency        string         `yaml:"currency" validate:"required,len=3"`
	ResultsFolder   string         `yaml:"results_folder"`
	LogLevel        string         `yaml:"log_level"`
	Strategy        StrategyConfig `yaml:"strategy" validate:"required"`
}

// ParseConfig parses and validates a YAML backtest configuration.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	return &config, nil
}

// LoadConfig reads and parses a YAML backtest configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return ParseConfig(data)
}

// TimeRange returns the configured replay window as options.
func (c *Config) TimeRange() (optional.Option[time.Time], optional.Option[time.Time]) {
	start := optional.None[time.Time]()
	if c.StartTime != nil {
		start = optional.Some(*c.StartTime)
	}

	end := optional.None[time.Time]()
	if c.EndTime != nil {
		end = optional.Some(*c.EndTime)
	}

	return start, end
}

// NewEngineFromConfig opens the catalog, builds the configured strategy and
// venue, and wires them into an engine. The returned cleanup releases the
// quote source and must be called after the run.
func NewEngineFromConfig(config *Config, log *logger.Logger) (*Engine, func() error, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	cat, err := catalog.Open(config.CatalogPath, log)
	if err != nil {
		return nil, nil, err
	}

	pair, err := cat.Instrument(config.Symbol)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeInstrumentNotFound) {
			return nil, nil, err
		}

		// Catalogs written before instrument definitions were recorded only
		// hold quote files; fall back to the standard FX definition.
		pair, err = types.DefaultFX(config.Symbol)
		if err != nil {
			return nil, nil, err
		}
	}

	source, err := cat.QuoteSource(config.Symbol)
	if err != nil {
		return nil, nil, err
	}

	macd, err := indicator.NewMACD(config.Strategy.FastPeriod, config.Strategy.SlowPeriod)
	if err != nil {
		source.Close()

		return nil, nil, err
	}

	venue := NewSimVenue(pair, decimal.NewFromFloat(config.StartingBalance), config.Currency, log)

	s, err := buildStrategy(config, pair, macd, venue, log)
	if err != nil {
		macd.Close()
		source.Close()

		return nil, nil, err
	}

	engine := NewEngine(source, venue, s, log)
	engine.SetTimeRange(config.TimeRange())

	cleanup := func() error {
		macd.Close()

		return source.Close()
	}

	return engine, cleanup, nil
}

func buildStrategy(config *Config, pair types.CurrencyPair, macd indicator.Source, venue *SimVenue, log *logger.Logger) (strategy.Strategy, error) {
	switch config.Strategy.Kind {
	case "macd_cross":
		return strategy.NewMACDCross(strategy.MACDCrossConfig{
			Symbol:     config.Symbol,
			FastPeriod: config.Strategy.FastPeriod,
			SlowPeriod: config.Strategy.SlowPeriod,
			TradeSize:  config.Strategy.TradeSize,
		}, macd, venue, venue, log)
	case "macd_bracket":
		return strategy.NewMACDBracket(strategy.MACDBracketConfig{
			Symbol:         config.Symbol,
			FastPeriod:     config.Strategy.FastPeriod,
			SlowPeriod:     config.Strategy.SlowPeriod,
			TradeSize:      config.Strategy.TradeSize,
			EntryThreshold: config.Strategy.EntryThreshold,
			ExitThreshold:  config.Strategy.ExitThreshold,
			StopLossPips:   config.Strategy.StopLossPips,
			TakeProfitPips: config.Strategy.TakeProfitPips,
		}, pair, macd, venue, venue, log)
	default:
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "unknown strategy kind %s", config.Strategy.Kind)
	}
}

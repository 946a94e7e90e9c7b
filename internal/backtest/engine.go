// Package backtest replays catalog quote histories through a strategy
// against a simulated venue and reports the resulting trades and account
// state.
package backtest

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/macd-fx/internal/catalog"
	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/rxtech-lab/macd-fx/internal/strategy"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"go.uber.org/zap"
)

// OnTickProgress reports replay progress. total is -1 when the source cannot
// count its ticks up front.
type OnTickProgress func(current int, total int)

// Engine replays a quote history through a strategy against a simulated
// venue.
type Engine struct {
	source   catalog.QuoteSource
	venue    *SimVenue
	strategy strategy.Strategy
	start    optional.Option[time.Time]
	end      optional.Option[time.Time]
	log      *logger.Logger
	progress optional.Option[OnTickProgress]
}

// NewEngine wires a quote source, venue, and strategy into a runnable
// backtest. The strategy is attached to the venue so position events flow
// back into its callbacks.
func NewEngine(source catalog.QuoteSource, venue *SimVenue, s strategy.Strategy, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	venue.Attach(s)

	return &Engine{
		source:   source,
		venue:    venue,
		strategy: s,
		start:    optional.None[time.Time](),
		end:      optional.None[time.Time](),
		log:      log,
		progress: optional.None[OnTickProgress](),
	}
}

// SetTimeRange restricts the replay to ticks within [start, end].
func (e *Engine) SetTimeRange(start optional.Option[time.Time], end optional.Option[time.Time]) {
	e.start = start
	e.end = end
}

// SetProgressCallback registers a callback invoked once per replayed tick.
func (e *Engine) SetProgressCallback(callback OnTickProgress) {
	e.progress = optional.Some(callback)
}

// Run replays the quote history tick by tick. The venue sees each quote
// before the strategy so orders triggered by the quote fill at it.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	total := -1
	if count, err := e.source.Count(e.start, e.end); err == nil {
		total = count
	}

	e.log.Info("starting backtest",
		zap.String("strategy", e.strategy.Name()),
		zap.Int("ticks", total),
	)

	startingBalance := e.venue.Account().Balance

	if err := e.strategy.OnStart(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyCallback, "strategy start failed", err)
	}

	current := 0

	var runErr error

	for tick, err := range e.source.ReadAll(e.start, e.end) {
		if err != nil {
			runErr = err

			break
		}

		if ctx.Err() != nil {
			runErr = ctx.Err()

			break
		}

		if err := e.venue.UpdateQuote(tick); err != nil {
			runErr = err

			break
		}

		if err := e.venue.CallbackErr(); err != nil {
			runErr = err

			break
		}

		if err := e.strategy.OnQuoteTick(tick); err != nil {
			runErr = errors.Wrap(errors.ErrCodeStrategyCallback, "strategy tick failed", err)

			break
		}

		if err := e.venue.CallbackErr(); err != nil {
			runErr = err

			break
		}

		current++

		if e.progress.IsSome() {
			e.progress.Unwrap()(current, total)
		}
	}

	if err := e.strategy.OnStop(); err != nil && runErr == nil {
		runErr = errors.Wrap(errors.ErrCodeStrategyCallback, "strategy stop failed", err)
	}

	if runErr != nil {
		return nil, runErr
	}

	result := NewResult(e.strategy.Name(), startingBalance, e.venue)
	e.log.Info("backtest finished",
		zap.Int("trades", result.TradeCount),
		zap.Float64("realized_pnl", result.RealizedPnL),
		zap.Float64("final_balance", result.FinalBalance),
	)

	return result, nil
}

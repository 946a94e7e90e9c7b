package indicator

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
)

// MACD exposes the MACD line (fast EMA minus slow EMA) as an incrementally
// updated value. The warm-up period is the slow period: Initialized reports
// false until max(fast, slow) observations have been pushed, and strategies
// must not act before that.
//
// The line is derived from the library's two EMAs directly rather than its
// Macd type, whose idle period also covers the signal EMA the strategies
// never read.
type MACD struct {
	fastPeriod int
	slowPeriod int
	in         chan<- float64
	out        <-chan float64
	idle       int
	count      int
	value      float64
	closed     bool
}

// NewMACD creates a MACD line source with the given periods. The fast period
// must be strictly below the slow period; both must be positive.
func NewMACD(fastPeriod, slowPeriod int) (*MACD, error) {
	if fastPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "fast period must be a positive integer, got %d", fastPeriod)
	}

	if slowPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "slow period must be a positive integer, got %d", slowPeriod)
	}

	if fastPeriod >= slowPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "fast period (%d) must be below slow period (%d)", fastPeriod, slowPeriod)
	}

	fastEma := trend.NewEmaWithPeriod[float64](fastPeriod)
	slowEma := trend.NewEmaWithPeriod[float64](slowPeriod)

	in := make(chan float64)
	inputs := helper.Duplicate[float64](in, 2)

	fastLine := fastEma.Compute(inputs[0])
	slowLine := slowEma.Compute(inputs[1])

	// The fast EMA starts emitting before the slow one; drop the surplus so
	// the two lines subtract observation for observation.
	fastLine = helper.Skip(fastLine, slowEma.IdlePeriod()-fastEma.IdlePeriod())

	return &MACD{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		in:         in,
		out:        helper.Subtract(fastLine, slowLine),
		idle:       slowEma.IdlePeriod(),
		count:      0,
		value:      0,
		closed:     false,
	}, nil
}

// Update implements Source. Each observation is pushed through the library
// pipeline in lockstep: once the idle period has elapsed, every input yields
// exactly one output.
func (m *MACD) Update(price float64) {
	if m.closed {
		return
	}

	m.in <- price
	m.count++

	if m.count > m.idle {
		m.value = <-m.out
	}
}

// Value implements Source.
func (m *MACD) Value() float64 {
	return m.value
}

// Initialized implements Source.
func (m *MACD) Initialized() bool {
	return m.count > m.idle
}

// FastPeriod returns the configured fast period.
func (m *MACD) FastPeriod() int {
	return m.fastPeriod
}

// SlowPeriod returns the configured slow period.
func (m *MACD) SlowPeriod() int {
	return m.slowPeriod
}

// Close shuts down the underlying pipeline. Update becomes a no-op afterwards.
func (m *MACD) Close() {
	if m.closed {
		return
	}

	m.closed = true
	close(m.in)

	for range m.out {
	}
}

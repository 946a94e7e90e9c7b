package catalog

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/macd-fx/internal/types"
)

// MemoryQuoteSource serves quote ticks from a preloaded slice. Used in tests
// and synthetic runs where no catalog file exists.
type MemoryQuoteSource struct {
	ticks []types.QuoteTick
}

// NewMemoryQuoteSource creates a source over the given ticks, sorted into
// timestamp order.
func NewMemoryQuoteSource(ticks []types.QuoteTick) *MemoryQuoteSource {
	sorted := make([]types.QuoteTick, len(ticks))
	copy(sorted, ticks)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return &MemoryQuoteSource{ticks: sorted}
}

// ReadAll implements QuoteSource.
func (m *MemoryQuoteSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.QuoteTick, error) bool) {
	return func(yield func(types.QuoteTick, error) bool) {
		for _, tick := range m.ticks {
			if !inRange(tick.Time, start, end) {
				continue
			}

			if !yield(tick, nil) {
				return
			}
		}
	}
}

// Count implements QuoteSource.
func (m *MemoryQuoteSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, tick := range m.ticks {
		if inRange(tick.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements QuoteSource.
func (m *MemoryQuoteSource) Close() error {
	return nil
}

func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}

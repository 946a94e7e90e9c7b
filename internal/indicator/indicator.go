// Package indicator adapts streaming indicator math from
// github.com/cinar/indicator/v2 to the incremental update interface the
// strategies consume. The numeric computation itself lives in the library.
package indicator

// Source is the narrow indicator surface a strategy queries on each price
// update: push a price in, read the current value and whether enough history
// has accumulated for the value to be meaningful.
type Source interface {
	// Update feeds the next observation to the indicator.
	Update(price float64)
	// Value returns the most recent indicator value. Only meaningful once
	// Initialized reports true.
	Value() float64
	// Initialized reports whether the warm-up period has elapsed.
	Initialized() bool
}

// Package catalog stores quote tick history as Parquet files under a catalog
// directory, one subdirectory per instrument, with the instrument definitions
// kept in instruments.yaml. DuckDB owns the columnar storage and query layer;
// this package only stages inserts and builds queries.
package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"gopkg.in/yaml.v3"
)

const instrumentsFile = "instruments.yaml"

// QuoteSource yields quote ticks in timestamp order. The ReadAll iterator
// matches the range-over-func form so the engine can stream without loading
// the full history.
type QuoteSource interface {
	// ReadAll reads all ticks in the optional time range, in timestamp order.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.QuoteTick, error) bool)
	// Count returns the number of ticks in the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources held by the source.
	Close() error
}

// Catalog is a directory of instrument definitions and per-instrument quote
// Parquet files.
type Catalog struct {
	dir string
	log *logger.Logger
}

// Open opens (creating if necessary) a catalog directory.
func Open(dir string, log *logger.Logger) (*Catalog, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCatalogOpenFailed, err, "failed to open catalog at %s", dir)
	}

	return &Catalog{dir: dir, log: log}, nil
}

// Dir returns the catalog root directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// QuotesPath returns the Parquet file path for an instrument's quotes.
func (c *Catalog) QuotesPath(symbol string) string {
	return filepath.Join(c.dir, sanitizeSymbol(symbol), "quotes.parquet")
}

// Instruments returns all instrument definitions in the catalog.
func (c *Catalog) Instruments() ([]types.CurrencyPair, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, instrumentsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to read instruments file", err)
	}

	var pairs []types.CurrencyPair
	if err := yaml.Unmarshal(data, &pairs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to parse instruments file", err)
	}

	return pairs, nil
}

// Instrument looks up a single instrument definition by symbol.
func (c *Catalog) Instrument(symbol string) (types.CurrencyPair, error) {
	pairs, err := c.Instruments()
	if err != nil {
		return types.CurrencyPair{}, err
	}

	for _, pair := range pairs {
		if pair.Symbol == symbol {
			return pair, nil
		}
	}

	return types.CurrencyPair{}, errors.Newf(errors.ErrCodeInstrumentNotFound, "instrument %s not found in catalog", symbol)
}

// WriteInstrument adds or replaces an instrument definition.
func (c *Catalog) WriteInstrument(pair types.CurrencyPair) error {
	if err := pair.Validate(); err != nil {
		return err
	}

	pairs, err := c.Instruments()
	if err != nil {
		return err
	}

	replaced := false

	for i, existing := range pairs {
		if existing.Symbol == pair.Symbol {
			pairs[i] = pair
			replaced = true

			break
		}
	}

	if !replaced {
		pairs = append(pairs, pair)
	}

	data, err := yaml.Marshal(pairs)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to encode instruments", err)
	}

	return os.WriteFile(filepath.Join(c.dir, instrumentsFile), data, 0o644)
}

// QuoteSource opens a streaming source over an instrument's quote file.
// The caller owns the returned source and must close it.
func (c *Catalog) QuoteSource(symbol string) (QuoteSource, error) {
	path := c.QuotesPath(symbol)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeNoQuoteData, err, "no quote data for %s in catalog", symbol)
	}

	return NewDuckDBQuoteSource(path, symbol, c.log)
}

func sanitizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), "/", "")
}

package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"go.uber.org/zap"
)

// readBatchSize bounds how many rows a single ReadAll query pulls in.
const readBatchSize = 10000

// DuckDBQuoteSource reads quote ticks from a Parquet file through a DuckDB
// view, streaming in batches so arbitrarily large tick histories stay out of
// memory.
type DuckDBQuoteSource struct {
	db     *sql.DB
	symbol string
	log    *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBQuoteSource opens an in-memory DuckDB instance with a view over
// the given Parquet file.
func NewDuckDBQuoteSource(parquetPath string, symbol string, log *logger.Logger) (*DuckDBQuoteSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to open duckdb", err)
	}

	// Squirrel doesn't support CREATE VIEW, use raw SQL.
	query := fmt.Sprintf(`CREATE VIEW quote_ticks AS SELECT * FROM read_parquet('%s');`, parquetPath)

	if _, err := db.Exec(query); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeCatalogOpenFailed, err, "failed to create view over %s", parquetPath)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBQuoteSource{
		db:     db,
		symbol: symbol,
		log:    log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// ReadAll implements QuoteSource with batch processing.
func (d *DuckDBQuoteSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.QuoteTick, error) bool) {
	return func(yield func(types.QuoteTick, error) bool) {
		d.log.Debug("reading quotes from duckdb",
			zap.String("symbol", d.symbol),
		)

		offset := 0

		for {
			builder := d.selectQuotes(start, end).
				OrderBy("time ASC").
				Limit(uint64(readBatchSize)).
				Offset(uint64(offset))

			query, args, err := builder.ToSql()
			if err != nil {
				yield(types.QuoteTick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build quote query", err))

				return
			}

			rows, err := d.db.Query(query, args...)
			if err != nil {
				yield(types.QuoteTick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query quotes", err))

				return
			}

			read := 0

			for rows.Next() {
				tick, err := scanQuote(rows)
				if err != nil {
					rows.Close()
					yield(types.QuoteTick{}, err)

					return
				}

				read++

				if !yield(tick, nil) {
					rows.Close()

					return
				}
			}

			if err := rows.Err(); err != nil {
				rows.Close()
				yield(types.QuoteTick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate quotes", err))

				return
			}

			rows.Close()

			if read < readBatchSize {
				return
			}

			offset += read
		}
	}
}

// Count implements QuoteSource.
func (d *DuckDBQuoteSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("quote_ticks")
	builder = applyRange(builder, start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count quotes", err)
	}

	return count, nil
}

// GetRange reads all ticks between start and end inclusive.
func (d *DuckDBQuoteSource) GetRange(start time.Time, end time.Time) ([]types.QuoteTick, error) {
	builder := d.selectQuotes(optional.Some(start), optional.Some(end)).OrderBy("time ASC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build range query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query range", err)
	}
	defer rows.Close()

	var ticks []types.QuoteTick

	for rows.Next() {
		tick, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}

		ticks = append(ticks, tick)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate range", err)
	}

	return ticks, nil
}

// Close implements QuoteSource.
func (d *DuckDBQuoteSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBQuoteSource) selectQuotes(start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	builder := d.sq.
		Select("time", "symbol", "bid", "ask", "bid_size", "ask_size").
		From("quote_ticks")

	return applyRange(builder, start, end)
}

func applyRange(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return builder
}

func scanQuote(rows *sql.Rows) (types.QuoteTick, error) {
	var tick types.QuoteTick
	if err := rows.Scan(&tick.Time, &tick.Symbol, &tick.Bid, &tick.Ask, &tick.BidSize, &tick.AskSize); err != nil {
		return types.QuoteTick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan quote row", err)
	}

	return tick, nil
}

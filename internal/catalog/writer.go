package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
)

// QuoteWriter persists a stream of quote ticks to a destination.
type QuoteWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single quote tick.
	Write(tick types.QuoteTick) error
	// Finalize completes the writing process and returns the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// DuckDBQuoteWriter stages ticks in an in-memory DuckDB table and exports
// them to a Parquet file on Finalize.
type DuckDBQuoteWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
}

// NewQuoteWriter creates a writer that exports to the given Parquet path.
func NewQuoteWriter(outputPath string) QuoteWriter {
	return &DuckDBQuoteWriter{outputPath: outputPath}
}

// Initialize implements QuoteWriter. It opens the connection, creates the
// staging table, begins a transaction, and prepares the insert statement.
func (w *DuckDBQuoteWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to open duckdb connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS quote_ticks (
			id TEXT,
			time TIMESTAMP,
			symbol TEXT,
			bid DOUBLE,
			ask DOUBLE,
			bid_size DOUBLE,
			ask_size DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to create staging table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO quote_ticks (id, time, symbol, bid, ask, bid_size, ask_size)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to prepare insert", err)
	}

	return nil
}

// Write implements QuoteWriter.
func (w *DuckDBQuoteWriter) Write(tick types.QuoteTick) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeWriterNotReady, "writer not initialized")
	}

	_, err := w.stmt.Exec(
		uuid.New().String(),
		tick.Time,
		tick.Symbol,
		tick.Bid,
		tick.Ask,
		tick.BidSize,
		tick.AskSize,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert quote", err)
	}

	return nil
}

// Finalize implements QuoteWriter. It commits the staged rows and exports
// them to Parquet, ordered by timestamp.
func (w *DuckDBQuoteWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeWriterNotReady, "writer not initialized or already finalized")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit staged quotes", err)
	}

	w.tx = nil
	w.stmt = nil

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeCatalogOpenFailed, "failed to create output directory", err)
	}

	query := fmt.Sprintf(`COPY (SELECT * FROM quote_ticks ORDER BY time) TO '%s' (FORMAT PARQUET)`, w.outputPath)
	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to export parquet", err)
	}

	return w.outputPath, nil
}

// Close implements QuoteWriter.
func (w *DuckDBQuoteWriter) Close() error {
	var firstErr error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil && firstErr == nil {
			firstErr = err
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		w.db = nil
	}

	return firstErr
}

// GetOutputPath implements QuoteWriter.
func (w *DuckDBQuoteWriter) GetOutputPath() string {
	return w.outputPath
}

// Package marketdata downloads quote tick history from external providers
// and stores it in a catalog as Parquet, alongside the instrument definition.
package marketdata

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/macd-fx/internal/catalog"
	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/rxtech-lab/macd-fx/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=histdata polygon binance"`
	CatalogPath   string                `validate:"required"`
	PolygonAPIKey string                `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a quote download request. Symbol is
// in BASE/QUOTE form, e.g. "EUR/USD".
type DownloadParams struct {
	Symbol    string    `validate:"required,contains=/"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtfield=StartDate"`
}

// Client downloads quote data from a provider and writes it into a catalog.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	log        *logger.Logger
	onProgress provider.OnDownloadProgress
}

// NewClient creates a market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	dataProvider, err := provider.NewProvider(config.ProviderType, config.PolygonAPIKey)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		provider:   dataProvider,
		config:     config,
		validate:   validate,
		log:        log,
		onProgress: onProgress,
	}, nil
}

// Download fetches the requested quote history into the catalog and records
// the instrument definition. The context cancels the download.
func (c *Client) Download(ctx context.Context, params DownloadParams) error {
	if err := c.validate.Struct(params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	cat, err := catalog.Open(c.config.CatalogPath, c.log)
	if err != nil {
		return err
	}

	pair, err := types.DefaultFX(params.Symbol)
	if err != nil {
		return err
	}

	writer := catalog.NewQuoteWriter(cat.QuotesPath(params.Symbol))
	c.provider.ConfigWriter(writer)

	outputPath, err := c.provider.Download(ctx, params.Symbol, params.StartDate, params.EndDate, c.onProgress)
	if err != nil {
		return err
	}

	if err := cat.WriteInstrument(pair); err != nil {
		return err
	}

	c.log.Info("download complete",
		zap.String("symbol", params.Symbol),
		zap.String("path", outputPath),
	)

	return nil
}

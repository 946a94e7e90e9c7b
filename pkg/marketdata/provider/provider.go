package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/macd-fx/internal/catalog"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	// ProviderHistData downloads free FX tick archives (histdata.com format).
	ProviderHistData ProviderType = "histdata"
	// ProviderPolygon downloads forex quotes from the Polygon REST API.
	ProviderPolygon ProviderType = "polygon"
	// ProviderBinance synthesizes quotes from Binance aggregated trades.
	ProviderBinance ProviderType = "binance"
)

// OnDownloadProgress reports download progress. total is an estimate in the
// same unit as current; message describes the current phase.
type OnDownloadProgress = func(current float64, total float64, message string)

// Provider downloads quote tick history for an instrument and feeds it to a
// configured writer.
type Provider interface {
	// ConfigWriter configures the writer the downloaded ticks are written to.
	ConfigWriter(w catalog.QuoteWriter)
	// Download fetches all quote ticks for the symbol in [startDate, endDate]
	// and writes them through the configured writer. It returns the finalized
	// output path. The context cancels the download.
	Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error)
}

// NewProvider creates a market data provider of the given type. apiKey is
// required for Polygon and ignored otherwise.
func NewProvider(providerType ProviderType, apiKey string) (Provider, error) {
	switch providerType {
	case ProviderHistData:
		return NewHistDataClient(), nil
	case ProviderPolygon:
		return NewPolygonClient(apiKey)
	case ProviderBinance:
		return NewBinanceClient(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeProviderNotFound, "unsupported market data provider: %s", providerType)
	}
}

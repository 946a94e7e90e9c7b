package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/macd-fx/internal/catalog"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
)

// PolygonClient downloads forex quote ticks (NBBO) from the Polygon REST API.
type PolygonClient struct {
	client *polygon.Client
	writer catalog.QuoteWriter
}

// NewPolygonClient creates a Polygon-backed provider.
func NewPolygonClient(apiKey string) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	return &PolygonClient{
		client: polygon.New(apiKey),
		writer: nil,
	}, nil
}

// ConfigWriter implements Provider.
func (c *PolygonClient) ConfigWriter(w catalog.QuoteWriter) {
	c.writer = w
}

// Download implements Provider. Quotes are requested in timestamp order and
// written as they stream in; progress is reported against the wall-clock span
// of the request.
func (c *PolygonClient) Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeWriterNotReady, "no writer configured, call ConfigWriter first")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriterNotReady, "failed to initialize writer", err)
	}

	defer func() {
		if cerr := c.writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListQuotesParams{Ticker: polygonTicker(symbol)}.
		WithTimestamp(models.GTE, models.Nanos(startDate)).
		WithTimestamp(models.LTE, models.Nanos(endDate)).
		WithSort(models.Timestamp).
		WithOrder(models.Asc).
		WithLimit(50000)

	span := endDate.Sub(startDate).Seconds()
	processed := 0

	iter := c.client.ListQuotes(ctx, params)
	for iter.Next() {
		quote := iter.Item()

		tick := types.QuoteTick{
			Time:    time.Time(quote.ParticipantTimestamp),
			Symbol:  symbol,
			Bid:     quote.BidPrice,
			Ask:     quote.AskPrice,
			BidSize: quote.BidSize,
			AskSize: quote.AskSize,
		}

		if err := c.writer.Write(tick); err != nil {
			return "", err
		}

		processed++

		if onProgress != nil && processed%1000 == 0 {
			elapsed := tick.Time.Sub(startDate).Seconds()
			onProgress(elapsed, span, fmt.Sprintf("Downloading %s quotes from Polygon", symbol))
		}
	}

	if iter.Err() != nil {
		return "", errors.Wrap(errors.ErrCodeDownloadFailed, "error iterating polygon quotes", iter.Err())
	}

	if onProgress != nil {
		onProgress(span, span, fmt.Sprintf("Finalizing %s", symbol))
	}

	return c.writer.Finalize()
}

// polygonTicker maps "EUR/USD" to Polygon's "C:EURUSD" forex ticker format.
func polygonTicker(symbol string) string {
	return "C:" + strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

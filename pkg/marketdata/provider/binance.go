package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/macd-fx/internal/catalog"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
)

// binancePageLimit is the maximum aggregated trades per request.
const binancePageLimit = 1000

// BinanceClient synthesizes quote ticks from Binance aggregated trades. Spot
// trades carry a single price, so bid and ask are both set to the trade
// price and the quantity fills both sizes. Useful for crypto pairs where no
// historical quote feed is available.
type BinanceClient struct {
	client *binance.Client
	writer catalog.QuoteWriter
}

// NewBinanceClient creates a Binance-backed provider. Historical aggregated
// trades require no API key.
func NewBinanceClient() *BinanceClient {
	return &BinanceClient{
		client: binance.NewClient("", ""),
		writer: nil,
	}
}

// ConfigWriter implements Provider.
func (c *BinanceClient) ConfigWriter(w catalog.QuoteWriter) {
	c.writer = w
}

// Download implements Provider. Trades are paged by advancing the start time
// past the last trade of each page until the range is exhausted.
func (c *BinanceClient) Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
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

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	currentStart := startMillis

	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		trades, err := c.client.NewAggTradesService().
			Symbol(binanceSymbol(symbol)).
			StartTime(currentStart).
			EndTime(endMillis).
			Limit(binancePageLimit).
			Do(ctx)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeDownloadFailed, err, "failed to fetch aggregated trades for %s", symbol)
		}

		for _, trade := range trades {
			tick, err := aggTradeToQuote(symbol, trade)
			if err != nil {
				return "", err
			}

			if err := c.writer.Write(tick); err != nil {
				return "", err
			}
		}

		if onProgress != nil {
			onProgress(float64(currentStart-startMillis), float64(endMillis-startMillis), fmt.Sprintf("Downloading %s trades from Binance", symbol))
		}

		if len(trades) < binancePageLimit {
			break
		}

		last := trades[len(trades)-1]

		currentStart = last.Timestamp + 1
		if currentStart >= endMillis {
			break
		}
	}

	if onProgress != nil {
		onProgress(float64(endMillis-startMillis), float64(endMillis-startMillis), fmt.Sprintf("Finalizing %s", symbol))
	}

	return c.writer.Finalize()
}

func aggTradeToQuote(symbol string, trade *binance.AggTrade) (types.QuoteTick, error) {
	price, err := strconv.ParseFloat(trade.Price, 64)
	if err != nil {
		return types.QuoteTick{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "malformed trade price %q", trade.Price)
	}

	quantity, err := strconv.ParseFloat(trade.Quantity, 64)
	if err != nil {
		return types.QuoteTick{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "malformed trade quantity %q", trade.Quantity)
	}

	return types.QuoteTick{
		Time:    time.UnixMilli(trade.Timestamp).UTC(),
		Symbol:  symbol,
		Bid:     price,
		Ask:     price,
		BidSize: quantity,
		AskSize: quantity,
	}, nil
}

// binanceSymbol maps "EUR/USDT" to Binance's "EURUSDT" format.
func binanceSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

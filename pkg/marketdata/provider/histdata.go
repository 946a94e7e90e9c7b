package provider

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/macd-fx/internal/catalog"
	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
)

// DefaultHistDataBaseURL hosts monthly FX tick archives in the histdata.com
// ASCII format.
const DefaultHistDataBaseURL = "https://raw.githubusercontent.com/nautechsystems/nautilus_data/main/raw_data/fx_hist_data"

// histDataTimeLayout covers the leading date and time portion of a histdata
// timestamp; the trailing three digits are milliseconds.
const histDataTimeLayout = "20060102 150405"

// HistDataClient downloads monthly gzip-compressed tick CSV archives. Each
// line carries a timestamp, bid, ask, and a volume column that is always
// zero in the source data.
type HistDataClient struct {
	baseURL    string
	httpClient *http.Client
	writer     catalog.QuoteWriter
}

// NewHistDataClient creates a client against the default archive host.
func NewHistDataClient() *HistDataClient {
	return &HistDataClient{
		baseURL:    DefaultHistDataBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		writer:     nil,
	}
}

// SetBaseURL overrides the archive host. Used in tests.
func (c *HistDataClient) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
}

// ConfigWriter implements Provider.
func (c *HistDataClient) ConfigWriter(w catalog.QuoteWriter) {
	c.writer = w
}

// Download implements Provider. The archive is organized in one file per
// calendar month; every month touched by [startDate, endDate] is fetched and
// ticks outside the range are dropped.
func (c *HistDataClient) Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
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

	months := monthsBetween(startDate, endDate)

	for i, month := range months {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if onProgress != nil {
			onProgress(float64(i), float64(len(months)), fmt.Sprintf("Downloading %s %s", symbol, month.Format("2006-01")))
		}

		if err := c.downloadMonth(ctx, symbol, month, startDate, endDate); err != nil {
			return "", err
		}
	}

	if onProgress != nil {
		onProgress(float64(len(months)), float64(len(months)), fmt.Sprintf("Finalizing %s", symbol))
	}

	return c.writer.Finalize()
}

func (c *HistDataClient) downloadMonth(ctx context.Context, symbol string, month time.Time, startDate time.Time, endDate time.Time) error {
	url := fmt.Sprintf("%s/DAT_ASCII_%s_T_%s.csv.gz", c.baseURL, histDataCode(symbol), month.Format("200601"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDownloadFailed, "failed to build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDownloadFailed, err, "failed to fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeDownloadFailed, "unexpected status %d fetching %s", resp.StatusCode, url)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeParseFailed, err, "failed to decompress %s", url)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tick, err := ParseHistDataLine(symbol, line)
		if err != nil {
			return err
		}

		if tick.Time.Before(startDate) || tick.Time.After(endDate) {
			continue
		}

		if err := c.writer.Write(tick); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(errors.ErrCodeParseFailed, err, "failed to read %s", url)
	}

	return nil
}

// ParseHistDataLine parses one archive line of the form
// "20200101 170052383,1.121550,1.121630,0": a second-resolution timestamp
// with three trailing millisecond digits, then bid, ask, and volume.
func ParseHistDataLine(symbol string, line string) (types.QuoteTick, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return types.QuoteTick{}, errors.Newf(errors.ErrCodeParseFailed, "malformed tick line %q", line)
	}

	stamp := fields[0]
	if len(stamp) != len(histDataTimeLayout)+3 {
		return types.QuoteTick{}, errors.Newf(errors.ErrCodeParseFailed, "malformed timestamp %q", stamp)
	}

	base, err := time.Parse(histDataTimeLayout, stamp[:len(histDataTimeLayout)])
	if err != nil {
		return types.QuoteTick{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "malformed timestamp %q", stamp)
	}

	millis, err := strconv.Atoi(stamp[len(histDataTimeLayout):])
	if err != nil {
		return types.QuoteTick{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "malformed milliseconds in %q", stamp)
	}

	bid, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return types.QuoteTick{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "malformed bid in %q", line)
	}

	ask, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return types.QuoteTick{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "malformed ask in %q", line)
	}

	return types.QuoteTick{
		Time:    base.Add(time.Duration(millis) * time.Millisecond),
		Symbol:  symbol,
		Bid:     bid,
		Ask:     ask,
		BidSize: 1_000_000,
		AskSize: 1_000_000,
	}, nil
}

// histDataCode maps "EUR/USD" to the archive's "EURUSD" naming.
func histDataCode(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

func monthsBetween(start time.Time, end time.Time) []time.Time {
	var months []time.Time

	month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)

	for !month.After(last) {
		months = append(months, month)
		month = month.AddDate(0, 1, 0)
	}

	return months
}

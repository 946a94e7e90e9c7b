package provider

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// collectWriter implements catalog.QuoteWriter in memory for provider tests.
type collectWriter struct {
	initialized bool
	finalized   bool
	ticks       []types.QuoteTick
}

func (w *collectWriter) Initialize() error {
	w.initialized = true

	return nil
}

func (w *collectWriter) Write(tick types.QuoteTick) error {
	w.ticks = append(w.ticks, tick)

	return nil
}

func (w *collectWriter) Finalize() (string, error) {
	w.finalized = true

	return "memory", nil
}

func (w *collectWriter) Close() error { return nil }

func (w *collectWriter) GetOutputPath() string { return "memory" }

type HistDataTestSuite struct {
	suite.Suite
}

func TestHistDataSuite(t *testing.T) {
	suite.Run(t, new(HistDataTestSuite))
}

func (suite *HistDataTestSuite) TestParseLine() {
	tick, err := ParseHistDataLine("EUR/USD", "20200101 170052383,1.121550,1.121630,0")
	suite.Require().NoError(err)

	suite.Equal(time.Date(2020, 1, 1, 17, 0, 52, 383_000_000, time.UTC), tick.Time)
	suite.Equal("EUR/USD", tick.Symbol)
	suite.InDelta(1.121550, tick.Bid, 1e-9)
	suite.InDelta(1.121630, tick.Ask, 1e-9)
	suite.Greater(tick.BidSize, 0.0)
	suite.NoError(tick.Validate())
}

func (suite *HistDataTestSuite) TestParseLineErrors() {
	testCases := []struct {
		name string
		line string
	}{
		{name: "too few fields", line: "20200101 170052383,1.121550"},
		{name: "short timestamp", line: "20200101 1700,1.121550,1.121630,0"},
		{name: "bad date", line: "20201301 170052383,1.121550,1.121630,0"},
		{name: "bad bid", line: "20200101 170052383,abc,1.121630,0"},
		{name: "bad ask", line: "20200101 170052383,1.121550,abc,0"},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := ParseHistDataLine("EUR/USD", tc.line)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeParseFailed))
		})
	}
}

func (suite *HistDataTestSuite) TestMonthsBetween() {
	months := monthsBetween(
		time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC),
	)

	suite.Require().Len(months, 3)
	suite.Equal(time.January, months[0].Month())
	suite.Equal(time.March, months[2].Month())
}

func (suite *HistDataTestSuite) TestDownloadFromArchive() {
	lines := map[string][]string{
		"/DAT_ASCII_EURUSD_T_202001.csv.gz": {
			"20200101 170052383,1.121550,1.121630,0",
			"20200115 093012000,1.110000,1.110100,0",
		},
		"/DAT_ASCII_EURUSD_T_202002.csv.gz": {
			"20200203 110000000,1.105000,1.105100,0",
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := lines[r.URL.Path]
		if !ok {
			http.NotFound(w, r)

			return
		}

		gz := gzip.NewWriter(w)
		for _, line := range body {
			fmt.Fprintln(gz, line)
		}
		gz.Close()
	}))
	defer server.Close()

	client := NewHistDataClient()
	client.SetBaseURL(server.URL)

	writer := &collectWriter{}
	client.ConfigWriter(writer)

	var progressCalls int

	path, err := client.Download(context.Background(),
		"EUR/USD",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 2, 29, 23, 59, 59, 0, time.UTC),
		func(current float64, total float64, message string) { progressCalls++ },
	)
	suite.Require().NoError(err)
	suite.Equal("memory", path)
	suite.True(writer.finalized)
	suite.Len(writer.ticks, 3)
	suite.Greater(progressCalls, 0)
}

func (suite *HistDataTestSuite) TestDownloadDropsTicksOutsideRange() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		fmt.Fprintln(gz, "20200101 170052383,1.121550,1.121630,0")
		fmt.Fprintln(gz, "20200131 235959000,1.110000,1.110100,0")
		gz.Close()
	}))
	defer server.Close()

	client := NewHistDataClient()
	client.SetBaseURL(server.URL)

	writer := &collectWriter{}
	client.ConfigWriter(writer)

	_, err := client.Download(context.Background(),
		"EUR/USD",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		nil,
	)
	suite.Require().NoError(err)
	suite.Len(writer.ticks, 1, "the end-of-month tick is past the requested range")
}

func (suite *HistDataTestSuite) TestDownloadMissingArchive() {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewHistDataClient()
	client.SetBaseURL(server.URL)
	client.ConfigWriter(&collectWriter{})

	_, err := client.Download(context.Background(),
		"EUR/USD",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		nil,
	)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDownloadFailed))
}

func (suite *HistDataTestSuite) TestDownloadWithoutWriterFails() {
	client := NewHistDataClient()

	_, err := client.Download(context.Background(),
		"EUR/USD",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		nil,
	)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWriterNotReady))
}

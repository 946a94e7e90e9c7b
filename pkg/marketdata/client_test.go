package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/rxtech-lab/macd-fx/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) TestConfigValidation() {
	testCases := []struct {
		name        string
		config      ClientConfig
		expectError bool
	}{
		{
			name: "histdata needs no api key",
			config: ClientConfig{
				ProviderType: provider.ProviderHistData,
				CatalogPath:  "catalog",
			},
			expectError: false,
		},
		{
			name: "binance needs no api key",
			config: ClientConfig{
				ProviderType: provider.ProviderBinance,
				CatalogPath:  "catalog",
			},
			expectError: false,
		},
		{
			name: "polygon requires api key",
			config: ClientConfig{
				ProviderType: provider.ProviderPolygon,
				CatalogPath:  "catalog",
			},
			expectError: true,
		},
		{
			name: "polygon with api key",
			config: ClientConfig{
				ProviderType:  provider.ProviderPolygon,
				CatalogPath:   "catalog",
				PolygonAPIKey: "secret",
			},
			expectError: false,
		},
		{
			name: "unknown provider",
			config: ClientConfig{
				ProviderType: "csv",
				CatalogPath:  "catalog",
			},
			expectError: true,
		},
		{
			name: "missing catalog path",
			config: ClientConfig{
				ProviderType: provider.ProviderHistData,
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			client, err := NewClient(tc.config, nil, nil)
			if tc.expectError {
				suite.Error(err)
				suite.Nil(client)
			} else {
				suite.NoError(err)
				suite.NotNil(client)
			}
		})
	}
}

func (suite *ClientTestSuite) TestDownloadParamsValidation() {
	client, err := NewClient(ClientConfig{
		ProviderType: provider.ProviderHistData,
		CatalogPath:  suite.T().TempDir(),
	}, nil, nil)
	suite.Require().NoError(err)

	testCases := []struct {
		name   string
		params DownloadParams
	}{
		{
			name: "missing symbol",
			params: DownloadParams{
				StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "symbol without separator",
			params: DownloadParams{
				Symbol:    "EURUSD",
				StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "end before start",
			params: DownloadParams{
				Symbol:    "EUR/USD",
				StartDate: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			err := client.Download(context.Background(), tc.params)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
		})
	}
}

func (suite *ClientTestSuite) TestProviderFactory() {
	histdata, err := provider.NewProvider(provider.ProviderHistData, "")
	suite.NoError(err)
	suite.NotNil(histdata)

	binance, err := provider.NewProvider(provider.ProviderBinance, "")
	suite.NoError(err)
	suite.NotNil(binance)

	_, err = provider.NewProvider(provider.ProviderPolygon, "")
	suite.Error(err, "polygon requires an api key")

	polygon, err := provider.NewProvider(provider.ProviderPolygon, "secret")
	suite.NoError(err)
	suite.NotNil(polygon)

	_, err = provider.NewProvider("csv", "")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeProviderNotFound))
}

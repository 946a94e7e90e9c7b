package catalog

import (
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CatalogTestSuite struct {
	suite.Suite
	catalog *Catalog
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}

func (suite *CatalogTestSuite) SetupTest() {
	cat, err := Open(filepath.Join(suite.T().TempDir(), "catalog"), nil)
	suite.Require().NoError(err)
	suite.catalog = cat
}

func (suite *CatalogTestSuite) TestQuotesPathSanitizesSymbol() {
	path := suite.catalog.QuotesPath("eur/usd")
	suite.Equal(filepath.Join(suite.catalog.Dir(), "EURUSD", "quotes.parquet"), path)
}

func (suite *CatalogTestSuite) TestEmptyCatalogHasNoInstruments() {
	pairs, err := suite.catalog.Instruments()
	suite.Require().NoError(err)
	suite.Empty(pairs)
}

func (suite *CatalogTestSuite) TestInstrumentRoundtrip() {
	pair, err := types.DefaultFX("EUR/USD")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.catalog.WriteInstrument(pair))

	got, err := suite.catalog.Instrument("EUR/USD")
	suite.Require().NoError(err)
	suite.Equal(pair, got)
}

func (suite *CatalogTestSuite) TestWriteInstrumentReplacesExisting() {
	pair, err := types.DefaultFX("EUR/USD")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.catalog.WriteInstrument(pair))

	pair.PipValue = 0.00005
	suite.Require().NoError(suite.catalog.WriteInstrument(pair))

	pairs, err := suite.catalog.Instruments()
	suite.Require().NoError(err)
	suite.Require().Len(pairs, 1)
	suite.Equal(0.00005, pairs[0].PipValue)
}

func (suite *CatalogTestSuite) TestWriteInstrumentValidates() {
	err := suite.catalog.WriteInstrument(types.CurrencyPair{Symbol: "EUR/USD"})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInstrument))
}

func (suite *CatalogTestSuite) TestUnknownInstrument() {
	_, err := suite.catalog.Instrument("GBP/USD")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInstrumentNotFound))
}

func (suite *CatalogTestSuite) TestQuoteSourceWithoutDataFails() {
	_, err := suite.catalog.QuoteSource("EUR/USD")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoQuoteData))
}

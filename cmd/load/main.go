package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/rxtech-lab/macd-fx/pkg/marketdata"
	"github.com/rxtech-lab/macd-fx/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// loadAction parses the flags, sets up the market data client, and runs the
// download into the catalog.
func loadAction(ctx context.Context, cmd *cli.Command) error {
	symbol := cmd.String("symbol")
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")
	providerFlag := cmd.String("provider")
	catalogPath := cmd.String("catalog")
	logLevel := cmd.String("log-level")

	appLogger, err := logger.NewLoggerWithLevel(logger.ParseLevel(logLevel))
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", symbol)),
		progressbar.OptionShowCount(),
	)

	onProgress := func(current float64, total float64, message string) {
		if total <= 0 {
			return
		}

		bar.Describe(message)
		bar.Set(int(current / total * 100))
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  provider.ProviderType(providerFlag),
		CatalogPath:   catalogPath,
		PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
	}, onProgress, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	log.Printf("Loading %s from %s to %s via %s into %s...",
		symbol, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), providerFlag, catalogPath)

	if err := client.Download(ctx, marketdata.DownloadParams{
		Symbol:    symbol,
		StartDate: startDate,
		EndDate:   endDate,
	}); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	bar.Finish()
	log.Println("Catalog load completed successfully.")

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "load",
		Usage: "Download FX quote tick history into a catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"y"},
				Usage:    "Instrument symbol in `BASE/QUOTE` form, e.g. EUR/USD",
				Value:    "EUR/USD",
				Required: false,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "end",
				Aliases:  []string{"e"},
				Usage:    "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:    time.Now(),
				Required: false,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    fmt.Sprintf("Data provider to use (%s, %s, %s)", provider.ProviderHistData, provider.ProviderPolygon, provider.ProviderBinance),
				Value:    string(provider.ProviderHistData),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "catalog",
				Aliases:  []string{"c"},
				Usage:    "Path to the catalog directory",
				Value:    "catalog",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "log-level",
				Usage:    "Log level (debug, info, warn, error)",
				Value:    "info",
				Required: false,
			},
		},
		Action: loadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

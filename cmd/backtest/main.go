package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/macd-fx/internal/backtest"
	"github.com/rxtech-lab/macd-fx/internal/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// backtestAction loads the run configuration, replays the catalog history
// through the configured strategy, and writes the result report.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := backtest.LoadConfig(configPath)
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLoggerWithLevel(logger.ParseLevel(config.LogLevel))
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	engine, cleanup, err := backtest.NewEngineFromConfig(config, appLogger)
	if err != nil {
		return err
	}
	defer cleanup()

	var bar *progressbar.ProgressBar

	engine.SetProgressCallback(func(current int, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(fmt.Sprintf("Replaying %s", config.Symbol)),
				progressbar.OptionShowCount(),
			)
		}

		if current%1000 == 0 || current == total {
			bar.Set(current)
		}
	})

	result, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if bar != nil {
		bar.Finish()
	}

	fmt.Println()
	fmt.Printf("Strategy:         %s\n", result.Strategy)
	fmt.Printf("Trades:           %d (%d closed)\n", result.TradeCount, result.ClosedTrades)
	fmt.Printf("Win rate:         %.1f%%\n", result.WinRate*100)
	fmt.Printf("Realized PnL:     %.2f %s\n", result.RealizedPnL, result.Currency)
	fmt.Printf("Final balance:    %.2f %s\n", result.FinalBalance, result.Currency)

	if config.ResultsFolder != "" {
		path := filepath.Join(config.ResultsFolder, fmt.Sprintf("%s_%s.yaml", result.Strategy, time.Now().Format("20060102_150405")))
		if err := result.WriteYAML(path); err != nil {
			return err
		}

		log.Printf("Result written to %s", path)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay catalog quote history through a MACD strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the backtest configuration `YAML` file",
				Required: true,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

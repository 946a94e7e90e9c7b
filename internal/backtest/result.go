package backtest

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/macd-fx/internal/types"
	"github.com/rxtech-lab/macd-fx/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// TradeRecord is one fill in the result report.
type TradeRecord struct {
	OrderID  string    `yaml:"order_id" json:"order_id"`
	Time     time.Time `yaml:"time" json:"time"`
	Symbol   string    `yaml:"symbol" json:"symbol"`
	Side     string    `yaml:"side" json:"side"`
	Kind     string    `yaml:"kind" json:"kind"`
	Reason   string    `yaml:"reason" json:"reason"`
	Quantity float64   `yaml:"quantity" json:"quantity"`
	Price    float64   `yaml:"price" json:"price"`
	PnL      float64   `yaml:"pnl" json:"pnl"`
}

// Result summarizes a completed backtest run.
type Result struct {
	Strategy        string        `yaml:"strategy" json:"strategy"`
	StartingBalance float64       `yaml:"starting_balance" json:"starting_balance"`
	FinalBalance    float64       `yaml:"final_balance" json:"final_balance"`
	RealizedPnL     float64       `yaml:"realized_pnl" json:"realized_pnl"`
	Currency        string        `yaml:"currency" json:"currency"`
	TradeCount      int           `yaml:"trade_count" json:"trade_count"`
	ClosedTrades    int           `yaml:"closed_trades" json:"closed_trades"`
	WinningTrades   int           `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades    int           `yaml:"losing_trades" json:"losing_trades"`
	WinRate         float64       `yaml:"win_rate" json:"win_rate"`
	Trades          []TradeRecord `yaml:"trades" json:"trades"`
}

// NewResult builds a result from the venue's trade log. Win rate counts only
// closing fills, where PnL is realized.
func NewResult(strategyName string, startingBalance decimal.Decimal, venue *SimVenue) *Result {
	account := venue.Account()

	result := &Result{
		Strategy:        strategyName,
		StartingBalance: startingBalance.InexactFloat64(),
		FinalBalance:    account.Balance.InexactFloat64(),
		RealizedPnL:     account.RealizedPnL.InexactFloat64(),
		Currency:        account.Currency,
	}

	for _, trade := range venue.Trades() {
		result.Trades = append(result.Trades, newTradeRecord(trade))
		result.TradeCount++

		if trade.Order.Reason == types.OrderReasonEntry {
			continue
		}

		result.ClosedTrades++

		if trade.PnL.IsPositive() {
			result.WinningTrades++
		} else {
			result.LosingTrades++
		}
	}

	if result.ClosedTrades > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(result.ClosedTrades)
	}

	return result
}

func newTradeRecord(trade types.Trade) TradeRecord {
	return TradeRecord{
		OrderID:  trade.Order.ID,
		Time:     trade.ExecutedAt,
		Symbol:   trade.Order.Symbol,
		Side:     string(trade.Order.Side),
		Kind:     string(trade.Order.Kind),
		Reason:   trade.Order.Reason,
		Quantity: trade.ExecutedQty,
		Price:    trade.ExecutedPrice,
		PnL:      trade.PnL.InexactFloat64(),
	}
}

// WriteYAML writes the result to a YAML file, creating parent directories.
func (r *Result) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to encode result", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to create results directory", err)
	}

	return os.WriteFile(path, data, 0o644)
}

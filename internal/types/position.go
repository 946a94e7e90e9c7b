package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// EntrySide returns the order side that opens a position on this side.
func (s PositionSide) EntrySide() Side {
	if s == PositionSideLong {
		return SideBuy
	}

	return SideSell
}

// ExitSide returns the order side that closes a position on this side.
func (s PositionSide) ExitSide() Side {
	return s.EntrySide().Opposite()
}

// Position is an open holding in a single instrument. The venue maintains at
// most one position per instrument (netting).
type Position struct {
	ID            string       `yaml:"id" json:"id" csv:"id"`
	Symbol        string       `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side          PositionSide `yaml:"side" json:"side" csv:"side"`
	Quantity      float64      `yaml:"quantity" json:"quantity" csv:"quantity"`
	AvgEntryPrice float64      `yaml:"avg_entry_price" json:"avg_entry_price" csv:"avg_entry_price"`
	OpenedAt      time.Time    `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
}

// PnL returns the profit or loss of the position against an exit price.
func (p Position) PnL(exitPrice float64) decimal.Decimal {
	entry := decimal.NewFromFloat(p.AvgEntryPrice)
	exit := decimal.NewFromFloat(exitPrice)
	qty := decimal.NewFromFloat(p.Quantity)

	if p.Side == PositionSideShort {
		return entry.Sub(exit).Mul(qty)
	}

	return exit.Sub(entry).Mul(qty)
}

// Trade is a single fill produced by the venue.
type Trade struct {
	Order         OrderIntent     `yaml:"order" json:"order" csv:"order"`
	ExecutedAt    time.Time       `yaml:"executed_at" json:"executed_at" csv:"executed_at"`
	ExecutedQty   float64         `yaml:"executed_qty" json:"executed_qty" csv:"executed_qty"`
	ExecutedPrice float64         `yaml:"executed_price" json:"executed_price" csv:"executed_price"`
	// PnL is the realized profit and loss of the fill. Zero for fills that
	// open or extend a position.
	PnL decimal.Decimal `yaml:"pnl" json:"pnl" csv:"pnl"`
}

// AccountInfo represents the venue account state.
type AccountInfo struct {
	// Balance is the current cash balance including realized P&L.
	Balance decimal.Decimal `yaml:"balance" json:"balance"`
	// RealizedPnL is the total realized profit/loss from closed positions.
	RealizedPnL decimal.Decimal `yaml:"realized_pnl" json:"realized_pnl"`
	// Currency is the account denomination.
	Currency string `yaml:"currency" json:"currency"`
}

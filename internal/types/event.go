package types

import "github.com/shopspring/decimal"

// PositionEventKind enumerates the closed set of position lifecycle events
// a strategy can observe. Dispatch is a switch over this tag.
type PositionEventKind string

const (
	PositionEventOpened PositionEventKind = "OPENED"
	PositionEventClosed PositionEventKind = "CLOSED"
)

// PositionEvent is a lifecycle notification delivered by the execution layer
// after a fill opens or closes a position. Position is a snapshot at the time
// of the event; RealizedPnL is only meaningful for Closed events.
type PositionEvent struct {
	Kind        PositionEventKind
	Position    Position
	RealizedPnL decimal.Decimal
}

// NewPositionOpened builds an Opened event for the given position snapshot.
func NewPositionOpened(position Position) PositionEvent {
	return PositionEvent{
		Kind:     PositionEventOpened,
		Position: position,
	}
}

// NewPositionClosed builds a Closed event for the given position snapshot and
// realized P&L.
func NewPositionClosed(position Position, realizedPnL decimal.Decimal) PositionEvent {
	return PositionEvent{
		Kind:        PositionEventClosed,
		Position:    position,
		RealizedPnL: realizedPnL,
	}
}

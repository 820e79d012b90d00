package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is an aggregated, symbol-scoped exposure built incrementally from
// trades. At most one open position exists per symbol at any time; the
// aggregation engine is its only writer.
//
// Close fields (ClosePrice, PipDiff, ProfitLoss, WinLoss, ClosedAt) are only
// meaningful once IsOpen is false; while the position is open they hold zero
// values and are persisted as NULL.
type Position struct {
	ID         int64           `json:"position_id"`
	Symbol     string          `json:"symbol"`
	IsOpen     bool            `json:"is_open"`
	Direction  Direction       `json:"position_type"`
	EntryPrice decimal.Decimal `json:"entry_price"` // quantity-weighted average entry
	ClosePrice decimal.Decimal `json:"close_price"`
	Quantity   decimal.Decimal `json:"quantity"` // current open size; exactly zero once closed
	PipPrice   decimal.Decimal `json:"pip_price"` // last pip value applied
	PipDiff    decimal.Decimal `json:"pip_diff"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
	WinLoss    WinLoss         `json:"win_loss,omitempty"`
	OpenedAt   time.Time       `json:"open_time"`
	ClosedAt   time.Time       `json:"close_time"`
	Notes      *string         `json:"notes,omitempty"`

	// Version is the optimistic concurrency token. Updates match on it and
	// increment it; a stale token signals a lost race on the symbol.
	Version int64 `json:"-"`
}

// PriceDelta returns the direction-aware price movement from entry to exit:
// favorable movement is positive for both LONG and SHORT exposure.
func (p *Position) PriceDelta(exitPrice decimal.Decimal) decimal.Decimal {
	if p.Direction == Long {
		return exitPrice.Sub(p.EntryPrice)
	}
	return p.EntryPrice.Sub(exitPrice)
}

// ClassifyOutcome maps a realized profit/loss to its WIN/LOSS/BREAKEVEN label.
func ClassifyOutcome(profitLoss decimal.Decimal) WinLoss {
	switch profitLoss.Sign() {
	case 1:
		return Win
	case -1:
		return Loss
	default:
		return Breakeven
	}
}

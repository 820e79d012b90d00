package domain

import "github.com/shopspring/decimal"

// Allocation records how much of a trade's quantity was applied to which
// position and in what role. The rows are pure appends: the sum of
// QuantityAllocated across a trade's allocations always equals the trade's
// quantity, so an overshooting trade produces one CLOSE and one OPEN row.
//
// For REDUCE and CLOSE allocations the realized pip difference, profit/loss
// and outcome of the offset slice are attributed here; a reduced position's
// own close fields stay untouched because it remains open.
type Allocation struct {
	ID                int64           `json:"allocation_id"`
	PositionID        int64           `json:"position_id"`
	TradeID           int64           `json:"trade_id"`
	QuantityAllocated decimal.Decimal `json:"quantity_allocated"`
	TradeAction       TradeAction     `json:"trade_action"`
	PipDiff           decimal.Decimal `json:"pip_diff"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	WinLoss           WinLoss         `json:"win_loss,omitempty"`
}

// Realized reports whether the allocation carries realized metrics.
func (a *Allocation) Realized() bool {
	return a.TradeAction == ActionReduce || a.TradeAction == ActionClose
}

// Package engine holds the position aggregation state machine: given one
// recorded trade and the (possibly absent) open position for its symbol, it
// decides OPEN / ADD / REDUCE / CLOSE and computes the resulting position
// fields and allocation rows. The engine is pure — it performs no I/O and
// holds no state — so it is testable against plain structs; persistence of
// its Result is the caller's job, inside one unit of work.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// Result describes the position mutations and allocation rows one trade
// produces. At most one existing position is mutated and at most one new
// position is created; an overshooting offset trade yields both.
type Result struct {
	// Action is the primary action applied to the pre-existing open position,
	// or OPEN when there was none.
	Action domain.TradeAction

	// Updated is the pre-existing position with its next state applied
	// (ADD, REDUCE or CLOSE). Nil when the trade only opened a position.
	Updated *domain.Position
	// UpdatedAlloc documents the slice of the trade applied to Updated.
	UpdatedAlloc *domain.Allocation

	// Opened is a newly created position: the whole trade on OPEN, or the
	// leftover quantity flipped to the opposite direction on an overshoot.
	// Its ID (and the matching allocation's PositionID) are assigned by the
	// store after insert.
	Opened *domain.Position
	// OpenedAlloc documents the slice of the trade that opened Opened.
	OpenedAlloc *domain.Allocation
}

// Apply folds one trade into the current open position state for its symbol.
// The open argument is nil when no position is open. Apply never mutates its
// inputs; Updated is a copy of open with the next state applied.
func Apply(trade *domain.Trade, open *domain.Position) (*Result, error) {
	if trade == nil {
		return nil, fmt.Errorf("%w: nil trade", ports.ErrValidation)
	}

	if open == nil {
		pos, alloc := openPosition(trade, trade.Quantity)
		return &Result{Action: domain.ActionOpen, Opened: pos, OpenedAlloc: alloc}, nil
	}

	if !open.IsOpen {
		return nil, fmt.Errorf("%w: position %d for %s is already closed", ports.ErrConflict, open.ID, open.Symbol)
	}

	if trade.Side.Direction() == open.Direction {
		return add(trade, open)
	}
	return offset(trade, open)
}

// add increases an open position in its own direction: the quantity grows and
// the entry price becomes the quantity-weighted average of the old exposure
// and the new trade. The pip price follows the latest trade, which reflects
// the current market pip value.
func add(trade *domain.Trade, open *domain.Position) (*Result, error) {
	next := *open
	newQuantity := open.Quantity.Add(trade.Quantity)

	// Weighted average on unrounded intermediates; only the final quotient is
	// quantized so rounding error does not compound across ADDs.
	notional := open.EntryPrice.Mul(open.Quantity).Add(trade.Price.Mul(trade.Quantity))
	next.EntryPrice = notional.DivRound(newQuantity, domain.PricePrecision)
	next.Quantity = newQuantity
	next.PipPrice = trade.PipPrice

	alloc := &domain.Allocation{
		PositionID:        open.ID,
		TradeID:           trade.ID,
		QuantityAllocated: trade.Quantity,
		TradeAction:       domain.ActionAdd,
	}
	return &Result{Action: domain.ActionAdd, Updated: &next, UpdatedAlloc: alloc}, nil
}

// offset applies an opposite-direction trade: REDUCE when some quantity
// remains, CLOSE when it offsets exactly, and CLOSE plus a fresh OPEN in the
// opposite direction when it overshoots.
func offset(trade *domain.Trade, open *domain.Position) (*Result, error) {
	remaining := open.Quantity.Sub(trade.Quantity)

	switch remaining.Sign() {
	case 1: // partial offset, position stays open
		realized, err := realize(open, trade, trade.Quantity)
		if err != nil {
			return nil, err
		}
		next := *open
		next.Quantity = remaining
		next.PipPrice = trade.PipPrice

		alloc := &domain.Allocation{
			PositionID:        open.ID,
			TradeID:           trade.ID,
			QuantityAllocated: trade.Quantity,
			TradeAction:       domain.ActionReduce,
			PipDiff:           realized.pipDiff,
			ProfitLoss:        realized.profitLoss,
			WinLoss:           realized.winLoss,
		}
		return &Result{Action: domain.ActionReduce, Updated: &next, UpdatedAlloc: alloc}, nil

	case 0: // exact offset, position closes
		next, alloc, err := closePosition(trade, open, open.Quantity)
		if err != nil {
			return nil, err
		}
		return &Result{Action: domain.ActionClose, Updated: next, UpdatedAlloc: alloc}, nil

	default: // overshoot: close fully, open the leftover in the opposite direction
		next, closeAlloc, err := closePosition(trade, open, open.Quantity)
		if err != nil {
			return nil, err
		}
		leftover := trade.Quantity.Sub(open.Quantity)
		opened, openAlloc := openPosition(trade, leftover)
		return &Result{
			Action:       domain.ActionClose,
			Updated:      next,
			UpdatedAlloc: closeAlloc,
			Opened:       opened,
			OpenedAlloc:  openAlloc,
		}, nil
	}
}

// closePosition produces the terminal state of open offset by closedQty of
// the trade, with realized metrics over the full closed quantity.
func closePosition(trade *domain.Trade, open *domain.Position, closedQty decimal.Decimal) (*domain.Position, *domain.Allocation, error) {
	realized, err := realize(open, trade, closedQty)
	if err != nil {
		return nil, nil, err
	}

	next := *open
	next.IsOpen = false
	next.Quantity = decimal.Zero
	next.ClosePrice = trade.Price
	next.ClosedAt = trade.ExecutedAt
	next.PipPrice = trade.PipPrice
	next.PipDiff = realized.pipDiff
	next.ProfitLoss = realized.profitLoss
	next.WinLoss = realized.winLoss

	alloc := &domain.Allocation{
		PositionID:        open.ID,
		TradeID:           trade.ID,
		QuantityAllocated: closedQty,
		TradeAction:       domain.ActionClose,
		PipDiff:           realized.pipDiff,
		ProfitLoss:        realized.profitLoss,
		WinLoss:           realized.winLoss,
	}
	return &next, alloc, nil
}

// openPosition builds a fresh position carrying qty of the trade, plus its
// OPEN allocation.
func openPosition(trade *domain.Trade, qty decimal.Decimal) (*domain.Position, *domain.Allocation) {
	pos := &domain.Position{
		Symbol:     trade.Symbol,
		IsOpen:     true,
		Direction:  trade.Side.Direction(),
		EntryPrice: trade.Price,
		Quantity:   qty,
		PipPrice:   trade.PipPrice,
		OpenedAt:   trade.ExecutedAt,
	}
	alloc := &domain.Allocation{
		TradeID:           trade.ID,
		QuantityAllocated: qty,
		TradeAction:       domain.ActionOpen,
	}
	return pos, alloc
}

type realizedSlice struct {
	pipDiff    decimal.Decimal
	profitLoss decimal.Decimal
	winLoss    domain.WinLoss
}

// realize computes the direction-aware pip difference and profit/loss for qty
// of the position exiting at the trade's price. Pip math uses the exiting
// trade's pip price, the current market value of a pip. A zero pip price here
// means trade validation was bypassed, so it is an invariant violation rather
// than caller input to reject.
func realize(open *domain.Position, trade *domain.Trade, qty decimal.Decimal) (realizedSlice, error) {
	if trade.PipPrice.IsZero() {
		return realizedSlice{}, fmt.Errorf("%w: zero pip price on trade %d reached pip math", ports.ErrArithmetic, trade.ID)
	}

	delta := open.PriceDelta(trade.Price)
	profitLoss := delta.Mul(qty).Round(domain.PricePrecision)
	return realizedSlice{
		pipDiff:    delta.DivRound(trade.PipPrice, domain.PricePrecision),
		profitLoss: profitLoss,
		winLoss:    domain.ClassifyOutcome(profitLoss),
	}, nil
}

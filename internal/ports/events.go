package ports

import (
	"context"

	"tradeledger/internal/domain"
)

// PositionEvents is the observability hook the aggregation path calls with
// typed position lifecycle events, decoupled from any concrete logging or
// metrics backend. Events fire after the enclosing unit of work commits.
type PositionEvents interface {
	// PositionOpened fires when a trade opens a fresh position, including the
	// remainder position created by an overshooting offset trade.
	PositionOpened(ctx context.Context, pos *domain.Position, trade *domain.Trade)
	// PositionAdjusted fires on ADD and REDUCE mutations of an open position.
	PositionAdjusted(ctx context.Context, pos *domain.Position, trade *domain.Trade, action domain.TradeAction)
	// PositionClosed fires when a trade fully offsets the remaining quantity.
	PositionClosed(ctx context.Context, pos *domain.Position, trade *domain.Trade)
}

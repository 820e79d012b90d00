package logger

import (
	"context"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// PositionEventLogger implements ports.PositionEvents by logging each
// lifecycle event through the injected ports.Logger.
type PositionEventLogger struct {
	Logger ports.Logger
}

func (e *PositionEventLogger) PositionOpened(ctx context.Context, pos *domain.Position, trade *domain.Trade) {
	e.Logger.Info(ctx, "Position opened", map[string]interface{}{
		"positionID": pos.ID,
		"tradeID":    trade.ID,
		"symbol":     pos.Symbol,
		"direction":  pos.Direction,
		"entryPrice": pos.EntryPrice,
		"quantity":   pos.Quantity,
	})
}

func (e *PositionEventLogger) PositionAdjusted(ctx context.Context, pos *domain.Position, trade *domain.Trade, action domain.TradeAction) {
	e.Logger.Info(ctx, "Position adjusted", map[string]interface{}{
		"positionID": pos.ID,
		"tradeID":    trade.ID,
		"symbol":     pos.Symbol,
		"action":     action,
		"entryPrice": pos.EntryPrice,
		"quantity":   pos.Quantity,
	})
}

func (e *PositionEventLogger) PositionClosed(ctx context.Context, pos *domain.Position, trade *domain.Trade) {
	e.Logger.Info(ctx, "Position closed", map[string]interface{}{
		"positionID": pos.ID,
		"tradeID":    trade.ID,
		"symbol":     pos.Symbol,
		"closePrice": pos.ClosePrice,
		"pipDiff":    pos.PipDiff,
		"profitLoss": pos.ProfitLoss,
		"winLoss":    pos.WinLoss,
	})
}

var _ ports.PositionEvents = (*PositionEventLogger)(nil)

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tradeledger/config"
	"tradeledger/internal/domain"
	"tradeledger/internal/engine"
	"tradeledger/internal/ports"
)

// LedgerService orchestrates the trade ledger: it records trades, folds each
// one into position state through the aggregation engine, and exposes the
// read/correction surface of the ledger.
type LedgerService struct {
	cfg       *config.Config
	logger    ports.Logger
	uow       ports.UnitOfWork
	trades    ports.TradeRepository
	posRepo   ports.PositionRepository
	allocRepo ports.AllocationRepository
	events    ports.PositionEvents

	// symbolLocks serializes the aggregation read-modify-write per symbol.
	// Trades for different symbols proceed fully in parallel.
	mu          sync.Mutex
	symbolLocks map[string]*sync.Mutex
}

// NewLedgerService creates a new application service instance. A nil events
// observer is replaced with a no-op.
func NewLedgerService(
	cfg *config.Config,
	logger ports.Logger,
	uow ports.UnitOfWork,
	trades ports.TradeRepository,
	posRepo ports.PositionRepository,
	allocRepo ports.AllocationRepository,
	events ports.PositionEvents,
) (*LedgerService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || uow == nil || trades == nil || posRepo == nil || allocRepo == nil {
		return nil, fmt.Errorf("missing required dependencies for LedgerService")
	}
	if cfg.MaxAggregationRetries < 0 {
		return nil, fmt.Errorf("configuration MaxAggregationRetries cannot be negative")
	}
	if events == nil {
		events = noopEvents{}
	}

	return &LedgerService{
		cfg:         cfg,
		logger:      logger,
		uow:         uow,
		trades:      trades,
		posRepo:     posRepo,
		allocRepo:   allocRepo,
		events:      events,
		symbolLocks: make(map[string]*sync.Mutex),
	}, nil
}

// RecordTrade validates and persists a trade, then synchronously folds it
// into position state. The trade is not acknowledged until aggregation has
// either succeeded or failed explicitly; on aggregation failure the recorded
// trade is returned together with ErrAggregationFailed so callers can
// distinguish a ledger-write problem from an aggregation problem.
func (s *LedgerService) RecordTrade(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	op := "RecordTrade"
	trade.Normalize()
	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrValidation, err)
	}

	if _, err := s.trades.CreateTrade(ctx, trade); err != nil {
		s.logger.Error(ctx, err, op+": failed to record trade", map[string]interface{}{"symbol": trade.Symbol})
		return nil, err
	}

	// The trade is durable from here on: aggregation must run to completion
	// even if the caller's request is canceled, otherwise ledger and position
	// state permanently diverge.
	aggCtx := context.WithoutCancel(ctx)
	if err := s.aggregate(aggCtx, trade); err != nil {
		s.logger.Error(aggCtx, err, op+": aggregation failed, trade left unaggregated", map[string]interface{}{
			"tradeID": trade.ID,
			"symbol":  trade.Symbol,
		})
		return trade, fmt.Errorf("%w: trade %d: %v", ports.ErrAggregationFailed, trade.ID, err)
	}
	return trade, nil
}

// AggregateTrade replays aggregation for a recorded trade that never made it
// into position state. Replaying an already aggregated trade is a conflict.
func (s *LedgerService) AggregateTrade(ctx context.Context, id int64) error {
	trade, err := s.trades.FindTradeByID(ctx, id)
	if err != nil {
		return err
	}
	if trade == nil {
		return fmt.Errorf("%w: trade ID %d", ports.ErrNotFound, id)
	}
	if trade.AggregatedAt != nil {
		return fmt.Errorf("%w: trade ID %d is already aggregated", ports.ErrConflict, id)
	}
	return s.aggregate(ctx, trade)
}

// ReplayUnaggregated sweeps trades whose aggregation never committed and
// replays them in ledger order. Individual failures are logged and skipped so
// one poisoned trade does not block the rest.
func (s *LedgerService) ReplayUnaggregated(ctx context.Context) error {
	pending, err := s.trades.FindUnaggregated(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	s.logger.Info(ctx, "Replaying unaggregated trades", map[string]interface{}{"count": len(pending)})
	for _, trade := range pending {
		if err := s.aggregate(ctx, trade); err != nil {
			s.logger.Error(ctx, err, "Replay failed for trade", map[string]interface{}{"tradeID": trade.ID, "symbol": trade.Symbol})
		}
	}
	return nil
}

// aggregate runs the engine over the current open position for the trade's
// symbol and persists the outcome atomically. A lost optimistic race retries
// the whole unit from a fresh read, bounded by MaxAggregationRetries.
func (s *LedgerService) aggregate(ctx context.Context, trade *domain.Trade) error {
	lock := s.symbolLock(trade.Symbol)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxAggregationRetries; attempt++ {
		var res *engine.Result
		err := s.uow.WithinTx(ctx, func(ctx context.Context, st ports.Stores) error {
			open, err := st.Positions.FindOpenBySymbol(ctx, trade.Symbol)
			if err != nil {
				return err
			}
			r, err := engine.Apply(trade, open)
			if err != nil {
				return err
			}
			if r.Updated != nil {
				if err := st.Positions.Update(ctx, r.Updated); err != nil {
					return err
				}
				r.UpdatedAlloc.PositionID = r.Updated.ID
				if _, err := st.Allocations.CreateAllocation(ctx, r.UpdatedAlloc); err != nil {
					return err
				}
			}
			if r.Opened != nil {
				id, err := st.Positions.Create(ctx, r.Opened)
				if err != nil {
					return err
				}
				r.OpenedAlloc.PositionID = id
				if _, err := st.Allocations.CreateAllocation(ctx, r.OpenedAlloc); err != nil {
					return err
				}
			}
			if err := st.Trades.MarkAggregated(ctx, trade.ID, time.Now().UTC()); err != nil {
				return err
			}
			res = r
			return nil
		})
		if err == nil {
			s.emit(ctx, res, trade)
			return nil
		}
		lastErr = err
		if !errors.Is(err, ports.ErrConflict) {
			return err
		}
		s.logger.Warn(ctx, "Lost position race, retrying aggregation", map[string]interface{}{
			"tradeID": trade.ID,
			"symbol":  trade.Symbol,
			"attempt": attempt + 1,
		})
	}
	return fmt.Errorf("aggregation retries exhausted for trade %d: %w", trade.ID, lastErr)
}

// emit publishes lifecycle events for a committed aggregation outcome.
func (s *LedgerService) emit(ctx context.Context, res *engine.Result, trade *domain.Trade) {
	if res.Updated != nil {
		switch res.UpdatedAlloc.TradeAction {
		case domain.ActionClose:
			s.events.PositionClosed(ctx, res.Updated, trade)
		default:
			s.events.PositionAdjusted(ctx, res.Updated, trade, res.UpdatedAlloc.TradeAction)
		}
	}
	if res.Opened != nil {
		s.events.PositionOpened(ctx, res.Opened, trade)
	}
}

// symbolLock returns the mutex serializing aggregation for one symbol.
func (s *LedgerService) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.symbolLocks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		s.symbolLocks[symbol] = lock
	}
	return lock
}

// --- Ledger read/correction surface ---

// ListTrades returns all trades ordered by id ascending.
func (s *LedgerService) ListTrades(ctx context.Context) ([]*domain.Trade, error) {
	return s.trades.FindAllTrades(ctx)
}

// GetTrade returns the trade with the given id, or nil if absent.
func (s *LedgerService) GetTrade(ctx context.Context, id int64) (*domain.Trade, error) {
	return s.trades.FindTradeByID(ctx, id)
}

// ListUnaggregated returns trades whose aggregation never committed.
func (s *LedgerService) ListUnaggregated(ctx context.Context) ([]*domain.Trade, error) {
	return s.trades.FindUnaggregated(ctx)
}

// CorrectTrade amends the symbol or notes of a ledger row. This is a narrow
// correction tool, not a trade amendment: positions already aggregated from
// the old values are deliberately left untouched.
func (s *LedgerService) CorrectTrade(ctx context.Context, id int64, c domain.TradeCorrection) error {
	if c.Symbol != nil {
		normalized := *c.Symbol
		trade := domain.Trade{Symbol: normalized}
		trade.Normalize()
		if trade.Symbol == "" {
			return fmt.Errorf("%w: symbol must not be empty", ports.ErrValidation)
		}
		normalized = trade.Symbol
		c.Symbol = &normalized
	}
	return s.trades.CorrectTrade(ctx, id, c)
}

// DeleteTrade removes a ledger row without unwinding positions.
func (s *LedgerService) DeleteTrade(ctx context.Context, id int64) error {
	return s.trades.DeleteTrade(ctx, id)
}

// ListPositions returns all positions ordered by open time descending.
func (s *LedgerService) ListPositions(ctx context.Context) ([]*domain.Position, error) {
	return s.posRepo.FindAll(ctx)
}

// ListAllocations returns the allocations applied to one position.
func (s *LedgerService) ListAllocations(ctx context.Context, positionID int64) ([]*domain.Allocation, error) {
	pos, err := s.posRepo.FindByID(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, fmt.Errorf("%w: position ID %d", ports.ErrNotFound, positionID)
	}
	return s.allocRepo.FindByPosition(ctx, positionID)
}

// noopEvents discards all position lifecycle events.
type noopEvents struct{}

func (noopEvents) PositionOpened(context.Context, *domain.Position, *domain.Trade)                {}
func (noopEvents) PositionAdjusted(context.Context, *domain.Position, *domain.Trade, domain.TradeAction) {
}
func (noopEvents) PositionClosed(context.Context, *domain.Position, *domain.Trade) {}

package ports

import (
	"context"
	"time"

	"tradeledger/internal/domain"
)

// TradeRepository defines the interface for the append-only trade ledger.
type TradeRepository interface {
	// CreateTrade saves a new trade and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindAllTrades retrieves all trades, ordered by id ascending.
	FindAllTrades(ctx context.Context) ([]*domain.Trade, error)
	// FindTradeByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error)
	// CorrectTrade applies the narrow symbol/notes correction to a ledger row.
	// It never re-triggers aggregation. Returns ErrNotFound if the id is absent.
	CorrectTrade(ctx context.Context, id int64, c domain.TradeCorrection) error
	// DeleteTrade removes a ledger row. Deleting does not unwind positions.
	DeleteTrade(ctx context.Context, id int64) error
	// FindUnaggregated retrieves trades whose aggregation never committed,
	// ordered by id ascending.
	FindUnaggregated(ctx context.Context) ([]*domain.Trade, error)
	// MarkAggregated stamps the trade as folded into position state.
	MarkAggregated(ctx context.Context, id int64, at time.Time) error
}

// PositionRepository defines the interface for storing and retrieving
// positions. It has no decision logic; the aggregation engine decides every
// persisted value.
type PositionRepository interface {
	// Create saves a new position and returns its assigned ID.
	Create(ctx context.Context, pos *domain.Position) (int64, error)
	// Update replaces the mutable fields of an existing position. The update
	// matches on pos.Version and increments it; it returns ErrNotFound if the
	// id no longer exists and ErrConflict if the row was mutated concurrently.
	Update(ctx context.Context, pos *domain.Position) error
	// FindOpenBySymbol retrieves the currently open position for a symbol,
	// if any. At most one exists. Returns nil, nil if no open position.
	FindOpenBySymbol(ctx context.Context, symbol string) (*domain.Position, error)
	// FindByID retrieves a position by its unique ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id int64) (*domain.Position, error)
	// FindAll retrieves all positions, ordered by open time descending.
	FindAll(ctx context.Context) ([]*domain.Position, error)
}

// AllocationRepository defines the interface for the trade-to-position join
// records. Allocations are pure appends and are never mutated or deleted.
type AllocationRepository interface {
	// CreateAllocation saves a new allocation and returns its assigned ID.
	CreateAllocation(ctx context.Context, alloc *domain.Allocation) (int64, error)
	// FindByPosition retrieves the allocations applied to a position,
	// ordered by id ascending.
	FindByPosition(ctx context.Context, positionID int64) ([]*domain.Allocation, error)
	// FindByTrade retrieves the allocations produced by one trade.
	FindByTrade(ctx context.Context, tradeID int64) ([]*domain.Allocation, error)
}

// Stores bundles the repositories participating in one transaction.
type Stores struct {
	Trades      TradeRepository
	Positions   PositionRepository
	Allocations AllocationRepository
}

// UnitOfWork executes a function within a single store transaction: either
// every write inside fn commits, or none become visible. The aggregation
// read-modify-write runs under it so partial position mutation is never seen.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

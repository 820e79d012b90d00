package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// Repository implements the trade, position and allocation repositories plus
// the unit of work using SQLite. Decimal values are stored as TEXT so no
// precision is lost through float conversion.
type Repository struct {
	store
	db *sql.DB
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// querier abstracts *sql.DB and *sql.Tx so the same statement code runs both
// standalone and inside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// store carries the statement implementations over a querier.
type store struct {
	q      querier
	logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trade_ledger.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection. WAL mode for better concurrency.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{store: store{q: db, logger: cfg.Logger}, db: db}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		price TEXT NOT NULL,
		quantity TEXT NOT NULL,
		pip_price TEXT NOT NULL,
		spread TEXT NOT NULL,
		account_balance TEXT NOT NULL,
		executed_at TIMESTAMP NOT NULL,
		notes TEXT DEFAULT NULL,
		aggregated_at TIMESTAMP DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		is_open INTEGER NOT NULL,
		direction TEXT NOT NULL,
		entry_price TEXT NOT NULL,
		close_price TEXT DEFAULT NULL,
		quantity TEXT NOT NULL,
		pip_price TEXT NOT NULL,
		pip_diff TEXT DEFAULT NULL,
		profit_loss TEXT DEFAULT NULL,
		win_loss TEXT DEFAULT NULL,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP DEFAULT NULL,
		notes TEXT DEFAULT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS position_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position_id INTEGER NOT NULL,
		trade_id INTEGER NOT NULL,
		quantity_allocated TEXT NOT NULL,
		trade_action TEXT NOT NULL,
		pip_diff TEXT DEFAULT NULL,
		profit_loss TEXT DEFAULT NULL,
		win_loss TEXT DEFAULT NULL
	);
	-- Add indexes for common lookups
	CREATE INDEX IF NOT EXISTS idx_positions_symbol_open ON positions (symbol, is_open);
	CREATE INDEX IF NOT EXISTS idx_trades_aggregated ON trades (aggregated_at);
	CREATE INDEX IF NOT EXISTS idx_position_trades_position ON position_trades (position_id);
	CREATE INDEX IF NOT EXISTS idx_position_trades_trade ON position_trades (trade_id);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// WithinTx runs fn inside one SQLite transaction. Any error rolls the whole
// unit back so partial position mutation is never visible.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, s ports.Stores) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ports.ErrPersistence, err)
	}

	txStore := &store{q: tx, logger: r.logger}
	stores := ports.Stores{Trades: txStore, Positions: txStore, Allocations: txStore}

	if err := fn(ctx, stores); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error(ctx, rbErr, "Transaction rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ports.ErrPersistence, err)
	}
	return nil
}

// --- TradeRepository Implementation ---

// CreateTrade saves a new trade and returns its assigned ID.
func (s *store) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (symbol, side, price, quantity, pip_price, spread, account_balance, executed_at, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.q.ExecContext(ctx, query,
		trade.Symbol, trade.Side, trade.Price.String(), trade.Quantity.String(),
		trade.PipPrice.String(), trade.Spread.String(), trade.AccountBalance.String(),
		trade.ExecutedAt, nullString(trade.Notes))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert trade for symbol %s: %v", ports.ErrPersistence, trade.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get last insert ID for trade %s: %v", ports.ErrPersistence, trade.Symbol, err)
	}
	trade.ID = id // Update the domain object with the ID
	s.logger.Debug(ctx, "Trade recorded", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol, "side": trade.Side})
	return id, nil
}

const tradeColumns = `id, symbol, side, price, quantity, pip_price, spread, account_balance, executed_at, notes, aggregated_at`

// FindAllTrades retrieves all trades, ordered by id ascending.
func (s *store) FindAllTrades(ctx context.Context) ([]*domain.Trade, error) {
	return s.queryTrades(ctx, `SELECT `+tradeColumns+` FROM trades ORDER BY id`)
}

// FindTradeByID retrieves a trade by its unique ID.
func (s *store) FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("%w: failed to query trade by ID %d: %v", ports.ErrPersistence, id, err)
	}
	return trade, nil
}

// FindUnaggregated retrieves trades whose aggregation never committed.
func (s *store) FindUnaggregated(ctx context.Context) ([]*domain.Trade, error) {
	return s.queryTrades(ctx, `SELECT `+tradeColumns+` FROM trades WHERE aggregated_at IS NULL ORDER BY id`)
}

func (s *store) queryTrades(ctx context.Context, query string, args ...interface{}) ([]*domain.Trade, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query trades: %v", ports.ErrPersistence, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan trade row: %v", ports.ErrPersistence, err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating trade rows: %v", ports.ErrPersistence, err)
	}
	return trades, nil
}

// CorrectTrade applies the narrow symbol/notes correction to a ledger row.
func (s *store) CorrectTrade(ctx context.Context, id int64, c domain.TradeCorrection) error {
	const query = `
	UPDATE trades
	SET symbol = COALESCE(?, symbol), notes = COALESCE(?, notes)
	WHERE id = ?`

	result, err := s.q.ExecContext(ctx, query, nullString(c.Symbol), nullString(c.Notes), id)
	if err != nil {
		return fmt.Errorf("%w: failed to correct trade ID %d: %v", ports.ErrPersistence, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected for trade ID %d: %v", ports.ErrPersistence, id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: trade ID %d", ports.ErrNotFound, id)
	}
	s.logger.Debug(ctx, "Trade corrected", map[string]interface{}{"tradeID": id})
	return nil
}

// DeleteTrade removes a ledger row. Deleting is idempotent and never unwinds
// the positions the trade already contributed to.
func (s *store) DeleteTrade(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: failed to delete trade ID %d: %v", ports.ErrPersistence, id, err)
	}
	s.logger.Debug(ctx, "Trade deleted", map[string]interface{}{"tradeID": id})
	return nil
}

// MarkAggregated stamps the trade as folded into position state.
func (s *store) MarkAggregated(ctx context.Context, id int64, at time.Time) error {
	result, err := s.q.ExecContext(ctx, `UPDATE trades SET aggregated_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("%w: failed to mark trade ID %d aggregated: %v", ports.ErrPersistence, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected for trade ID %d: %v", ports.ErrPersistence, id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: trade ID %d", ports.ErrNotFound, id)
	}
	return nil
}

// --- PositionRepository Implementation ---

// Create saves a new position and returns its assigned ID.
func (s *store) Create(ctx context.Context, pos *domain.Position) (int64, error) {
	const query = `
	INSERT INTO positions (symbol, is_open, direction, entry_price, close_price, quantity,
	                       pip_price, pip_diff, profit_loss, win_loss, opened_at, closed_at, notes, version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`

	result, err := s.q.ExecContext(ctx, query,
		pos.Symbol, pos.IsOpen, pos.Direction, pos.EntryPrice.String(),
		closedDecimal(pos, pos.ClosePrice), pos.Quantity.String(), pos.PipPrice.String(),
		closedDecimal(pos, pos.PipDiff), closedDecimal(pos, pos.ProfitLoss),
		nullWinLoss(pos.WinLoss), pos.OpenedAt, nullTime(pos.ClosedAt), nullString(pos.Notes))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert position for symbol %s: %v", ports.ErrPersistence, pos.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get last insert ID for position %s: %v", ports.ErrPersistence, pos.Symbol, err)
	}
	pos.ID = id
	pos.Version = 1
	s.logger.Debug(ctx, "Position created", map[string]interface{}{"positionID": id, "symbol": pos.Symbol, "direction": pos.Direction})
	return id, nil
}

// Update replaces the mutable fields of an existing position. The
// statement matches on the optimistic version token; zero affected rows with
// an existing id means the row was mutated concurrently.
func (s *store) Update(ctx context.Context, pos *domain.Position) error {
	const query = `
	UPDATE positions
	SET is_open = ?, entry_price = ?, close_price = ?, quantity = ?, pip_price = ?,
	    pip_diff = ?, profit_loss = ?, win_loss = ?, closed_at = ?, notes = ?, version = version + 1
	WHERE id = ? AND version = ?`

	result, err := s.q.ExecContext(ctx, query,
		pos.IsOpen, pos.EntryPrice.String(), closedDecimal(pos, pos.ClosePrice),
		pos.Quantity.String(), pos.PipPrice.String(), closedDecimal(pos, pos.PipDiff),
		closedDecimal(pos, pos.ProfitLoss), nullWinLoss(pos.WinLoss),
		nullTime(pos.ClosedAt), nullString(pos.Notes),
		pos.ID, pos.Version)
	if err != nil {
		return fmt.Errorf("%w: failed to update position ID %d: %v", ports.ErrPersistence, pos.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected for position ID %d: %v", ports.ErrPersistence, pos.ID, err)
	}
	if rowsAffected == 0 {
		existing, err := s.FindByID(ctx, pos.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: position ID %d", ports.ErrNotFound, pos.ID)
		}
		return fmt.Errorf("%w: position ID %d was modified concurrently", ports.ErrConflict, pos.ID)
	}
	pos.Version++
	s.logger.Debug(ctx, "Position updated", map[string]interface{}{"positionID": pos.ID, "symbol": pos.Symbol, "isOpen": pos.IsOpen})
	return nil
}

const positionColumns = `id, symbol, is_open, direction, entry_price, close_price, quantity,
       pip_price, pip_diff, profit_loss, win_loss, opened_at, closed_at, notes, version`

// FindOpenBySymbol retrieves the currently open position for a given symbol, if any.
func (s *store) FindOpenBySymbol(ctx context.Context, symbol string) (*domain.Position, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE symbol = ? AND is_open = 1`, symbol)
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("%w: failed to query open position for symbol %s: %v", ports.ErrPersistence, symbol, err)
	}
	return pos, nil
}

// FindByID retrieves a position by its unique ID.
func (s *store) FindByID(ctx context.Context, id int64) (*domain.Position, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = ?`, id)
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("%w: failed to query position by ID %d: %v", ports.ErrPersistence, id, err)
	}
	return pos, nil
}

// FindAll retrieves all positions, ordered by open time descending.
func (s *store) FindAll(ctx context.Context) ([]*domain.Position, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+positionColumns+` FROM positions ORDER BY opened_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query all positions: %v", ports.ErrPersistence, err)
	}
	defer rows.Close()

	positions := make([]*domain.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan position row: %v", ports.ErrPersistence, err)
		}
		positions = append(positions, pos)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating position rows: %v", ports.ErrPersistence, err)
	}
	return positions, nil
}

// --- AllocationRepository Implementation ---

// CreateAllocation saves a new allocation row.
func (s *store) CreateAllocation(ctx context.Context, alloc *domain.Allocation) (int64, error) {
	const query = `
	INSERT INTO position_trades (position_id, trade_id, quantity_allocated, trade_action, pip_diff, profit_loss, win_loss)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	var pipDiff, profitLoss, winLoss interface{}
	if alloc.Realized() {
		pipDiff = alloc.PipDiff.String()
		profitLoss = alloc.ProfitLoss.String()
		winLoss = string(alloc.WinLoss)
	}

	result, err := s.q.ExecContext(ctx, query,
		alloc.PositionID, alloc.TradeID, alloc.QuantityAllocated.String(), alloc.TradeAction,
		pipDiff, profitLoss, winLoss)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert allocation for trade %d: %v", ports.ErrPersistence, alloc.TradeID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get last insert ID for allocation: %v", ports.ErrPersistence, err)
	}
	alloc.ID = id
	s.logger.Debug(ctx, "Allocation recorded", map[string]interface{}{
		"allocationID": id, "positionID": alloc.PositionID, "tradeID": alloc.TradeID, "action": alloc.TradeAction})
	return id, nil
}

const allocationColumns = `id, position_id, trade_id, quantity_allocated, trade_action, pip_diff, profit_loss, win_loss`

// FindByPosition retrieves the allocations applied to a position.
func (s *store) FindByPosition(ctx context.Context, positionID int64) ([]*domain.Allocation, error) {
	return s.queryAllocations(ctx,
		`SELECT `+allocationColumns+` FROM position_trades WHERE position_id = ? ORDER BY id`, positionID)
}

// FindByTrade retrieves the allocations produced by one trade.
func (s *store) FindByTrade(ctx context.Context, tradeID int64) ([]*domain.Allocation, error) {
	return s.queryAllocations(ctx,
		`SELECT `+allocationColumns+` FROM position_trades WHERE trade_id = ? ORDER BY id`, tradeID)
}

func (s *store) queryAllocations(ctx context.Context, query string, args ...interface{}) ([]*domain.Allocation, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query allocations: %v", ports.ErrPersistence, err)
	}
	defer rows.Close()

	allocs := make([]*domain.Allocation, 0)
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan allocation row: %v", ports.ErrPersistence, err)
		}
		allocs = append(allocs, alloc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating allocation rows: %v", ports.ErrPersistence, err)
	}
	return allocs, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var price, quantity, pipPrice, spread, accountBalance string
	var notes sql.NullString
	var aggregatedAt sql.NullTime
	err := s.Scan(
		&t.ID, &t.Symbol, &t.Side, &price, &quantity, &pipPrice, &spread, &accountBalance,
		&t.ExecutedAt, &notes, &aggregatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if t.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if t.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, err
	}
	if t.PipPrice, err = decimal.NewFromString(pipPrice); err != nil {
		return nil, err
	}
	if t.Spread, err = decimal.NewFromString(spread); err != nil {
		return nil, err
	}
	if t.AccountBalance, err = decimal.NewFromString(accountBalance); err != nil {
		return nil, err
	}
	if notes.Valid {
		t.Notes = &notes.String
	}
	if aggregatedAt.Valid {
		t.AggregatedAt = &aggregatedAt.Time
	}
	return t, nil
}

// scanPosition scans a row into a domain.Position struct.
func scanPosition(s scanner) (*domain.Position, error) {
	p := &domain.Position{}
	var entryPrice, quantity, pipPrice string
	var closePrice, pipDiff, profitLoss, winLoss, notes sql.NullString
	var closedAt sql.NullTime
	err := s.Scan(
		&p.ID, &p.Symbol, &p.IsOpen, &p.Direction, &entryPrice, &closePrice, &quantity,
		&pipPrice, &pipDiff, &profitLoss, &winLoss, &p.OpenedAt, &closedAt, &notes, &p.Version)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if p.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
		return nil, err
	}
	if p.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, err
	}
	if p.PipPrice, err = decimal.NewFromString(pipPrice); err != nil {
		return nil, err
	}
	if p.ClosePrice, err = optionalDecimal(closePrice); err != nil {
		return nil, err
	}
	if p.PipDiff, err = optionalDecimal(pipDiff); err != nil {
		return nil, err
	}
	if p.ProfitLoss, err = optionalDecimal(profitLoss); err != nil {
		return nil, err
	}
	if winLoss.Valid {
		p.WinLoss = domain.WinLoss(winLoss.String)
	}
	if closedAt.Valid {
		p.ClosedAt = closedAt.Time
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	return p, nil
}

// scanAllocation scans a row into a domain.Allocation struct.
func scanAllocation(s scanner) (*domain.Allocation, error) {
	a := &domain.Allocation{}
	var quantity string
	var pipDiff, profitLoss, winLoss sql.NullString
	err := s.Scan(&a.ID, &a.PositionID, &a.TradeID, &quantity, &a.TradeAction, &pipDiff, &profitLoss, &winLoss)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if a.QuantityAllocated, err = decimal.NewFromString(quantity); err != nil {
		return nil, err
	}
	if a.PipDiff, err = optionalDecimal(pipDiff); err != nil {
		return nil, err
	}
	if a.ProfitLoss, err = optionalDecimal(profitLoss); err != nil {
		return nil, err
	}
	if winLoss.Valid {
		a.WinLoss = domain.WinLoss(winLoss.String)
	}
	return a, nil
}

func optionalDecimal(v sql.NullString) (decimal.Decimal, error) {
	if !v.Valid {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v.String)
}

// closedDecimal renders a close-only decimal field: NULL while the position
// is open, its value once closed.
func closedDecimal(pos *domain.Position, v decimal.Decimal) interface{} {
	if pos.IsOpen {
		return nil
	}
	return v.String()
}

func nullWinLoss(w domain.WinLoss) interface{} {
	if w == "" {
		return nil
	}
	return string(w)
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

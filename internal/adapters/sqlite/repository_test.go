package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// testLogger satisfies ports.Logger without output.
type testLogger struct{}

func (testLogger) Debug(context.Context, string, ...map[string]interface{})        {}
func (testLogger) Info(context.Context, string, ...map[string]interface{})         {}
func (testLogger) Warn(context.Context, string, ...map[string]interface{})         {}
func (testLogger) Error(context.Context, error, string, ...map[string]interface{}) {}

// setupTestDB creates a fresh repository backed by a file in a temp directory.
func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(Config{
		DBPath: filepath.Join(t.TempDir(), "test_ledger.db"),
		Logger: testLogger{},
	})
	require.NoError(t, err, "failed to initialize test repository")
	t.Cleanup(func() {
		assert.NoError(t, repo.Close())
	})
	return repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTrade() *domain.Trade {
	notes := "scalp entry"
	return &domain.Trade{
		Symbol:         "EURUSD",
		Side:           domain.Buy,
		Price:          dec("1.10005"),
		Quantity:       dec("10"),
		PipPrice:       dec("0.0001"),
		Spread:         dec("0.5"),
		AccountBalance: dec("10000.25"),
		ExecutedAt:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Notes:          &notes,
	}
}

func samplePosition() *domain.Position {
	return &domain.Position{
		Symbol:     "EURUSD",
		IsOpen:     true,
		Direction:  domain.Long,
		EntryPrice: dec("1.10005"),
		Quantity:   dec("10"),
		PipPrice:   dec("0.0001"),
		OpenedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateAndFindTrade(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	trade := sampleTrade()
	id, err := repo.CreateTrade(ctx, trade)
	require.NoError(t, err)
	assert.Equal(t, id, trade.ID, "ID should be set on the domain object")

	found, err := repo.FindTradeByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "EURUSD", found.Symbol)
	assert.Equal(t, domain.Buy, found.Side)
	assert.True(t, found.Price.Equal(dec("1.10005")), "price %s", found.Price)
	assert.True(t, found.AccountBalance.Equal(dec("10000.25")))
	assert.True(t, found.ExecutedAt.Equal(trade.ExecutedAt))
	require.NotNil(t, found.Notes)
	assert.Equal(t, "scalp entry", *found.Notes)
	assert.Nil(t, found.AggregatedAt, "a fresh trade is unaggregated")
}

func TestFindTradeByID_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	found, err := repo.FindTradeByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindAllTrades_OrderedByID(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	first := sampleTrade()
	second := sampleTrade()
	second.Symbol = "GBPUSD"
	_, err := repo.CreateTrade(ctx, first)
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, second)
	require.NoError(t, err)

	all, err := repo.FindAllTrades(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "EURUSD", all[0].Symbol)
	assert.Equal(t, "GBPUSD", all[1].Symbol)
}

func TestMarkAggregatedAndFindUnaggregated(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	first := sampleTrade()
	second := sampleTrade()
	_, err := repo.CreateTrade(ctx, first)
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, second)
	require.NoError(t, err)

	pending, err := repo.FindUnaggregated(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	stamp := time.Date(2024, 6, 1, 12, 0, 5, 0, time.UTC)
	require.NoError(t, repo.MarkAggregated(ctx, first.ID, stamp))

	pending, err = repo.FindUnaggregated(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	found, err := repo.FindTradeByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, found.AggregatedAt)
	assert.True(t, found.AggregatedAt.Equal(stamp))

	err = repo.MarkAggregated(ctx, 999, stamp)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestCorrectTrade(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	trade := sampleTrade()
	_, err := repo.CreateTrade(ctx, trade)
	require.NoError(t, err)

	symbol := "GBPUSD"
	require.NoError(t, repo.CorrectTrade(ctx, trade.ID, domain.TradeCorrection{Symbol: &symbol}))
	found, err := repo.FindTradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, "GBPUSD", found.Symbol)
	// Notes untouched by a symbol-only correction
	require.NotNil(t, found.Notes)
	assert.Equal(t, "scalp entry", *found.Notes)

	notes := "mislabeled instrument"
	require.NoError(t, repo.CorrectTrade(ctx, trade.ID, domain.TradeCorrection{Notes: &notes}))
	found, err = repo.FindTradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, "GBPUSD", found.Symbol)
	assert.Equal(t, "mislabeled instrument", *found.Notes)

	err = repo.CorrectTrade(ctx, 999, domain.TradeCorrection{Symbol: &symbol})
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestDeleteTrade_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	trade := sampleTrade()
	_, err := repo.CreateTrade(ctx, trade)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTrade(ctx, trade.ID))
	found, err := repo.FindTradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	// Deleting again is not an error
	require.NoError(t, repo.DeleteTrade(ctx, trade.ID))
}

func TestPositionRoundtrip(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	pos := samplePosition()
	id, err := repo.Create(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, id, pos.ID)
	assert.Equal(t, int64(1), pos.Version)

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsOpen)
	assert.Equal(t, domain.Long, found.Direction)
	assert.True(t, found.EntryPrice.Equal(dec("1.10005")))
	// Close-only fields come back as zero values while open
	assert.True(t, found.ClosePrice.IsZero())
	assert.True(t, found.ProfitLoss.IsZero())
	assert.Empty(t, found.WinLoss)
	assert.True(t, found.ClosedAt.IsZero())

	// Close it and verify the terminal fields persist
	found.IsOpen = false
	found.Quantity = decimal.Zero
	found.ClosePrice = dec("1.10505")
	found.PipDiff = dec("50")
	found.ProfitLoss = dec("0.05")
	found.WinLoss = domain.Win
	found.ClosedAt = time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, found))
	assert.Equal(t, int64(2), found.Version)

	closed, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen)
	assert.True(t, closed.Quantity.IsZero())
	assert.True(t, closed.ClosePrice.Equal(dec("1.10505")))
	assert.True(t, closed.PipDiff.Equal(dec("50")))
	assert.True(t, closed.ProfitLoss.Equal(dec("0.05")))
	assert.Equal(t, domain.Win, closed.WinLoss)
	assert.True(t, closed.ClosedAt.Equal(found.ClosedAt))
	assert.Equal(t, int64(2), closed.Version)
}

func TestFindOpenBySymbol(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	open, err := repo.FindOpenBySymbol(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Nil(t, open, "no open position yet")

	pos := samplePosition()
	_, err = repo.Create(ctx, pos)
	require.NoError(t, err)

	open, err = repo.FindOpenBySymbol(ctx, "EURUSD")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, pos.ID, open.ID)

	// A different symbol does not match
	open, err = repo.FindOpenBySymbol(ctx, "GBPUSD")
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestUpdate_OptimisticConcurrency(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	pos := samplePosition()
	_, err := repo.Create(ctx, pos)
	require.NoError(t, err)

	// Two readers hold the same version
	first, err := repo.FindByID(ctx, pos.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, pos.ID)
	require.NoError(t, err)

	first.Quantity = dec("15")
	require.NoError(t, repo.Update(ctx, first))

	// The stale reader loses the race
	second.Quantity = dec("5")
	err = repo.Update(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrConflict))

	// A vanished row is not found, not a conflict
	ghost := samplePosition()
	ghost.ID = 999
	ghost.Version = 1
	err = repo.Update(ctx, ghost)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestAllocationRoundtrip(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	pos := samplePosition()
	_, err := repo.Create(ctx, pos)
	require.NoError(t, err)
	trade := sampleTrade()
	_, err = repo.CreateTrade(ctx, trade)
	require.NoError(t, err)

	openAlloc := &domain.Allocation{
		PositionID:        pos.ID,
		TradeID:           trade.ID,
		QuantityAllocated: dec("10"),
		TradeAction:       domain.ActionOpen,
	}
	_, err = repo.CreateAllocation(ctx, openAlloc)
	require.NoError(t, err)

	closeAlloc := &domain.Allocation{
		PositionID:        pos.ID,
		TradeID:           trade.ID,
		QuantityAllocated: dec("10"),
		TradeAction:       domain.ActionClose,
		PipDiff:           dec("50"),
		ProfitLoss:        dec("0.05"),
		WinLoss:           domain.Win,
	}
	_, err = repo.CreateAllocation(ctx, closeAlloc)
	require.NoError(t, err)

	byPosition, err := repo.FindByPosition(ctx, pos.ID)
	require.NoError(t, err)
	require.Len(t, byPosition, 2)
	// OPEN rows carry no realized metrics
	assert.Equal(t, domain.ActionOpen, byPosition[0].TradeAction)
	assert.True(t, byPosition[0].PipDiff.IsZero())
	assert.True(t, byPosition[0].ProfitLoss.IsZero())
	assert.Empty(t, byPosition[0].WinLoss)
	// CLOSE rows do
	assert.Equal(t, domain.ActionClose, byPosition[1].TradeAction)
	assert.True(t, byPosition[1].PipDiff.Equal(dec("50")))
	assert.True(t, byPosition[1].ProfitLoss.Equal(dec("0.05")))
	assert.Equal(t, domain.Win, byPosition[1].WinLoss)

	byTrade, err := repo.FindByTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.Len(t, byTrade, 2)

	empty, err := repo.FindByPosition(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	sentinel := fmt.Errorf("boom")
	err := repo.WithinTx(ctx, func(ctx context.Context, st ports.Stores) error {
		if _, err := st.Trades.CreateTrade(ctx, sampleTrade()); err != nil {
			return err
		}
		if _, err := st.Positions.Create(ctx, samplePosition()); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	trades, err := repo.FindAllTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, trades, "failed unit of work must leave no trades")
	positions, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions, "failed unit of work must leave no positions")
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	var tradeID int64
	err := repo.WithinTx(ctx, func(ctx context.Context, st ports.Stores) error {
		id, err := st.Trades.CreateTrade(ctx, sampleTrade())
		if err != nil {
			return err
		}
		tradeID = id
		return st.Trades.MarkAggregated(ctx, id, time.Now().UTC())
	})
	require.NoError(t, err)

	found, err := repo.FindTradeByID(ctx, tradeID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.NotNil(t, found.AggregatedAt)
}

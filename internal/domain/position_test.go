package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceDelta(t *testing.T) {
	long := &Position{Direction: Long, EntryPrice: decimal.RequireFromString("1.1000")}
	short := &Position{Direction: Short, EntryPrice: decimal.RequireFromString("1.1000")}
	exit := decimal.RequireFromString("1.1050")

	assert.True(t, long.PriceDelta(exit).Equal(decimal.RequireFromString("0.0050")))
	assert.True(t, short.PriceDelta(exit).Equal(decimal.RequireFromString("-0.0050")))
}

func TestClassifyOutcome(t *testing.T) {
	assert.Equal(t, Win, ClassifyOutcome(decimal.RequireFromString("0.01")))
	assert.Equal(t, Loss, ClassifyOutcome(decimal.RequireFromString("-0.01")))
	assert.Equal(t, Breakeven, ClassifyOutcome(decimal.Zero))
}

func TestSideDirection(t *testing.T) {
	assert.Equal(t, Long, Buy.Direction())
	assert.Equal(t, Short, Sell.Direction())
	assert.Equal(t, Short, Long.Opposite())
	assert.Equal(t, Long, Short.Opposite())
	assert.True(t, Buy.IsValid())
	assert.True(t, Sell.IsValid())
	assert.False(t, TradeSide("HOLD").IsValid())
}

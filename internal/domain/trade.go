package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents one executed buy/sell event. Trades are the append-only
// source of truth: once recorded, only the symbol and notes may be corrected,
// because price, quantity and side have already been folded into position math.
type Trade struct {
	ID             int64           `json:"trade_id"`
	Symbol         string          `json:"symbol"`
	Side           TradeSide       `json:"trade_type"`
	Price          decimal.Decimal `json:"price"`
	Quantity       decimal.Decimal `json:"quantity"`
	PipPrice       decimal.Decimal `json:"pip_price"`       // value of one pip in quote currency
	Spread         decimal.Decimal `json:"spread"`          // pip spread paid on execution
	AccountBalance decimal.Decimal `json:"account_balance"` // account equity snapshot at execution
	ExecutedAt     time.Time       `json:"trade_time"`
	Notes          *string         `json:"notes,omitempty"`
	AggregatedAt   *time.Time      `json:"aggregated_at,omitempty"` // nil until position aggregation commits
}

// Normalize trims and upper-cases the symbol so that lookups and the
// single-open-position invariant operate on one canonical spelling.
func (t *Trade) Normalize() {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
}

// Validate checks the trade against the recording contract. It collects all
// violations into a single error so clients see every problem at once.
func (t *Trade) Validate() error {
	var errs []string

	if t.Symbol == "" {
		errs = append(errs, "symbol must not be empty")
	}
	if !t.Side.IsValid() {
		errs = append(errs, fmt.Sprintf("trade_type must be %s or %s", Buy, Sell))
	}
	if !t.Price.IsPositive() {
		errs = append(errs, "price must be positive")
	}
	if !t.Quantity.IsPositive() {
		errs = append(errs, "quantity must be positive")
	}
	// A zero pip price would make pip math undefined at close time, so it is
	// rejected here rather than surfacing as an arithmetic failure later.
	if !t.PipPrice.IsPositive() {
		errs = append(errs, "pip_price must be positive")
	}
	if t.Spread.IsNegative() {
		errs = append(errs, "spread must not be negative")
	}
	if t.ExecutedAt.IsZero() {
		errs = append(errs, "trade_time must be set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// TradeCorrection holds the narrow set of ledger-row fields that may be
// amended after recording. Nil fields are left unchanged.
type TradeCorrection struct {
	Symbol *string `json:"symbol"`
	Notes  *string `json:"notes"`
}

// IsEmpty reports whether the correction changes nothing.
func (c TradeCorrection) IsEmpty() bool {
	return c.Symbol == nil && c.Notes == nil
}

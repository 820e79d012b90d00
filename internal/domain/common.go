package domain

// TradeSide represents the side of an executed trade (BUY or SELL).
type TradeSide string

const (
	Buy  TradeSide = "BUY"
	Sell TradeSide = "SELL"
)

// IsValid reports whether the side is one of the known values.
func (s TradeSide) IsValid() bool {
	return s == Buy || s == Sell
}

// Direction returns the position direction a trade of this side opens.
func (s TradeSide) Direction() Direction {
	if s == Buy {
		return Long
	}
	return Short
}

// Direction represents the exposure direction of a position.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// TradeAction describes how a trade was applied to a position.
type TradeAction string

const (
	ActionOpen   TradeAction = "OPEN"
	ActionAdd    TradeAction = "ADD"
	ActionReduce TradeAction = "REDUCE"
	ActionClose  TradeAction = "CLOSE"
)

// WinLoss classifies the realized outcome of a closed or reduced exposure.
type WinLoss string

const (
	Win       WinLoss = "WIN"
	Loss      WinLoss = "LOSS"
	Breakeven WinLoss = "BREAKEVEN"
)

// PricePrecision is the number of decimal places derived prices and
// profit/loss values are rounded to. Intermediate arithmetic stays unrounded.
const PricePrecision int32 = 8

package domain

import "time"

// Trade is a manually journaled leveraged position.
// PositionSize is notional in the quote currency; the quantity of base asset
// (PositionSize / EntryPrice) is constant across entry and exit.
type Trade struct {
	ID           int64       // Unique identifier (from DB)
	UserID       string      // Owning user
	Pair         string      // Free-text pair string (e.g. "BTC/USDT")
	Direction    Direction   // long or short
	EntryPrice   float64     // Price at which the position was entered
	PositionSize float64     // Notional size in quote currency
	Leverage     int         // Leverage used for the position (>= 1)
	ExitPrice    float64     // Price at which the position was exited (0 if open)
	Status       TradeStatus // open or closed
	PNL          float64     // Realized P&L, frozen at close time, never recomputed
	OpenedAt     time.Time   // Timestamp the trade was journaled

	// Journal fields, opaque to the valuation pipeline.
	Strategy         string
	Emotions         string
	Mistakes         string
	Notes            string
	MarketConditions string
}

// IsOpen reports whether the trade is still open.
func (t *Trade) IsOpen() bool {
	return t.Status == StatusOpen
}

// BaseSymbol returns the upper-cased base asset of the trade's pair.
func (t *Trade) BaseSymbol() string {
	return BaseSymbol(t.Pair)
}

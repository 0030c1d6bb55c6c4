package domain

import "strings"

// Direction represents the side of a leveraged position.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Sign returns the P&L multiplier for the direction (+1 for long, -1 for short).
func (d Direction) Sign() float64 {
	if strings.EqualFold(string(d), string(Short)) {
		return -1
	}
	return 1
}

// TradeStatus represents the lifecycle state of a journal trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)

// BaseSymbol extracts the upper-cased base asset from a free-text pair string,
// e.g. "btc/usdt" -> "BTC". A pair without a separator is treated as a bare
// base symbol.
func BaseSymbol(pair string) string {
	base, _, _ := strings.Cut(pair, "/")
	return strings.ToUpper(strings.TrimSpace(base))
}

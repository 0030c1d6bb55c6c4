package pricing

import (
	"strings"

	"cryptoTradeJournal/internal/domain"
)

// priorityIDs maps high-volume ticker symbols straight to their CoinGecko
// identifiers, bypassing the asset-list scan. Symbols like "btc" collide with
// dozens of unrelated listings, so the curated table always wins.
var priorityIDs = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"bnb":   "binancecoin",
	"sol":   "solana",
	"xrp":   "ripple",
	"ada":   "cardano",
	"doge":  "dogecoin",
	"usdt":  "tether",
	"usdc":  "usd-coin",
	"aave":  "aave",
	"dot":   "polkadot",
	"link":  "chainlink",
	"ltc":   "litecoin",
	"matic": "matic-network",
	"trx":   "tron",
}

// ResolveIDs maps base symbols to provider-native asset identifiers.
//
// The priority table is consulted first; remaining symbols are matched against
// the asset list by identifier, display name, or ticker, first match wins.
// When the list contains colliding tickers the binding follows list order,
// which is not guaranteed stable across refreshes. Symbols that cannot be
// mapped are dropped; callers treat their absence as "price unavailable".
func ResolveIDs(symbols []string, assets []domain.AssetListEntry) map[string]string {
	resolved := make(map[string]string, len(symbols))
	if len(symbols) == 0 {
		return resolved
	}

	var remaining []string
	for _, symbol := range symbols {
		lower := strings.ToLower(strings.TrimSpace(symbol))
		if lower == "" {
			continue
		}
		if id, ok := priorityIDs[lower]; ok {
			resolved[symbol] = id
			continue
		}
		remaining = append(remaining, symbol)
	}

	for _, symbol := range remaining {
		lower := strings.ToLower(symbol)
		for _, asset := range assets {
			if asset.ID == lower ||
				strings.ToLower(asset.Name) == lower ||
				strings.ToLower(asset.Symbol) == lower {
				resolved[symbol] = asset.ID
				break
			}
		}
	}

	return resolved
}

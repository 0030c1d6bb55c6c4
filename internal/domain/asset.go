package domain

// AssetListEntry is one row of a provider's asset-metadata listing, used by
// the fuzzy symbol resolver for providers whose price endpoint takes a
// provider-specific identifier instead of the ticker symbol.
type AssetListEntry struct {
	ID     string // Provider-native identifier (e.g. "bitcoin")
	Symbol string // Ticker symbol (e.g. "btc")
	Name   string // Display name (e.g. "Bitcoin")
}

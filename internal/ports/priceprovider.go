package ports

import (
	"context"

	"cryptoTradeJournal/internal/domain"
)

// PriceProvider wraps exactly one external price API behind a uniform fetch
// contract. Implementations perform a single batched query per call.
type PriceProvider interface {
	// Name identifies the provider in logs and configuration.
	Name() string
	// FetchPrices returns live USD prices keyed by upper-cased base symbol.
	// Zero usable results is a failure even if the HTTP call succeeded;
	// implementations return ErrNoPrices (wrapped) in that case.
	FetchPrices(ctx context.Context, symbols []string, assets []domain.AssetListEntry) (map[string]float64, error)
}

// AssetListSource supplies the cached master asset list used by the fuzzy
// symbol resolver. Implementations refresh the list on a freshness window
// rather than per call.
type AssetListSource interface {
	// AssetList returns the provider's asset-metadata listing. A stale cache
	// may be returned when a refresh fails.
	AssetList(ctx context.Context) ([]domain.AssetListEntry, error)
}

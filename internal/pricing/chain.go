package pricing

import (
	"context"
	"fmt"

	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/ports"
)

// Chain queries an ordered list of price providers and accepts the first one
// that returns at least one usable price. No merging across providers happens
// within one cycle: an all-or-nothing acceptance per provider is simpler and
// more predictable than a partial merge given free-tier, rate-limited APIs
// with inconsistent symbol coverage.
type Chain struct {
	providers []ports.PriceProvider
	logger    ports.Logger
}

// NewChain creates a provider chain with the given priority order.
func NewChain(providers []ports.PriceProvider, logger ports.Logger) (*Chain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: provider chain requires at least one provider", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is required for provider chain", ports.ErrConfigurationError)
	}
	return &Chain{providers: providers, logger: logger}, nil
}

// FetchLivePrices tries providers in priority order and returns the first
// non-empty price map. If every provider fails it returns an empty map, never
// an error; callers treat an empty result as "skip this cycle's valuation",
// not as zero prices.
func (c *Chain) FetchLivePrices(ctx context.Context, symbols []string, assets []domain.AssetListEntry) map[string]float64 {
	if len(symbols) == 0 {
		return map[string]float64{}
	}

	for _, provider := range c.providers {
		prices, err := provider.FetchPrices(ctx, symbols, assets)
		if err != nil {
			c.logger.Warn(ctx, "Price provider failed, falling through", map[string]interface{}{
				"provider": provider.Name(),
				"error":    err.Error(),
			})
			continue
		}
		if len(prices) == 0 {
			// Providers are expected to error on empty results; guard anyway.
			c.logger.Warn(ctx, "Price provider returned empty result, falling through", map[string]interface{}{
				"provider": provider.Name(),
			})
			continue
		}
		c.logger.Info(ctx, "Live prices fetched", map[string]interface{}{
			"provider":  provider.Name(),
			"requested": len(symbols),
			"resolved":  len(prices),
		})
		return prices
	}

	c.logger.Error(ctx, ports.ErrNoPrices, "All price providers failed", map[string]interface{}{
		"symbols": symbols,
	})
	return map[string]float64{}
}

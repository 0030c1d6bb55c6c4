package binanceprice

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/ports"

	"github.com/adshao/go-binance/v2"
)

// Client implements ports.PriceProvider over the public Binance spot ticker
// endpoint. Prices are quoted against USDT, treated as USD-equivalent. No API
// key is needed for public market data.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance price adapter.
type Config struct {
	Logger ports.Logger
}

// New creates a new Binance price adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for Binance price client", ports.ErrConfigurationError)
	}
	return &Client{
		spotClient: binance.NewClient("", ""),
		logger:     cfg.Logger,
	}, nil
}

// Name identifies the provider in logs and configuration.
func (c *Client) Name() string { return "binance" }

// FetchPrices queries the batched ticker-price endpoint for SYMBOLUSDT pairs
// and maps results back to bare base symbols. The asset list is unused:
// Binance is addressed by ticker directly.
func (c *Client) FetchPrices(ctx context.Context, symbols []string, _ []domain.AssetListEntry) (map[string]float64, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("binance: %w", ports.ErrNoSymbolsResolved)
	}

	pairs := make([]string, 0, len(symbols))
	hasUSDT := false
	for _, symbol := range symbols {
		upper := strings.ToUpper(strings.TrimSpace(symbol))
		if upper == "" {
			continue
		}
		if upper == "USDT" {
			// USDT/USDT is not a listed pair; it is the quote itself.
			hasUSDT = true
			continue
		}
		pairs = append(pairs, upper+"USDT")
	}
	if len(pairs) == 0 {
		if hasUSDT {
			return map[string]float64{"USDT": 1.0}, nil
		}
		return nil, fmt.Errorf("binance: %w", ports.ErrNoSymbolsResolved)
	}

	tickers, err := c.spotClient.NewListPricesService().Symbols(pairs).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: %w: %v", ports.ErrProviderUnavailable, err)
	}

	prices := make(map[string]float64, len(tickers))
	for _, ticker := range tickers {
		price, err := strconv.ParseFloat(ticker.Price, 64)
		if err != nil || price <= 0 {
			c.logger.Debug(ctx, "Skipping unparseable ticker price", map[string]interface{}{
				"symbol": ticker.Symbol,
				"price":  ticker.Price,
			})
			continue
		}
		base := strings.TrimSuffix(ticker.Symbol, "USDT")
		prices[base] = price
	}

	if hasUSDT {
		// The quote currency itself always prices at 1.
		prices["USDT"] = 1.0
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("binance: %w", ports.ErrNoPrices)
	}
	return prices, nil
}

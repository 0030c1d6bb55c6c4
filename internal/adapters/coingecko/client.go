package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/ports"
	"cryptoTradeJournal/internal/pricing"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Client implements ports.PriceProvider and ports.AssetListSource against the
// CoinGecko simple-price and coins-list endpoints. The coin list is cached
// with a freshness window because it is large and changes rarely.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     ports.Logger

	assetMu        sync.Mutex
	assetCache     []domain.AssetListEntry
	assetFetchedAt time.Time
	assetTTL       time.Duration
}

// Config holds configuration for the CoinGecko adapter.
type Config struct {
	BaseURL         string
	APIKey          string        // Optional pro/demo key
	RequestTimeout  time.Duration // Per-request timeout (default 10s)
	RateLimitPerSec float64       // Free tier is severely rate limited (default 0.5)
	AssetListTTL    time.Duration // Coin-list freshness window (default 24h)
	Logger          ports.Logger
}

type simplePriceResponse map[string]map[string]float64

type coinListEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// New creates a new CoinGecko adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for CoinGecko client", ports.ErrConfigurationError)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	perSec := cfg.RateLimitPerSec
	if perSec <= 0 {
		perSec = 0.5
	}
	ttl := cfg.AssetListTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSec), 1),
		logger:     cfg.Logger,
		assetTTL:   ttl,
	}, nil
}

// Name identifies the provider in logs and configuration.
func (c *Client) Name() string { return "coingecko" }

// FetchPrices resolves the requested symbols to CoinGecko identifiers and
// queries the simple-price endpoint in one batched call.
func (c *Client) FetchPrices(ctx context.Context, symbols []string, assets []domain.AssetListEntry) (map[string]float64, error) {
	symbolToID := pricing.ResolveIDs(symbols, assets)
	if len(symbolToID) == 0 {
		return nil, fmt.Errorf("coingecko: %w", ports.ErrNoSymbolsResolved)
	}

	seen := make(map[string]bool, len(symbolToID))
	ids := make([]string, 0, len(symbolToID))
	for _, id := range symbolToID {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")

	var priceData simplePriceResponse
	if err := c.get(ctx, "/simple/price", params, &priceData); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(symbolToID))
	for symbol, id := range symbolToID {
		if quote, ok := priceData[id]; ok {
			if usd, ok := quote["usd"]; ok && usd > 0 {
				prices[strings.ToUpper(symbol)] = usd
			}
		}
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("coingecko: %w", ports.ErrNoPrices)
	}
	return prices, nil
}

// AssetList returns the cached coin list, refreshing it when the freshness
// window has elapsed. A refresh failure falls back to the stale cache when
// one exists.
func (c *Client) AssetList(ctx context.Context) ([]domain.AssetListEntry, error) {
	c.assetMu.Lock()
	defer c.assetMu.Unlock()

	if c.assetCache != nil && time.Since(c.assetFetchedAt) < c.assetTTL {
		return c.assetCache, nil
	}

	var entries []coinListEntry
	if err := c.get(ctx, "/coins/list", nil, &entries); err != nil {
		if c.assetCache != nil {
			c.logger.Warn(ctx, "Coin list refresh failed, serving stale cache", map[string]interface{}{
				"error":    err.Error(),
				"cacheAge": time.Since(c.assetFetchedAt).String(),
			})
			return c.assetCache, nil
		}
		return nil, err
	}

	assets := make([]domain.AssetListEntry, 0, len(entries))
	for _, e := range entries {
		assets = append(assets, domain.AssetListEntry{ID: e.ID, Symbol: e.Symbol, Name: e.Name})
	}
	c.assetCache = assets
	c.assetFetchedAt = time.Now()
	c.logger.Info(ctx, "Coin list cache refreshed", map[string]interface{}{"entries": len(assets)})
	return c.assetCache, nil
}

// get performs a rate-limited GET against the CoinGecko API and decodes the
// JSON response into result.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("coingecko: rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("coingecko: failed to create request for %s: %w", endpoint, err)
	}
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("x_cg_demo_api_key", c.apiKey)
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug(ctx, "CoinGecko request", map[string]interface{}{"url": req.URL.String()})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coingecko: %w: %v", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coingecko: %w: %s returned status %d", ports.ErrProviderUnavailable, endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("coingecko: %w: %v", ports.ErrProviderBadResponse, err)
	}
	return nil
}

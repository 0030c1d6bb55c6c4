package coincap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/ports"
)

const defaultBaseURL = "https://rest.coincap.io/v3"

// Client implements ports.PriceProvider over the CoinCap assets listing.
// CoinCap has no batched by-symbol quote endpoint, so the full asset page is
// fetched once per call and filtered locally. Less precise than the other
// providers (ticker collisions resolve to whichever listing appears first)
// but useful as a last-resort fallback.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the CoinCap adapter.
type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	Logger         ports.Logger
}

type assetsResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Symbol   string `json:"symbol"`
		PriceUSD string `json:"priceUsd"`
	} `json:"data"`
}

// New creates a new CoinCap adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for CoinCap client", ports.ErrConfigurationError)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

// Name identifies the provider in logs and configuration.
func (c *Client) Name() string { return "coincap" }

// FetchPrices downloads the asset listing and keeps entries whose ticker
// matches a requested symbol. The asset list parameter is unused: CoinCap's
// own listing carries the tickers.
func (c *Client) FetchPrices(ctx context.Context, symbols []string, _ []domain.AssetListEntry) (map[string]float64, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("coincap: %w", ports.ErrNoSymbolsResolved)
	}

	wanted := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		upper := strings.ToUpper(strings.TrimSpace(symbol))
		if upper != "" {
			wanted[upper] = true
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/assets", nil)
	if err != nil {
		return nil, fmt.Errorf("coincap: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coincap: %w: %v", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coincap: %w: assets returned status %d", ports.ErrProviderUnavailable, resp.StatusCode)
	}

	var body assetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("coincap: %w: %v", ports.ErrProviderBadResponse, err)
	}

	prices := make(map[string]float64, len(wanted))
	for _, asset := range body.Data {
		upper := strings.ToUpper(asset.Symbol)
		if !wanted[upper] {
			continue
		}
		if _, taken := prices[upper]; taken {
			continue // first listing wins
		}
		price, err := strconv.ParseFloat(asset.PriceUSD, 64)
		if err != nil || price <= 0 {
			c.logger.Debug(ctx, "Skipping unparseable CoinCap price", map[string]interface{}{
				"asset": asset.ID,
				"price": asset.PriceUSD,
			})
			continue
		}
		prices[upper] = price
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("coincap: %w", ports.ErrNoPrices)
	}
	return prices, nil
}

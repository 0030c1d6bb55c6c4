package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cryptoTradeJournal/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Telegram
	BotToken    string
	AdminChatID string // Optional recipient for operator failure notices

	// Price providers
	ProviderOrder      []string // Fallback priority, e.g. ["coingecko", "binance", "coincap"]
	CoinGeckoBaseURL   string
	CoinGeckoAPIKey    string
	CoinGeckoRateLimit float64 // Requests per second against the free tier
	CoinCapBaseURL     string
	CoinCapAPIKey      string
	AssetListTTL       time.Duration
	RequestTimeout     time.Duration

	// Alerting
	LiquidationWarnPercent float64

	// Scheduling
	CheckInterval time.Duration

	// Webhook server
	WebhookAddr string

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel
}

var knownProviders = map[string]bool{
	"coingecko": true,
	"binance":   true,
	"coincap":   true,
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.BotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	if cfg.BotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN must be set")
	}
	cfg.AdminChatID = getEnv("ADMIN_CHAT_ID", "")

	orderStr := getEnv("PROVIDER_ORDER", "coingecko,binance,coincap")
	for _, name := range strings.Split(orderStr, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !knownProviders[name] {
			errs = append(errs, fmt.Sprintf("unknown provider %q in PROVIDER_ORDER", name))
			continue
		}
		cfg.ProviderOrder = append(cfg.ProviderOrder, name)
	}
	if len(cfg.ProviderOrder) == 0 {
		errs = append(errs, "PROVIDER_ORDER must name at least one provider")
	}

	cfg.CoinGeckoBaseURL = getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3")
	cfg.CoinGeckoAPIKey = getEnv("COINGECKO_API_KEY", "")
	cfg.CoinGeckoRateLimit = getEnvAsFloat("COINGECKO_RATE_LIMIT_PER_SEC", 0.5)
	if cfg.CoinGeckoRateLimit <= 0 {
		errs = append(errs, "COINGECKO_RATE_LIMIT_PER_SEC must be positive")
	}
	cfg.CoinCapBaseURL = getEnv("COINCAP_BASE_URL", "https://rest.coincap.io/v3")
	cfg.CoinCapAPIKey = getEnv("COINCAP_API_KEY", "")

	assetListTTLHours := getEnvAsInt("ASSET_LIST_TTL_HOURS", 24)
	if assetListTTLHours <= 0 {
		errs = append(errs, "ASSET_LIST_TTL_HOURS must be positive")
	}
	cfg.AssetListTTL = time.Duration(assetListTTLHours) * time.Hour

	requestTimeoutSec := getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 10)
	if requestTimeoutSec <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT_SECONDS must be positive")
	}
	cfg.RequestTimeout = time.Duration(requestTimeoutSec) * time.Second

	cfg.LiquidationWarnPercent = getEnvAsFloat("LIQUIDATION_WARN_PERCENT", 5.0)
	if cfg.LiquidationWarnPercent <= 0 || cfg.LiquidationWarnPercent >= 100 {
		errs = append(errs, "LIQUIDATION_WARN_PERCENT must be between 0 and 100 (exclusive)")
	}

	checkIntervalMin := getEnvAsInt("CHECK_INTERVAL_MINUTES", 15)
	if checkIntervalMin <= 0 {
		errs = append(errs, "CHECK_INTERVAL_MINUTES must be positive")
	}
	cfg.CheckInterval = time.Duration(checkIntervalMin) * time.Minute

	cfg.WebhookAddr = getEnv("WEBHOOK_ADDR", ":8080")

	cfg.DBPath = getEnv("DB_PATH", "./data/trade_journal.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"cryptoTradeJournal/config"
	"cryptoTradeJournal/internal/adapters/binanceprice"
	"cryptoTradeJournal/internal/adapters/coincap"
	"cryptoTradeJournal/internal/adapters/coingecko"
	"cryptoTradeJournal/internal/adapters/logger"
	"cryptoTradeJournal/internal/adapters/sqlite"
	"cryptoTradeJournal/internal/adapters/telegram"
	"cryptoTradeJournal/internal/app"
	"cryptoTradeJournal/internal/notify"
	"cryptoTradeJournal/internal/ports"
	"cryptoTradeJournal/internal/pricing"
	"cryptoTradeJournal/internal/report"
	"cryptoTradeJournal/internal/webhook"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Price Providers in the configured fallback order
	geckoClient, err := coingecko.New(coingecko.Config{
		BaseURL:         cfg.CoinGeckoBaseURL,
		APIKey:          cfg.CoinGeckoAPIKey,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitPerSec: cfg.CoinGeckoRateLimit,
		AssetListTTL:    cfg.AssetListTTL,
		Logger:          appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize CoinGecko client: %v", err)
	}
	binanceClient, err := binanceprice.New(binanceprice.Config{Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance price client: %v", err)
	}
	coincapClient, err := coincap.New(coincap.Config{
		BaseURL:        cfg.CoinCapBaseURL,
		APIKey:         cfg.CoinCapAPIKey,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize CoinCap client: %v", err)
	}

	byName := map[string]ports.PriceProvider{
		"coingecko": geckoClient,
		"binance":   binanceClient,
		"coincap":   coincapClient,
	}
	providers := make([]ports.PriceProvider, 0, len(cfg.ProviderOrder))
	for _, name := range cfg.ProviderOrder {
		providers = append(providers, byName[name])
	}
	chain, err := pricing.NewChain(providers, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize price provider chain: %v", err)
	}
	appLogger.Info(context.Background(), "Price providers initialized", map[string]interface{}{
		"order": cfg.ProviderOrder,
	})

	// 5. Initialize Telegram Notifier
	tgClient, err := telegram.New(telegram.Config{
		BotToken:       cfg.BotToken,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Telegram client: %v", err)
	}

	// 6. Initialize Analyzer and Dispatcher
	analyzer, err := report.NewAnalyzer(report.Config{
		LiquidationWarnPercent: cfg.LiquidationWarnPercent,
		Logger:                 appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize analyzer: %v", err)
	}
	dispatcher, err := notify.NewDispatcher(tgClient, repo, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize dispatcher: %v", err)
	}

	// 7. Initialize Application Service
	checkService, err := app.NewCheckService(
		cfg,
		appLogger,
		repo, // Trade repository
		repo, // Profile repository
		geckoClient,
		chain,
		analyzer,
		dispatcher,
		tgClient,
	)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize check service: %v", err)
	}

	// 8. Initialize Webhook Server
	webhookServer, err := webhook.New(webhook.Config{
		Addr:    cfg.WebhookAddr,
		Handler: checkService,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize webhook server: %v", err)
	}

	// 9. Run the scheduler and the webhook server until a shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return checkService.Run(gctx) })
	g.Go(func() error { return webhookServer.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error(context.Background(), err, "Service exited with error")
		log.Fatalf("FATAL: Service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}

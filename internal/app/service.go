package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"cryptoTradeJournal/config"
	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/notify"
	"cryptoTradeJournal/internal/ports"
	"cryptoTradeJournal/internal/pricing"
	"cryptoTradeJournal/internal/report"
)

// CycleResult is the structured outcome of one scheduled evaluation cycle,
// intended for operational logging.
type CycleResult struct {
	StatusCode int
	Message    string
}

// CheckService orchestrates one evaluation cycle: load open trades and
// profiles, resolve prices, valuate, analyze, dispatch notifications.
type CheckService struct {
	cfg         *config.Config
	logger      ports.Logger
	tradeRepo   ports.TradeRepository
	profileRepo ports.ProfileRepository
	assets      ports.AssetListSource
	chain       *pricing.Chain
	analyzer    *report.Analyzer
	dispatcher  *notify.Dispatcher
	notifier    ports.Notifier
}

// NewCheckService creates a new application service instance.
func NewCheckService(
	cfg *config.Config,
	logger ports.Logger,
	tradeRepo ports.TradeRepository,
	profileRepo ports.ProfileRepository,
	assets ports.AssetListSource,
	chain *pricing.Chain,
	analyzer *report.Analyzer,
	dispatcher *notify.Dispatcher,
	notifier ports.Notifier,
) (*CheckService, error) {
	if cfg == nil || logger == nil || tradeRepo == nil || profileRepo == nil ||
		assets == nil || chain == nil || analyzer == nil || dispatcher == nil || notifier == nil {
		return nil, fmt.Errorf("%w: missing required dependencies for CheckService", ports.ErrConfigurationError)
	}
	return &CheckService{
		cfg:         cfg,
		logger:      logger,
		tradeRepo:   tradeRepo,
		profileRepo: profileRepo,
		assets:      assets,
		chain:       chain,
		analyzer:    analyzer,
		dispatcher:  dispatcher,
		notifier:    notifier,
	}, nil
}

// Run executes cycles on the configured interval until the context is
// canceled. Overlap between a slow cycle and the next tick is prevented by
// running cycles on a single goroutine.
func (s *CheckService) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Check service started", map[string]interface{}{
		"interval": s.cfg.CheckInterval.String(),
	})

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		result, err := s.RunCycle(ctx)
		if err != nil {
			s.logger.Error(ctx, err, "Cycle finished with error", map[string]interface{}{
				"status": result.StatusCode,
			})
		} else {
			s.logger.Info(ctx, "Cycle finished", map[string]interface{}{
				"status":  result.StatusCode,
				"message": result.Message,
			})
		}

		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Check service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle executes one evaluation cycle. A failure to read trades or
// profiles is fatal to the cycle; every later failure is absorbed
// per-component (provider fall-through, skipped valuations, logged
// notification failures).
func (s *CheckService) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()

	trades, err := s.tradeRepo.FindOpen(ctx)
	if err != nil {
		s.notifyAdmin(ctx, fmt.Sprintf("Trade check cycle aborted: %v", err))
		return CycleResult{StatusCode: 500, Message: "failed to load open trades"},
			fmt.Errorf("failed to load open trades: %w", err)
	}
	profiles, err := s.profileRepo.FindNotifiable(ctx)
	if err != nil {
		s.notifyAdmin(ctx, fmt.Sprintf("Trade check cycle aborted: %v", err))
		return CycleResult{StatusCode: 500, Message: "failed to load profiles"},
			fmt.Errorf("failed to load profiles: %w", err)
	}

	profileByUser := make(map[string]*domain.Profile, len(profiles))
	for _, profile := range profiles {
		profileByUser[profile.UserID] = profile
	}

	valuations := s.valuate(ctx, trades)
	analysis := s.analyzer.Analyze(ctx, valuations, profileByUser, time.Now())

	// Users with no open trades at all get the distinct no-positions report.
	// Users whose trades all failed to price get nothing this cycle.
	openCount := lo.CountValuesBy(trades, func(t *domain.Trade) string { return t.UserID })
	for _, profile := range profiles {
		if openCount[profile.UserID] == 0 {
			analysis.Reports[profile.ChatID] = report.NoPositionsReport(profile.FullName, time.Now())
		}
	}

	s.dispatcher.DispatchAlerts(ctx, analysis.Alerts)
	s.dispatcher.DispatchReports(ctx, analysis.Reports, profiles)

	msg := fmt.Sprintf("checked %d trades, %d valuated, %d alerts, %d reports in %s",
		len(trades), len(valuations), len(analysis.Alerts), len(analysis.Reports),
		time.Since(start).Round(time.Millisecond))
	return CycleResult{StatusCode: 200, Message: msg}, nil
}

// valuate fetches live prices for the trades' base symbols and computes a
// valuation per trade. Trades whose symbol did not price are skipped
// silently; that is "price unavailable", not an error.
func (s *CheckService) valuate(ctx context.Context, trades []*domain.Trade) []report.TradeValuation {
	if len(trades) == 0 {
		return nil
	}

	symbols := lo.Uniq(lo.Map(trades, func(t *domain.Trade, _ int) string { return t.BaseSymbol() }))

	assets, err := s.assets.AssetList(ctx)
	if err != nil {
		// The fuzzy resolver degrades without the list; the priority table
		// and ticker-addressed providers still work.
		s.logger.Warn(ctx, "Asset list unavailable", map[string]interface{}{"error": err.Error()})
		assets = nil
	}

	prices := s.chain.FetchLivePrices(ctx, symbols, assets)
	if len(prices) == 0 {
		return nil
	}

	valuations := make([]report.TradeValuation, 0, len(trades))
	for _, trade := range trades {
		price, ok := prices[trade.BaseSymbol()]
		if !ok {
			continue
		}
		v, err := domain.Valuate(trade, price)
		if err != nil {
			s.logger.Warn(ctx, "Skipping unvaluable trade", map[string]interface{}{
				"tradeID": trade.ID,
				"error":   err.Error(),
			})
			continue
		}
		valuations = append(valuations, report.TradeValuation{Trade: trade, Valuation: v})
	}
	return valuations
}

// HandleStart serves the /start chat command: build the requesting user's
// on-demand report and deliver it as a new message, persisting the new
// message id for the edit-in-place strategy.
func (s *CheckService) HandleStart(ctx context.Context, chatID string) error {
	profile, err := s.profileRepo.FindByChatID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to look up profile for chat: %w", err)
	}
	if profile == nil {
		if _, err := s.notifier.SendMessage(ctx, chatID,
			"Your profile was not found. Please register your Chat ID in the web app first.", false); err != nil {
			s.logger.Warn(ctx, "Failed to answer unregistered chat", map[string]interface{}{"chatID": chatID})
		}
		return nil
	}

	trades, err := s.tradeRepo.FindOpenByUser(ctx, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to load trades for user %s: %w", profile.UserID, err)
	}

	var text string
	if len(trades) == 0 {
		text = report.NoPositionsReport(profile.FullName, time.Now())
	} else {
		valuations := s.valuate(ctx, trades)
		if len(valuations) == 0 {
			s.logger.Warn(ctx, "No prices available for on-demand report", map[string]interface{}{
				"userID": profile.UserID,
			})
			return nil
		}
		text = report.BuildReport(profile.FullName, valuations, time.Now())
	}

	messageID, err := s.notifier.SendMessage(ctx, chatID, text, true)
	if err != nil {
		return fmt.Errorf("failed to send on-demand report: %w", err)
	}
	if err := s.profileRepo.UpdateLastReportMessageID(ctx, profile.UserID, messageID); err != nil {
		s.logger.Error(ctx, err, "On-demand report sent but message ID not persisted", map[string]interface{}{
			"userID": profile.UserID,
		})
	}
	return nil
}

// CloseTrade freezes the realized P&L at exitPrice and marks the trade
// closed. The frozen figure uses the same formula as the live valuation so
// the two agree at the moment of closure; it is never recomputed afterwards.
func (s *CheckService) CloseTrade(ctx context.Context, tradeID int64, exitPrice float64) (float64, error) {
	trade, err := s.tradeRepo.FindByID(ctx, tradeID)
	if err != nil {
		return 0, fmt.Errorf("failed to load trade %d: %w", tradeID, err)
	}
	if trade == nil {
		return 0, fmt.Errorf("trade %d: %w", tradeID, ports.ErrNotFound)
	}
	if !trade.IsOpen() {
		return 0, fmt.Errorf("%w: trade %d is already closed", ports.ErrInvalidRequest, tradeID)
	}

	pnl, err := domain.RealizedPNL(trade, exitPrice)
	if err != nil {
		return 0, fmt.Errorf("failed to compute realized P&L for trade %d: %w", tradeID, err)
	}
	if err := s.tradeRepo.CloseTrade(ctx, tradeID, exitPrice, pnl); err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "Trade closed", map[string]interface{}{
		"tradeID":   tradeID,
		"exitPrice": exitPrice,
		"pnl":       pnl,
	})
	return pnl, nil
}

// notifyAdmin sends an operator notice when a cycle aborts. Best effort.
func (s *CheckService) notifyAdmin(ctx context.Context, text string) {
	if s.cfg.AdminChatID == "" {
		return
	}
	if _, err := s.notifier.SendMessage(ctx, s.cfg.AdminChatID, text, false); err != nil {
		s.logger.Error(ctx, err, "Failed to notify admin")
	}
}

package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/ports"
)

const defaultLiquidationWarnPercent = 5.0

// TradeValuation pairs an open trade with its live valuation for one cycle.
type TradeValuation struct {
	Trade     *domain.Trade
	Valuation domain.Valuation
}

// Alert is a single urgent notification addressed to one recipient.
type Alert struct {
	ChatID string
	Text   string
}

// Analysis is the outcome of one evaluation cycle: urgent alerts plus the
// aggregate periodic report text per recipient chat.
type Analysis struct {
	Alerts  []Alert
	Reports map[string]string
}

// Analyzer decides which trades cross an urgent-alert threshold and builds
// the per-user periodic report texts.
type Analyzer struct {
	liquidationWarnPercent float64
	logger                 ports.Logger
}

// Config holds configuration for the Analyzer.
type Config struct {
	// LiquidationWarnPercent is the distance-to-liquidation below which a
	// warning fires. Defaults to 5.
	LiquidationWarnPercent float64
	Logger                 ports.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for analyzer", ports.ErrConfigurationError)
	}
	warn := cfg.LiquidationWarnPercent
	if warn <= 0 {
		warn = defaultLiquidationWarnPercent
	}
	return &Analyzer{liquidationWarnPercent: warn, logger: cfg.Logger}, nil
}

// Analyze partitions the cycle's valuations into urgent alerts and per-user
// periodic reports. Trades whose owner has no notifiable profile are skipped
// silently; every valuated trade of a notifiable owner contributes a report
// block whether or not an urgent alert also fired.
//
// When a trade triggers both the profit and the liquidation condition, the
// liquidation warning is the single urgent message for that trade.
func (a *Analyzer) Analyze(ctx context.Context, valuations []TradeValuation, profiles map[string]*domain.Profile, now time.Time) Analysis {
	analysis := Analysis{Reports: make(map[string]string)}

	perUser := make(map[string][]TradeValuation)
	for _, tv := range valuations {
		profile := profiles[tv.Trade.UserID]
		if !profile.Notifiable() {
			a.logger.Debug(ctx, "Skipping trade without a notifiable owner", map[string]interface{}{
				"tradeID": tv.Trade.ID,
				"userID":  tv.Trade.UserID,
			})
			continue
		}

		if text, urgent := a.urgentAlertText(tv, profile); urgent {
			analysis.Alerts = append(analysis.Alerts, Alert{ChatID: profile.ChatID, Text: text})
		}
		perUser[tv.Trade.UserID] = append(perUser[tv.Trade.UserID], tv)
	}

	for userID, userValuations := range perUser {
		profile := profiles[userID]
		analysis.Reports[profile.ChatID] = BuildReport(profile.FullName, userValuations, now)
	}

	return analysis
}

// urgentAlertText returns the urgent message for a trade, if any. Liquidation
// proximity takes precedence over a profit target hit in the same cycle.
func (a *Analyzer) urgentAlertText(tv TradeValuation, profile *domain.Profile) (string, bool) {
	var text string

	if profile.ProfitAlertPercent != nil && tv.Valuation.PNLPercent >= *profile.ProfitAlertPercent {
		text = fmt.Sprintf(
			"🎯 *Profit target hit!*\n%s (%s) X%d is up %.2f%% (target %.2f%%).\nCurrent price: `%.4f`",
			tv.Trade.Pair, strings.ToUpper(string(tv.Trade.Direction)), tv.Trade.Leverage,
			tv.Valuation.PNLPercent, *profile.ProfitAlertPercent, tv.Valuation.LivePrice,
		)
	}

	if tv.Valuation.DistanceToLiquidationPct < a.liquidationWarnPercent {
		text = fmt.Sprintf(
			"⚠️ *Liquidation warning!*\n%s (%s) X%d is %.2f%% away from liquidation at `%.4f`.\nCurrent price: `%.4f`",
			tv.Trade.Pair, strings.ToUpper(string(tv.Trade.Direction)), tv.Trade.Leverage,
			tv.Valuation.DistanceToLiquidationPct, tv.Valuation.LiquidationPrice, tv.Valuation.LivePrice,
		)
	}

	return text, text != ""
}

// BuildReport renders the aggregate positions report for one user: a header
// naming the user, one block per valuated open trade, and a UTC timestamp
// footer.
func BuildReport(userName string, valuations []TradeValuation, now time.Time) string {
	var sb strings.Builder

	if len(valuations) == 0 {
		return NoPositionsReport(userName, now)
	}

	sb.WriteString(fmt.Sprintf("📊 *Hi %s, Your Open Positions Report:*\n\n", userName))
	for _, tv := range valuations {
		indicator := "🟢"
		if tv.Valuation.UnrealizedPNL < 0 {
			indicator = "🔴"
		}
		sb.WriteString(fmt.Sprintf("🔹 *%s* (%s) X%d\n",
			tv.Trade.Pair, strings.ToUpper(string(tv.Trade.Direction)), tv.Trade.Leverage))
		sb.WriteString(fmt.Sprintf("   - PNL: %s %.2f%% ($%.2f)\n",
			indicator, tv.Valuation.PNLPercent, tv.Valuation.UnrealizedPNL))
		sb.WriteString(fmt.Sprintf("   - Current Price: `%.4f`\n\n", tv.Valuation.LivePrice))
	}
	sb.WriteString(footer(now))
	return sb.String()
}

// NoPositionsReport is the distinct report sent when a user has no open
// positions at all.
func NoPositionsReport(userName string, now time.Time) string {
	return fmt.Sprintf("✅ *Hi %s, you currently have no open positions.*\n%s", userName, footer(now))
}

func footer(now time.Time) string {
	return fmt.Sprintf("\n_Last updated: %s UTC_", now.UTC().Format("02/01/2006, 15:04:05"))
}

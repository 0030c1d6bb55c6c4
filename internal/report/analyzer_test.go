package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoTradeJournal/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// debugLogger records Debug messages so skip paths can be asserted on.
type debugLogger struct {
	nopLogger
	debugMsgs []string
}

func (l *debugLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func floatPtr(v float64) *float64 { return &v }

func mustValuation(t *testing.T, trade *domain.Trade, price float64) TradeValuation {
	t.Helper()
	v, err := domain.Valuate(trade, price)
	require.NoError(t, err)
	return TradeValuation{Trade: trade, Valuation: v}
}

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(Config{Logger: nopLogger{}})
	require.NoError(t, err)
	return a
}

func TestAnalyzeProfitAlert(t *testing.T) {
	trade := &domain.Trade{
		ID: 1, UserID: "u1", Pair: "BTC/USDT", Direction: domain.Long,
		EntryPrice: 100, PositionSize: 1000, Leverage: 10, Status: domain.StatusOpen,
	}
	profiles := map[string]*domain.Profile{
		"u1": {UserID: "u1", FullName: "Alice", ChatID: "chat-1", ProfitAlertPercent: floatPtr(40)},
	}

	// livePrice 105 -> pnlPercent 50, distance to liquidation ~16.7%
	analysis := newAnalyzer(t).Analyze(context.Background(), []TradeValuation{mustValuation(t, trade, 105)}, profiles, time.Now())

	require.Len(t, analysis.Alerts, 1)
	assert.Equal(t, "chat-1", analysis.Alerts[0].ChatID)
	assert.Contains(t, analysis.Alerts[0].Text, "Profit target")

	// The trade still contributes to the periodic report.
	require.Contains(t, analysis.Reports, "chat-1")
	assert.Contains(t, analysis.Reports["chat-1"], "BTC/USDT")
}

func TestAnalyzeLiquidationAlert(t *testing.T) {
	trade := &domain.Trade{
		ID: 1, UserID: "u1", Pair: "BTC/USDT", Direction: domain.Long,
		EntryPrice: 100, PositionSize: 1000, Leverage: 10, Status: domain.StatusOpen,
	}
	profiles := map[string]*domain.Profile{
		"u1": {UserID: "u1", FullName: "Alice", ChatID: "chat-1"},
	}

	// livePrice 91 -> distance |91-90|/90 ~ 1.1% < 5%
	analysis := newAnalyzer(t).Analyze(context.Background(), []TradeValuation{mustValuation(t, trade, 91)}, profiles, time.Now())

	require.Len(t, analysis.Alerts, 1)
	assert.Contains(t, analysis.Alerts[0].Text, "Liquidation warning")
}

func TestAnalyzeLiquidationTakesPrecedence(t *testing.T) {
	// Short trade deep in profit and simultaneously close to liquidation is
	// not physically constructible, so use a long with a tiny profit target:
	// price 91 is below entry, but with a negative-threshold profile both
	// conditions hold at once.
	trade := &domain.Trade{
		ID: 1, UserID: "u1", Pair: "ETH/USDT", Direction: domain.Long,
		EntryPrice: 100, PositionSize: 500, Leverage: 10, Status: domain.StatusOpen,
	}
	profiles := map[string]*domain.Profile{
		"u1": {UserID: "u1", FullName: "Alice", ChatID: "chat-1", ProfitAlertPercent: floatPtr(-99)},
	}

	analysis := newAnalyzer(t).Analyze(context.Background(), []TradeValuation{mustValuation(t, trade, 91)}, profiles, time.Now())

	// Exactly one urgent message for the trade, and it is the liquidation one.
	require.Len(t, analysis.Alerts, 1)
	assert.Contains(t, analysis.Alerts[0].Text, "Liquidation warning")
}

func TestAnalyzeSkipsUnresolvableRecipients(t *testing.T) {
	trade := &domain.Trade{
		ID: 1, UserID: "ghost", Pair: "BTC/USDT", Direction: domain.Long,
		EntryPrice: 100, PositionSize: 1000, Leverage: 10, Status: domain.StatusOpen,
	}
	noChat := &domain.Trade{
		ID: 2, UserID: "quiet", Pair: "ETH/USDT", Direction: domain.Long,
		EntryPrice: 100, PositionSize: 1000, Leverage: 10, Status: domain.StatusOpen,
	}
	profiles := map[string]*domain.Profile{
		// "ghost" has no profile at all; "quiet" has one without a chat id.
		"quiet": {UserID: "quiet", FullName: "Bob"},
	}

	logger := &debugLogger{}
	a, err := NewAnalyzer(Config{Logger: logger})
	require.NoError(t, err)

	analysis := a.Analyze(context.Background(), []TradeValuation{
		mustValuation(t, trade, 91),
		mustValuation(t, noChat, 91),
	}, profiles, time.Now())

	assert.Empty(t, analysis.Alerts)
	assert.Empty(t, analysis.Reports)
	assert.Len(t, logger.debugMsgs, 2, "each skipped trade should leave a debug trace")
}

func TestAnalyzeGroupsReportsPerUser(t *testing.T) {
	t1 := &domain.Trade{ID: 1, UserID: "u1", Pair: "BTC/USDT", Direction: domain.Long,
		EntryPrice: 100, PositionSize: 1000, Leverage: 2, Status: domain.StatusOpen}
	t2 := &domain.Trade{ID: 2, UserID: "u1", Pair: "ETH/USDT", Direction: domain.Short,
		EntryPrice: 50, PositionSize: 500, Leverage: 3, Status: domain.StatusOpen}
	t3 := &domain.Trade{ID: 3, UserID: "u2", Pair: "SOL/USDT", Direction: domain.Long,
		EntryPrice: 150, PositionSize: 300, Leverage: 4, Status: domain.StatusOpen}

	profiles := map[string]*domain.Profile{
		"u1": {UserID: "u1", FullName: "Alice", ChatID: "chat-1"},
		"u2": {UserID: "u2", FullName: "Bob", ChatID: "chat-2"},
	}

	analysis := newAnalyzer(t).Analyze(context.Background(), []TradeValuation{
		mustValuation(t, t1, 101),
		mustValuation(t, t2, 49),
		mustValuation(t, t3, 155),
	}, profiles, time.Now())

	require.Len(t, analysis.Reports, 2)
	assert.Contains(t, analysis.Reports["chat-1"], "BTC/USDT")
	assert.Contains(t, analysis.Reports["chat-1"], "ETH/USDT")
	assert.NotContains(t, analysis.Reports["chat-1"], "SOL/USDT")
	assert.Contains(t, analysis.Reports["chat-2"], "SOL/USDT")
}

func TestBuildReportFormat(t *testing.T) {
	trade := &domain.Trade{ID: 1, UserID: "u1", Pair: "BTC/USDT", Direction: domain.Long,
		EntryPrice: 100, PositionSize: 1000, Leverage: 10, Status: domain.StatusOpen}
	v, err := domain.Valuate(trade, 95)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	text := BuildReport("Alice", []TradeValuation{{Trade: trade, Valuation: v}}, now)

	assert.True(t, strings.HasPrefix(text, "📊 *Hi Alice"), "header should name the recipient")
	assert.Contains(t, text, "🔴", "losing trade should carry the red indicator")
	assert.Contains(t, text, "(LONG) X10")
	assert.Contains(t, text, "01/06/2024, 12:30:00 UTC")
}

func TestNoPositionsReport(t *testing.T) {
	now := time.Now()
	text := BuildReport("Bob", nil, now)
	assert.Contains(t, text, "no open positions")
	assert.Contains(t, text, "Bob")
}

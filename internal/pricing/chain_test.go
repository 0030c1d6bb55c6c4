package pricing

import (
	"context"
	"errors"
	"testing"

	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/ports"
)

type mockLogger struct {
	warnMsgs  []string
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockProvider struct {
	name   string
	prices map[string]float64
	err    error
	calls  int
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) FetchPrices(ctx context.Context, symbols []string, assets []domain.AssetListEntry) (map[string]float64, error) {
	m.calls++
	return m.prices, m.err
}

func TestChainFirstProviderWins(t *testing.T) {
	first := &mockProvider{name: "first", prices: map[string]float64{"BTC": 65000}}
	second := &mockProvider{name: "second", prices: map[string]float64{"BTC": 1}}

	chain, err := NewChain([]ports.PriceProvider{first, second}, &mockLogger{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := chain.FetchLivePrices(context.Background(), []string{"BTC"}, nil)
	if got["BTC"] != 65000 {
		t.Errorf("Expected first provider's price, got %f", got["BTC"])
	}
	if second.calls != 0 {
		t.Errorf("Expected second provider not to be queried, got %d calls", second.calls)
	}
}

func TestChainFallsThroughOnFailure(t *testing.T) {
	failing := &mockProvider{name: "failing", err: ports.ErrProviderUnavailable}
	empty := &mockProvider{name: "empty", prices: map[string]float64{}}
	working := &mockProvider{name: "working", prices: map[string]float64{"ETH": 3500, "SOL": 150}}

	logger := &mockLogger{}
	chain, err := NewChain([]ports.PriceProvider{failing, empty, working}, logger)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := chain.FetchLivePrices(context.Background(), []string{"ETH", "SOL"}, nil)

	// The result must be the working provider's map exactly, no merging.
	if len(got) != 2 || got["ETH"] != 3500 || got["SOL"] != 150 {
		t.Errorf("Expected working provider's map, got %v", got)
	}
	if len(logger.warnMsgs) != 2 {
		t.Errorf("Expected two fall-through warnings, got %d", len(logger.warnMsgs))
	}
}

func TestChainAllFail(t *testing.T) {
	a := &mockProvider{name: "a", err: errors.New("boom")}
	b := &mockProvider{name: "b", err: errors.New("boom")}

	logger := &mockLogger{}
	chain, err := NewChain([]ports.PriceProvider{a, b}, logger)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := chain.FetchLivePrices(context.Background(), []string{"XYZ"}, nil)
	if got == nil {
		t.Fatal("Expected empty map, got nil")
	}
	if len(got) != 0 {
		t.Errorf("Expected empty map when all providers fail, got %v", got)
	}
	if len(logger.errorMsgs) != 1 {
		t.Errorf("Expected one error log, got %d", len(logger.errorMsgs))
	}
}

func TestChainEmptySymbols(t *testing.T) {
	provider := &mockProvider{name: "a", prices: map[string]float64{"BTC": 1}}
	chain, err := NewChain([]ports.PriceProvider{provider}, &mockLogger{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := chain.FetchLivePrices(context.Background(), nil, nil)
	if len(got) != 0 {
		t.Errorf("Expected empty map for empty symbol set, got %v", got)
	}
	if provider.calls != 0 {
		t.Errorf("Expected no provider call for empty symbol set, got %d", provider.calls)
	}
}

func TestNewChainValidation(t *testing.T) {
	if _, err := NewChain(nil, &mockLogger{}); err == nil {
		t.Error("Expected error for empty provider list")
	}
	if _, err := NewChain([]ports.PriceProvider{&mockProvider{name: "a"}}, nil); err == nil {
		t.Error("Expected error for missing logger")
	}
}

package domain

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestValuateLongExample(t *testing.T) {
	trade := &Trade{
		ID:           1,
		Pair:         "BTC/USDT",
		Direction:    Long,
		EntryPrice:   100,
		PositionSize: 1000,
		Leverage:     10,
		Status:       StatusOpen,
	}

	v, err := Valuate(trade, 105)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// quantity = 10, pnl = 5 * 10 * 1 * 10 = 500
	if !almostEqual(v.UnrealizedPNL, 500) {
		t.Errorf("Expected unrealized PNL 500, got %f", v.UnrealizedPNL)
	}
	if !almostEqual(v.PNLPercent, 50) {
		t.Errorf("Expected PNL percent 50, got %f", v.PNLPercent)
	}
	if !almostEqual(v.LiquidationPrice, 90) {
		t.Errorf("Expected liquidation price 90, got %f", v.LiquidationPrice)
	}
	wantDist := math.Abs(105.0-90.0) / 90.0 * 100.0
	if !almostEqual(v.DistanceToLiquidationPct, wantDist) {
		t.Errorf("Expected distance %f, got %f", wantDist, v.DistanceToLiquidationPct)
	}
}

func TestValuateNearLiquidation(t *testing.T) {
	trade := &Trade{
		Direction:    Long,
		EntryPrice:   100,
		PositionSize: 1000,
		Leverage:     10,
	}

	v, err := Valuate(trade, 91)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// |91-90|/90*100 ~ 1.11%
	if v.DistanceToLiquidationPct >= 5 {
		t.Errorf("Expected distance below 5%%, got %f", v.DistanceToLiquidationPct)
	}
}

func TestValuateZeroAtEntry(t *testing.T) {
	for _, dir := range []Direction{Long, Short} {
		for _, lev := range []int{1, 5, 25} {
			trade := &Trade{
				Direction:    dir,
				EntryPrice:   2500,
				PositionSize: 750,
				Leverage:     lev,
			}
			v, err := Valuate(trade, 2500)
			if err != nil {
				t.Fatalf("Expected no error for %s x%d, got %v", dir, lev, err)
			}
			if !almostEqual(v.UnrealizedPNL, 0) {
				t.Errorf("Expected zero PNL at entry price for %s x%d, got %f", dir, lev, v.UnrealizedPNL)
			}
		}
	}
}

func TestValuateDirectionSymmetry(t *testing.T) {
	long := &Trade{Direction: Long, EntryPrice: 100, PositionSize: 400, Leverage: 3}
	short := &Trade{Direction: Short, EntryPrice: 100, PositionSize: 400, Leverage: 3}

	// Long at +7 must equal short at -7.
	lv, err := Valuate(long, 107)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	sv, err := Valuate(short, 93)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !almostEqual(lv.UnrealizedPNL, sv.UnrealizedPNL) {
		t.Errorf("Expected symmetric PNL, got long %f vs short %f", lv.UnrealizedPNL, sv.UnrealizedPNL)
	}
}

func TestLiquidationPriceBounds(t *testing.T) {
	for _, lev := range []int{1, 2, 10, 100} {
		liq := LiquidationPrice(200, Long, lev)
		if liq >= 200 {
			t.Errorf("Expected long liquidation below entry at leverage %d, got %f", lev, liq)
		}
		liq = LiquidationPrice(200, Short, lev)
		if liq <= 200 {
			t.Errorf("Expected short liquidation above entry at leverage %d, got %f", lev, liq)
		}
	}

	// At leverage 1 the distance from entry to liquidation is the full entry price.
	if liq := LiquidationPrice(200, Long, 1); !almostEqual(liq, 0) {
		t.Errorf("Expected long liquidation at 0 for leverage 1, got %f", liq)
	}
	if liq := LiquidationPrice(200, Short, 1); !almostEqual(liq, 400) {
		t.Errorf("Expected short liquidation at 400 for leverage 1, got %f", liq)
	}
}

func TestValuateGuards(t *testing.T) {
	cases := []struct {
		name  string
		trade *Trade
		price float64
	}{
		{"nil trade", nil, 100},
		{"zero entry", &Trade{Direction: Long, EntryPrice: 0, PositionSize: 100, Leverage: 2}, 100},
		{"zero leverage", &Trade{Direction: Long, EntryPrice: 10, PositionSize: 100, Leverage: 0}, 100},
		{"negative live price", &Trade{Direction: Long, EntryPrice: 10, PositionSize: 100, Leverage: 2}, -1},
	}
	for _, tc := range cases {
		if _, err := Valuate(tc.trade, tc.price); err == nil {
			t.Errorf("Expected error for case %q", tc.name)
		}
	}
}

func TestRealizedPNLMatchesValuation(t *testing.T) {
	trade := &Trade{Direction: Short, EntryPrice: 50, PositionSize: 500, Leverage: 4}

	pnl, err := RealizedPNL(trade, 45)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	v, err := Valuate(trade, 45)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !almostEqual(pnl, v.UnrealizedPNL) {
		t.Errorf("Expected realized PNL %f to match live valuation %f", pnl, v.UnrealizedPNL)
	}
}

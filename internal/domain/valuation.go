package domain

import (
	"fmt"
	"math"
)

// Valuation holds the live metrics for one open trade at a given price,
// computed with an isolated-margin approximation (fees and funding ignored).
type Valuation struct {
	LivePrice                float64 // Price the valuation was computed at
	UnrealizedPNL            float64 // Dollar P&L in quote currency
	PNLPercent               float64 // UnrealizedPNL relative to position size
	LiquidationPrice         float64 // Price at which the allocated margin is exhausted
	DistanceToLiquidationPct float64 // |live - liq| / liq * 100
}

// Valuate computes the unrealized metrics for an open trade at livePrice.
//
// quantity = positionSize / entryPrice is the base-asset amount; the dollar
// P&L is the quantity-weighted price delta scaled linearly by leverage, which
// reduces to plain quantity x delta at leverage 1.
func Valuate(t *Trade, livePrice float64) (Valuation, error) {
	if t == nil {
		return Valuation{}, fmt.Errorf("valuate: trade is nil")
	}
	if t.EntryPrice <= 0 {
		return Valuation{}, fmt.Errorf("valuate: trade %d has non-positive entry price %f", t.ID, t.EntryPrice)
	}
	if t.Leverage < 1 {
		return Valuation{}, fmt.Errorf("valuate: trade %d has leverage %d, must be >= 1", t.ID, t.Leverage)
	}
	if livePrice <= 0 {
		return Valuation{}, fmt.Errorf("valuate: trade %d given non-positive live price %f", t.ID, livePrice)
	}

	quantity := t.PositionSize / t.EntryPrice
	sign := t.Direction.Sign()
	lev := float64(t.Leverage)

	pnl := (livePrice - t.EntryPrice) * quantity * sign * lev

	var pnlPct float64
	if t.PositionSize > 0 {
		pnlPct = pnl / t.PositionSize * 100
	}

	liq := LiquidationPrice(t.EntryPrice, t.Direction, t.Leverage)
	dist := math.Abs(livePrice-liq) / liq * 100

	return Valuation{
		LivePrice:                livePrice,
		UnrealizedPNL:            pnl,
		PNLPercent:               pnlPct,
		LiquidationPrice:         liq,
		DistanceToLiquidationPct: dist,
	}, nil
}

// LiquidationPrice returns the price at which an isolated-margin position
// loses 100% of its allocated margin: entry * (1 - 1/leverage) for longs,
// entry * (1 + 1/leverage) for shorts.
func LiquidationPrice(entryPrice float64, direction Direction, leverage int) float64 {
	if leverage < 1 {
		leverage = 1
	}
	step := entryPrice / float64(leverage)
	if direction.Sign() < 0 {
		return entryPrice + step
	}
	return entryPrice - step
}

// RealizedPNL computes the frozen P&L recorded when a trade is closed at
// exitPrice. Uses the same formula as Valuate so that live and realized
// figures agree at the moment of closure.
func RealizedPNL(t *Trade, exitPrice float64) (float64, error) {
	v, err := Valuate(t, exitPrice)
	if err != nil {
		return 0, err
	}
	return v.UnrealizedPNL, nil
}

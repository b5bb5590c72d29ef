// FILE: strategy.go
// Package main – Quote pricing policy.
//
// PriceQuote turns (theo, imbalance, volatility, position) into the target
// two-sided quote. It is a pure function of its inputs and the PolicyConfig.
//
// The quote blends:
//   • Volatility regime – first band whose Max exceeds vol gives (K1, K2) ticks
//   • Imbalance skew    – under buy pressure the ask is pushed out by
//                         FarSkew·K2 ticks and the bid tightened to
//                         NearSkew·K1 ticks; mirrored under sell pressure;
//                         symmetric ±K1/2 otherwise
//   • Inventory skew    – the side that would grow |position| is sized down
//                         by exp(InventoryScalar·|position|)
//
// theo == 0 means there is no usable signal: no quote.

package main

import (
	"fmt"
	"math"
)

// Regime labels which imbalance branch produced a quote.
type Regime string

const (
	RegimeNormal       Regime = "normal"
	RegimeBidImbalance Regime = "bid_imbalance" // buy pressure
	RegimeAskImbalance Regime = "ask_imbalance" // sell pressure
)

// Quote is the target two-sided market.
type Quote struct {
	BidPrice  int64
	BidVolume int64
	AskPrice  int64
	AskVolume int64
	Regime    Regime
	K1, K2    float64
}

func (q Quote) String() string {
	return fmt.Sprintf("bid %d@%d ask %d@%d [%s K=%.0f/%.0f]",
		q.BidVolume, q.BidPrice, q.AskVolume, q.AskPrice, q.Regime, q.K1, q.K2)
}

// roundUp snaps x up to the tick grid.
func roundUp(x float64) int64 {
	return int64(math.Ceil(x/float64(TickSize))) * TickSize
}

// roundDown snaps x down to the tick grid.
func roundDown(x float64) int64 {
	return int64(math.Floor(x/float64(TickSize))) * TickSize
}

// selectBand returns (K1, K2) for vol. Past the last band the last band holds.
func selectBand(bands []VolBand, vol float64) (k1, k2 float64) {
	if len(bands) == 0 {
		return 0, 0
	}
	for _, b := range bands {
		if vol < b.Max {
			return b.K1, b.K2
		}
	}
	last := bands[len(bands)-1]
	return last.K1, last.K2
}

// sizeFor scales lot by the inventory decay for |position|.
func sizeFor(lot int64, scalar float64, position int64) int64 {
	abs := position
	if abs < 0 {
		abs = -abs
	}
	return int64(math.Floor(float64(lot) * math.Exp(scalar*float64(abs))))
}

// PriceQuote computes the target quote. ok is false when theo carries no signal.
func PriceQuote(p PolicyConfig, theo, imbalance, vol float64, position int64) (Quote, bool) {
	if theo == 0 || math.IsNaN(theo) || math.IsInf(theo, 0) {
		return Quote{}, false
	}
	k1, k2 := selectBand(p.VolatilityBands, vol)
	tick := float64(TickSize)
	q := Quote{K1: k1, K2: k2}

	switch {
	case imbalance > p.ImbalanceThreshold:
		q.AskPrice = roundUp(theo + p.FarSkew*k2*tick)
		q.BidPrice = roundDown(theo - p.NearSkew*k1*tick)
		q.Regime = RegimeBidImbalance
	case imbalance < -p.ImbalanceThreshold:
		q.AskPrice = roundUp(theo + p.NearSkew*k1*tick)
		q.BidPrice = roundDown(theo - p.FarSkew*k2*tick)
		q.Regime = RegimeAskImbalance
	default:
		q.AskPrice = roundUp(theo + k1/2*tick)
		q.BidPrice = roundDown(theo - k1/2*tick)
		q.Regime = RegimeNormal
	}

	if position >= 0 {
		q.BidVolume = sizeFor(p.LotSize, p.InventoryScalar, position)
		q.AskVolume = p.LotSize
	} else {
		q.AskVolume = sizeFor(p.LotSize, p.InventoryScalar, position)
		q.BidVolume = p.LotSize
	}
	return q, true
}

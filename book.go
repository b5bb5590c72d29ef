// FILE: book.go
// Package main – Order-book snapshots and the depth-weighted signal.
//
// ReadSnapshot turns a five-level book into the two scalars the rest of the
// core consumes:
//   • Imbalance   – signed depth skew in [-1, 1]
//   • WeightedMid – touch prices blended by depth-weighted bid share
//
// Level i carries weight exp(-0.5·i): the touch counts fully, deeper levels
// decay geometrically. The decay base is part of the signal; do not tune it.
package main

import "math"

// BookDepth is the number of levels the venue publishes per side.
const BookDepth = 5

// depthDecay is the exponent base for level weights.
const depthDecay = 0.5

// MarketSnapshot is one per-instrument depth update. Shorter sides are zero
// padded by the venue.
type MarketSnapshot struct {
	Instrument Instrument `json:"instrument"`
	Seq        int64      `json:"seq"`
	AskPrices  []int64    `json:"ask_prices"`
	AskVolumes []int64    `json:"ask_volumes"`
	BidPrices  []int64    `json:"bid_prices"`
	BidVolumes []int64    `json:"bid_volumes"`
}

// BestBid returns the touch bid price, 0 when the side is empty.
func (s MarketSnapshot) BestBid() int64 {
	if len(s.BidPrices) == 0 {
		return 0
	}
	return s.BidPrices[0]
}

// BestAsk returns the touch ask price, 0 when the side is empty.
func (s MarketSnapshot) BestAsk() int64 {
	if len(s.AskPrices) == 0 {
		return 0
	}
	return s.AskPrices[0]
}

// BookSignal is what the snapshot reader derives from one update.
type BookSignal struct {
	WeightedMid float64
	Imbalance   float64
	BestBid     int64
	BestAsk     int64
	Degenerate  bool // no depth on the common levels; not a tradable signal
}

// depthWeights returns the decayed bid/ask volume sums over the common depth.
func depthWeights(s MarketSnapshot) (vBid, vAsk float64) {
	n := min(len(s.BidVolumes), len(s.AskVolumes))
	for i := 0; i < n; i++ {
		w := math.Exp(-depthDecay * float64(i))
		vBid += w * float64(s.BidVolumes[i])
		vAsk += w * float64(s.AskVolumes[i])
	}
	return vBid, vAsk
}

// ReadSnapshot computes imbalance and weighted mid. Zero total depth is
// neutral (imbalance 0 and the plain midpoint) and flagged Degenerate.
func ReadSnapshot(s MarketSnapshot) BookSignal {
	vBid, vAsk := depthWeights(s)
	sig := BookSignal{BestBid: s.BestBid(), BestAsk: s.BestAsk()}

	total := vBid + vAsk
	share := 0.5
	sig.Degenerate = total == 0
	if total != 0 {
		sig.Imbalance = (vBid - vAsk) / total
		share = vBid / total
	}
	sig.WeightedMid = share*float64(sig.BestAsk) + (1-share)*float64(sig.BestBid)
	return sig
}

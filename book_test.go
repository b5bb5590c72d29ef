package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadSnapshot_ZeroDepthIsNeutral(t *testing.T) {
	s := MarketSnapshot{
		Instrument: InstrumentFuture,
		BidPrices:  []int64{10000, 9900, 9800, 9700, 9600},
		AskPrices:  []int64{10200, 10300, 10400, 10500, 10600},
		BidVolumes: []int64{0, 0, 0, 0, 0},
		AskVolumes: []int64{0, 0, 0, 0, 0},
	}
	sig := ReadSnapshot(s)
	assert.Equal(t, 0.0, sig.Imbalance)
	assert.Equal(t, 10100.0, sig.WeightedMid)
	assert.Equal(t, int64(10000), sig.BestBid)
	assert.Equal(t, int64(10200), sig.BestAsk)
	assert.True(t, sig.Degenerate)
}

func TestReadSnapshot_OneSidedDepth(t *testing.T) {
	tests := []struct {
		name    string
		bidVol  int64
		askVol  int64
		wantImb float64
		wantMid float64
	}{
		{"all bids", 10, 0, 1, 10200},
		{"all asks", 0, 10, -1, 10000},
		{"balanced", 25, 25, 0, 10100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := ReadSnapshot(book(InstrumentFuture, 10000, 10200, tc.bidVol, tc.askVol).MarketSnapshot)
			assert.InDelta(t, tc.wantImb, sig.Imbalance, 1e-12)
			assert.InDelta(t, tc.wantMid, sig.WeightedMid, 1e-9)
		})
	}
}

func TestReadSnapshot_DepthDecay(t *testing.T) {
	s := MarketSnapshot{
		BidPrices:  []int64{10000, 9900},
		AskPrices:  []int64{10100, 10200},
		BidVolumes: []int64{0, 10},
		AskVolumes: []int64{10, 0},
	}
	vb := math.Exp(-0.5) * 10
	va := 10.0
	sig := ReadSnapshot(s)
	assert.InDelta(t, (vb-va)/(vb+va), sig.Imbalance, 1e-12)

	share := vb / (vb + va)
	assert.InDelta(t, share*10100+(1-share)*10000, sig.WeightedMid, 1e-9)
}

func TestReadSnapshot_UsesCommonDepthOnly(t *testing.T) {
	s := MarketSnapshot{
		BidPrices:  []int64{10000, 9900, 9800},
		AskPrices:  []int64{10100},
		BidVolumes: []int64{5, 1000, 1000},
		AskVolumes: []int64{5},
	}
	sig := ReadSnapshot(s)
	assert.Equal(t, 0.0, sig.Imbalance)
	assert.Equal(t, 10050.0, sig.WeightedMid)
}

func TestReadSnapshot_EmptyBook(t *testing.T) {
	sig := ReadSnapshot(MarketSnapshot{})
	assert.Equal(t, BookSignal{Degenerate: true}, sig)
}

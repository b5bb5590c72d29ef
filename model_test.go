package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestTheoEngine_TheoFollowsFuture(t *testing.T) {
	e := NewTheoEngine(4)
	e.Update(book(InstrumentFuture, 9950, 10050, 10, 10).MarketSnapshot)
	assert.Equal(t, 10000.0, e.Theo())
	assert.Equal(t, 0.0, e.Imbalance())

	e.Update(book(InstrumentETF, 20000, 20400, 30, 10).MarketSnapshot)
	assert.Equal(t, 10000.0, e.Theo(), "ETF updates do not move theo")
	assert.InDelta(t, 0.5, e.Signal(InstrumentETF).Imbalance, 1e-12)
}

func TestTheoEngine_WindowStartsOnFirstValidMid(t *testing.T) {
	e := NewTheoEngine(4)
	e.Update(MarketSnapshot{Instrument: InstrumentFuture})
	e.Update(MarketSnapshot{Instrument: InstrumentETF})
	assert.Equal(t, 0, e.Window(InstrumentFuture).Count())
	assert.Equal(t, 0, e.Window(InstrumentETF).Count())

	e.Update(book(InstrumentETF, 9900, 10100, 5, 5).MarketSnapshot)
	// a zero future mid after the start repeats nothing yet: its window is empty
	e.Update(MarketSnapshot{Instrument: InstrumentFuture})
	assert.Equal(t, 1, e.Window(InstrumentETF).Count())
	assert.Equal(t, 0, e.Window(InstrumentFuture).Count())
}

func TestTheoEngine_VolatilityAfterWindowOverflows(t *testing.T) {
	e := NewTheoEngine(4)
	mids := []int64{10000, 10100, 10200, 10300}
	for _, m := range mids {
		e.Update(book(InstrumentFuture, m-50, m+50, 1, 1).MarketSnapshot)
	}
	assert.Equal(t, 0.0, e.Volatility())

	e.Update(book(InstrumentFuture, 10350, 10450, 1, 1).MarketSnapshot)
	assert.InDelta(t, stat.PopStdDev([]float64{10100, 10200, 10300, 10400}, nil), e.Volatility(), 1e-9)
}

func TestTheoEngine_IgnoresUnknownInstrument(t *testing.T) {
	e := NewTheoEngine(4)
	sig := e.Update(MarketSnapshot{Instrument: Instrument(7), BidPrices: []int64{1}, AskPrices: []int64{3}})
	assert.Equal(t, BookSignal{}, sig)
	assert.Equal(t, 0.0, e.Theo())
}

// FILE: model.go
// Package main – Theoretical price engine.
//
// TheoEngine consumes normalized snapshots and keeps, per instrument:
//   • the latest BookSignal (weighted mid, imbalance, touch)
//   • a VolWindow over weighted mids for volatility regime selection
//
// The theo handed to the pricing policy is the raw latest weighted mid of the
// Future; the window only feeds volatility. Window collection starts with the
// first non-zero weighted mid seen on either instrument.
package main

import "math"

// TheoEngine is the per-session signal state. The zero value is not usable;
// build it with NewTheoEngine.
type TheoEngine struct {
	started bool
	windows [instrumentCount]*VolWindow
	last    [instrumentCount]BookSignal
	seq     [instrumentCount]int64
}

// NewTheoEngine returns an engine with rolling windows of the given size.
func NewTheoEngine(window int) TheoEngine {
	var e TheoEngine
	for i := range e.windows {
		e.windows[i] = NewVolWindow(window)
	}
	return e
}

// Update reads s, stores its signal and feeds the instrument window.
// Unknown instruments are ignored and return a zero signal.
func (e *TheoEngine) Update(s MarketSnapshot) BookSignal {
	idx := int(s.Instrument)
	if idx < 0 || idx >= instrumentCount {
		return BookSignal{}
	}
	sig := ReadSnapshot(s)
	if math.IsNaN(sig.WeightedMid) || math.IsInf(sig.WeightedMid, 0) {
		sig.WeightedMid = 0
	}
	e.last[idx] = sig
	e.seq[idx] = s.Seq

	if !e.started && sig.WeightedMid != 0 {
		e.started = true
	}
	if e.started {
		e.windows[idx].Observe(sig.WeightedMid)
	}
	return sig
}

// Theo is the latest Future weighted mid; 0 means no valid signal yet.
func (e *TheoEngine) Theo() float64 { return e.last[InstrumentFuture].WeightedMid }

// Imbalance is the latest Future depth imbalance.
func (e *TheoEngine) Imbalance() float64 { return e.last[InstrumentFuture].Imbalance }

// Volatility is the Future window volatility (0 during cold start).
func (e *TheoEngine) Volatility() float64 { return e.windows[InstrumentFuture].Volatility() }

// Signal returns the latest signal for an instrument.
func (e *TheoEngine) Signal(i Instrument) BookSignal {
	if int(i) < 0 || int(i) >= instrumentCount {
		return BookSignal{}
	}
	return e.last[i]
}

// Window exposes an instrument's rolling window (read-only use).
func (e *TheoEngine) Window(i Instrument) *VolWindow {
	if int(i) < 0 || int(i) >= instrumentCount {
		return nil
	}
	return e.windows[i]
}

// LastSeq is the sequence number of the latest snapshot for i.
func (e *TheoEngine) LastSeq(i Instrument) int64 {
	if int(i) < 0 || int(i) >= instrumentCount {
		return 0
	}
	return e.seq[i]
}

func (e TheoEngine) clone() TheoEngine {
	c := e
	for i := range c.windows {
		c.windows[i] = e.windows[i].clone()
	}
	return c
}

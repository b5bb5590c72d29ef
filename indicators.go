// FILE: indicators.go
// Package main – Rolling statistics for the theoretical price engine.
//
// This file implements the one rolling statistic the engine needs:
//   • VolWindow – bounded FIFO of weighted-mid observations that reports
//                 the population standard deviation (gonum/stat) once it
//                 has overflowed
//
// Notes
//   - A zero or NaN observation repeats the last stored value; venue gaps
//     must not drag the window toward zero.
//   - Keep this allocation-light; it runs on every book update.
package main

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// VolWindow keeps the last Cap observations of a price series.
type VolWindow struct {
	Cap    int
	values []float64
	count  int
	vol    float64
}

// NewVolWindow returns an empty window; capacity below 1 is raised to 1.
func NewVolWindow(capacity int) *VolWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &VolWindow{Cap: capacity, values: make([]float64, 0, capacity+1)}
}

// Observe records x. Zero/NaN repeats the previous value; on an empty window
// it is dropped.
func (w *VolWindow) Observe(x float64) {
	if x == 0 || math.IsNaN(x) {
		if len(w.values) == 0 {
			return
		}
		x = w.values[len(w.values)-1]
	}
	w.values = append(w.values, x)
	w.count++
	if w.count > w.Cap {
		w.values = w.values[1:]
		w.vol = stat.PopStdDev(w.values, nil)
	}
}

// Ready reports whether the window has overflowed at least once.
func (w *VolWindow) Ready() bool { return w.count > w.Cap }

// Volatility is 0 until Ready.
func (w *VolWindow) Volatility() float64 { return w.vol }

// Count is the number of accepted observations.
func (w *VolWindow) Count() int { return w.count }

// Values returns a copy of the stored window, oldest first.
func (w *VolWindow) Values() []float64 {
	out := make([]float64, len(w.values))
	copy(out, w.values)
	return out
}

// clone deep-copies the window.
func (w *VolWindow) clone() *VolWindow {
	if w == nil {
		return nil
	}
	c := *w
	c.values = make([]float64, len(w.values), w.Cap+1)
	copy(c.values, w.values)
	return &c
}

package main

import (
	"context"
	"errors"
	"sync"
	"time"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// at returns t0 plus s seconds.
func at(s float64) time.Time { return t0.Add(secondsToDuration(s)) }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Set(t time.Time)         { c.t = t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// book builds a one-level snapshot.
func book(instr Instrument, bid, ask, bidVol, askVol int64) SnapshotEvent {
	return SnapshotEvent{MarketSnapshot{
		Instrument: instr,
		AskPrices:  []int64{ask, 0, 0, 0, 0},
		AskVolumes: []int64{askVol, 0, 0, 0, 0},
		BidPrices:  []int64{bid, 0, 0, 0, 0},
		BidVolumes: []int64{bidVol, 0, 0, 0, 0},
	}}
}

// steadyAt returns a fresh steady-preset state started at start.
func steadyAt(start time.Time) ControllerState {
	return NewControllerState(SteadyPolicy(), start)
}

// run applies events in order at the same instant and returns all commands.
func run(st ControllerState, now time.Time, evs ...Event) (ControllerState, []Command) {
	var all []Command
	for _, ev := range evs {
		var cmds []Command
		st, cmds = Step(st, ev, now)
		all = append(all, cmds...)
	}
	return st, all
}

func kinds(cmds []Command) []CommandKind {
	out := make([]CommandKind, len(cmds))
	for i, c := range cmds {
		out[i] = c.Kind
	}
	return out
}

// chanSource is an EventSource over a plain channel.
type chanSource chan Event

func (c chanSource) Events() <-chan Event { return c }

// failingGateway refuses every command.
type failingGateway struct {
	mu    sync.Mutex
	calls int
}

var errGatewayDown = errors.New("gateway down")

func (f *failingGateway) Name() string { return "failing" }
func (f *failingGateway) InsertOrder(context.Context, OrderID, Side, int64, int64, Lifespan) error {
	return f.fail()
}
func (f *failingGateway) CancelOrder(context.Context, OrderID) error { return f.fail() }
func (f *failingGateway) SendHedgeOrder(context.Context, OrderID, Side, int64, int64) error {
	return f.fail()
}
func (f *failingGateway) fail() error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return errGatewayDown
}

// panickingGateway blows up on insert.
type panickingGateway struct{ *PaperGateway }

func (p *panickingGateway) InsertOrder(context.Context, OrderID, Side, int64, int64, Lifespan) error {
	panic("boom")
}

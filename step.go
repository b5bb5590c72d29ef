// FILE: step.go
// Package main – Order lifecycle controller.
//
// ControllerState is the whole session state: policy, signal engine, the two
// resting-order slots, net position and the id counter. Step is the only way
// it changes:
//
//   Step(state, event, now) -> (state', commands)
//
// Step works on a deep copy, so a caller holding the old state can compare or
// replay. Commands are returned, never sent; the Trader dispatches them.
//
// Phases (derived from the slot ids):
//   • Empty       – insert each side whose target is non-zero and differs
//                   from that side's last quoted price
//   • BidOnly /
//     AskOnly     – once the missing side has been terminal for longer than
//                   WaitSeconds, cancel the lone order and re-run Empty
//   • BothResting – once the older quote is older than RequoteSeconds,
//                   cancel both and re-run Empty
//
// Quotes are re-evaluated on every ETF book update (the book our orders rest
// on); Future updates only refresh theo, imbalance and volatility.

package main

import (
	"slices"
	"time"
)

// ---- Slots ----

// Slot is the resting-order record for one side.
type Slot struct {
	Side         Side
	ID           OrderID // 0: nothing resting
	Price        int64   // last quoted price; kept after the order ends
	Volume       int64
	PlacedAt     time.Time
	LastTerminal time.Time
	Draining     []OrderID // cancelled here, terminal status not seen yet
}

// Live reports whether an order is resting on this side.
func (s *Slot) Live() bool { return s.ID != 0 }

// Owns reports whether id is this side's resting or draining order.
func (s *Slot) Owns(id OrderID) bool {
	if id == 0 {
		return false
	}
	return s.ID == id || slices.Contains(s.Draining, id)
}

// wants reports whether a target should be inserted on this (empty) side.
func (s *Slot) wants(price, volume int64) bool {
	return s.ID == 0 && price != 0 && price != s.Price && volume > 0
}

// maxDraining bounds the ids kept per side while their terminal status is
// outstanding. Past it the oldest id is forgotten and a fill on it is
// treated as stale.
const maxDraining = 8

// cancel moves the resting id to Draining and returns the cancel command.
func (s *Slot) cancel() Command {
	id := s.ID
	s.Draining = append(s.Draining, id)
	if n := len(s.Draining) - maxDraining; n > 0 {
		s.Draining = slices.Delete(s.Draining, 0, n)
	}
	s.ID = 0
	return Command{Kind: CmdCancel, ID: id, Side: s.Side}
}

// terminal clears the slot after a zero-remaining status.
func (s *Slot) terminal(now time.Time) {
	s.ID = 0
	s.LastTerminal = now
}

func (s *Slot) dropDraining(id OrderID) {
	s.Draining = slices.DeleteFunc(s.Draining, func(d OrderID) bool { return d == id })
}

func (s Slot) clone() Slot {
	s.Draining = slices.Clone(s.Draining)
	return s
}

// ---- Phases ----

// Phase is the controller state derived from which slots are live.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseBidOnly
	PhaseAskOnly
	PhaseBothResting
)

func (p Phase) String() string {
	switch p {
	case PhaseBidOnly:
		return "BidOnly"
	case PhaseAskOnly:
		return "AskOnly"
	case PhaseBothResting:
		return "BothResting"
	default:
		return "Empty"
	}
}

// ---- Controller state ----

// ControllerState bundles everything a session mutates.
type ControllerState struct {
	Policy   PolicyConfig
	Engine   TheoEngine
	Bid      Slot
	Ask      Slot
	Position int64
	NextID   OrderID
	Regime   Regime // regime of the latest inserted quote
}

// NewControllerState starts a session at now. Both sides count as having
// just gone terminal, so the first one-sided grace period runs from start.
func NewControllerState(p PolicyConfig, now time.Time) ControllerState {
	return ControllerState{
		Policy: p,
		Engine: NewTheoEngine(p.RollingWindow),
		Bid:    Slot{Side: SideBuy, LastTerminal: now},
		Ask:    Slot{Side: SideSell, LastTerminal: now},
		NextID: 1,
	}
}

// Phase derives the lifecycle phase from the slots.
func (st *ControllerState) Phase() Phase {
	switch {
	case st.Bid.Live() && st.Ask.Live():
		return PhaseBothResting
	case st.Bid.Live():
		return PhaseBidOnly
	case st.Ask.Live():
		return PhaseAskOnly
	default:
		return PhaseEmpty
	}
}

// SideOf reports which side owns id (resting or draining).
func (st *ControllerState) SideOf(id OrderID) (Side, bool) {
	switch {
	case st.Bid.Owns(id):
		return SideBuy, true
	case st.Ask.Owns(id):
		return SideSell, true
	default:
		return 0, false
	}
}

// slot returns the slot for side.
func (st *ControllerState) slot(side Side) *Slot {
	if side == SideBuy {
		return &st.Bid
	}
	return &st.Ask
}

func (st *ControllerState) allocID() OrderID {
	id := st.NextID
	st.NextID++
	return id
}

func (st ControllerState) clone() ControllerState {
	c := st
	c.Engine = st.Engine.clone()
	c.Bid = st.Bid.clone()
	c.Ask = st.Ask.clone()
	c.Policy.VolatilityBands = slices.Clone(st.Policy.VolatilityBands)
	return c
}

// Step applies one event to a copy of st and returns it with the commands
// the event produced.
func Step(st ControllerState, ev Event, now time.Time) (ControllerState, []Command) {
	next := st.clone()
	cmds := next.apply(ev, now)
	return next, cmds
}

func (st *ControllerState) apply(ev Event, now time.Time) []Command {
	switch e := ev.(type) {
	case SnapshotEvent:
		return st.onSnapshot(e.MarketSnapshot, now)
	case OrderFilledEvent:
		return st.onFill(e)
	case OrderStatusEvent:
		return st.onStatus(e, now)
	case ErrorEvent:
		return st.onError(e, now)
	default:
		// trade ticks and hedge fills carry no state
		return nil
	}
}

// ---- Transitions ----

func (st *ControllerState) onSnapshot(s MarketSnapshot, now time.Time) []Command {
	st.Engine.Update(s)
	if s.Instrument != InstrumentETF {
		return nil
	}
	// no depth behind the future mid: leave resting orders alone
	if st.Engine.Signal(InstrumentFuture).Degenerate {
		return nil
	}
	q, ok := PriceQuote(st.Policy, st.Engine.Theo(), st.Engine.Imbalance(), st.Engine.Volatility(), st.Position)
	if !ok {
		return nil
	}
	return st.reconcile(q, now)
}

// reconcile runs the phase rule for target q.
func (st *ControllerState) reconcile(q Quote, now time.Time) []Command {
	var cmds []Command
	switch st.Phase() {
	case PhaseEmpty:
	case PhaseBidOnly:
		if now.Sub(st.Ask.LastTerminal) <= st.Policy.Wait() {
			return nil
		}
		cmds = append(cmds, st.Bid.cancel())
	case PhaseAskOnly:
		if now.Sub(st.Bid.LastTerminal) <= st.Policy.Wait() {
			return nil
		}
		cmds = append(cmds, st.Ask.cancel())
	case PhaseBothResting:
		oldest := st.Bid.PlacedAt
		if st.Ask.PlacedAt.Before(oldest) {
			oldest = st.Ask.PlacedAt
		}
		if now.Sub(oldest) <= st.Policy.Requote() {
			return nil
		}
		cmds = append(cmds, st.Bid.cancel(), st.Ask.cancel())
	}
	return append(cmds, st.place(q, now)...)
}

// place inserts each empty side whose target moved.
func (st *ControllerState) place(q Quote, now time.Time) []Command {
	var cmds []Command
	if st.Bid.wants(q.BidPrice, q.BidVolume) {
		cmds = append(cmds, st.insert(&st.Bid, q.BidPrice, q.BidVolume, q.Regime, now))
	}
	if st.Ask.wants(q.AskPrice, q.AskVolume) {
		cmds = append(cmds, st.insert(&st.Ask, q.AskPrice, q.AskVolume, q.Regime, now))
	}
	return cmds
}

func (st *ControllerState) insert(s *Slot, price, volume int64, regime Regime, now time.Time) Command {
	id := st.allocID()
	s.ID = id
	s.Price = price
	s.Volume = volume
	s.PlacedAt = now
	st.Regime = regime
	return Command{
		Kind:     CmdInsert,
		ID:       id,
		Side:     s.Side,
		Price:    price,
		Volume:   volume,
		Lifespan: LifespanGoodForDay,
		Regime:   regime,
	}
}

// onStatus clears a slot on zero remaining volume. Other ids are stale.
func (st *ControllerState) onStatus(e OrderStatusEvent, now time.Time) []Command {
	if e.RemainingVolume != 0 || e.OrderID == 0 {
		return nil
	}
	switch e.OrderID {
	case st.Bid.ID:
		st.Bid.terminal(now)
	case st.Ask.ID:
		st.Ask.terminal(now)
	}
	st.Bid.dropDraining(e.OrderID)
	st.Ask.dropDraining(e.OrderID)
	return nil
}

// onError forces a known order terminal; the next update may requote.
func (st *ControllerState) onError(e ErrorEvent, now time.Time) []Command {
	if e.OrderID == 0 {
		return nil
	}
	if _, ok := st.SideOf(e.OrderID); !ok {
		return nil
	}
	return st.onStatus(OrderStatusEvent{OrderID: e.OrderID}, now)
}

// FILE: trader.go
// Package main – Hedging, position tracking and the event dispatcher.
//
// What’s here:
//   • onFill: position update plus the offsetting hedge, in one step
//   • Trader: owns the ControllerState, the gateway, the journal and the
//     clock; Handle() runs one inbound event to completion
//
// Concurrency design:
//   - Handle is called from exactly one goroutine (runLive or replay). There
//     is no mutex: nothing else reads or writes the state.
//   - Gateway calls are fire-and-forget. A failed send is logged and counted;
//     the venue's later status/error event is what moves the slots.
//
// Safety:
//   - Every fill on an id we own (resting or draining) is hedged exactly once
//     with the fill volume on the opposite side.
//   - Fills on ids we no longer own are ignored: the order already went
//     terminal and its fills were hedged when they arrived.

package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ---- Hedging & position ----

// onFill records the fill against position and emits the hedge.
func (st *ControllerState) onFill(e OrderFilledEvent) []Command {
	if e.Volume <= 0 {
		return nil
	}
	side, ok := st.SideOf(e.OrderID)
	if !ok {
		return nil
	}
	price := MaxAskNearestTick
	if side == SideBuy {
		st.Position += e.Volume
		price = MinBidNearestTick
	} else {
		st.Position -= e.Volume
	}
	return []Command{{
		Kind:   CmdHedge,
		ID:     st.allocID(),
		Side:   side.Opposite(),
		Price:  price,
		Volume: e.Volume,
	}}
}

// ---- Trader ----

// Trader drives a ControllerState from inbound events.
type Trader struct {
	cfg     Config
	gw      Gateway
	journal *Journal
	log     *zap.SugaredLogger
	now     func() time.Time
	state   ControllerState
}

// NewTrader builds a trader starting its session at now().
func NewTrader(cfg Config, gw Gateway, journal *Journal, lg *zap.SugaredLogger, now func() time.Time) *Trader {
	if now == nil {
		now = time.Now
	}
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	start := now()
	if err := journal.RecordStart(start, cfg.Policy.Name); err != nil {
		lg.Warnf("[JOURNAL] session start write failed: %v", err)
	}
	return &Trader{
		cfg:     cfg,
		gw:      gw,
		journal: journal,
		log:     lg,
		now:     now,
		state:   NewControllerState(cfg.Policy, start),
	}
}

// State returns a copy of the current controller state.
func (t *Trader) State() ControllerState { return t.state.clone() }

// Handle processes one inbound event to completion.
func (t *Trader) Handle(ctx context.Context, ev Event) {
	now := t.now()
	if err := t.journal.RecordEvent(now, ev); err != nil {
		t.log.Warnf("[JOURNAL] event write failed: %v", err)
	}
	t.observe(ev, now)

	next, cmds := Step(t.state, ev, now)
	t.state = next
	for _, c := range cmds {
		t.send(ctx, now, c)
	}
	t.publish()
}

// observe logs and counts an event against the pre-step state.
func (t *Trader) observe(ev Event, now time.Time) {
	switch e := ev.(type) {
	case SnapshotEvent:
		IncBookUpdates(e.Instrument.String())
		if prev := t.state.Engine.LastSeq(e.Instrument); e.Seq != 0 && e.Seq <= prev {
			t.log.Warnf("[BOOK] %s seq=%d not after %d (out of order)", e.Instrument, e.Seq, prev)
		}
		t.log.Debugf("[BOOK] %s seq=%d bid=%d ask=%d", e.Instrument, e.Seq, e.BestBid(), e.BestAsk())
	case TradeTicksEvent:
		IncTradeTicks(e.Instrument.String())
		t.log.Infof("[TICKS] %s seq=%d ask=%v/%v bid=%v/%v", e.Instrument, e.Seq,
			e.AskPrices, e.AskVolumes, e.BidPrices, e.BidVolumes)
	case OrderFilledEvent:
		if e.Volume <= 0 {
			t.log.Warnf("[FILL] order %d with volume %d (ignored)", e.OrderID, e.Volume)
			return
		}
		side, ok := t.state.SideOf(e.OrderID)
		if !ok {
			IncFillUnmatched()
			t.log.Warnf("[FILL] order %d not ours anymore price=%d vol=%d (ignored)", e.OrderID, e.Price, e.Volume)
			return
		}
		IncFill(side.String())
		t.log.Infof("[FILL] order %d %s price=%d vol=%d regime=%s", e.OrderID, side, e.Price, e.Volume, t.state.Regime)
	case OrderStatusEvent:
		t.log.Debugf("[STATUS] order %d filled=%d remaining=%d fees=%d", e.OrderID, e.FilledVolume, e.RemainingVolume, e.Fees)
		if e.RemainingVolume == 0 {
			t.logExecution(e.OrderID, now)
		}
	case HedgeFilledEvent:
		IncHedgeFilled()
		t.log.Infof("[HEDGE] filled order %d avg=%d vol=%d", e.OrderID, e.Price, e.Volume)
	case ErrorEvent:
		_, known := t.state.SideOf(e.OrderID)
		IncVenueError(known)
		t.log.Warnf("[ERROR] order %d: %s (known=%v)", e.OrderID, e.Message, known)
		if known {
			t.logExecution(e.OrderID, now)
		}
	}
}

// logExecution reports how long a resting order lived before going terminal.
func (t *Trader) logExecution(id OrderID, now time.Time) {
	for _, s := range []*Slot{&t.state.Bid, &t.state.Ask} {
		if s.ID != id || id == 0 {
			continue
		}
		d := now.Sub(s.PlacedAt)
		ObserveOrderLifetime(s.Side.String(), d)
		t.log.Infof("[EXEC] %s order %d ended after %.4fs regime=%s", s.Side, id, d.Seconds(), t.state.Regime)
	}
}

// send journals, logs and dispatches one command.
func (t *Trader) send(ctx context.Context, now time.Time, c Command) {
	if err := t.journal.RecordCommand(now, c); err != nil {
		t.log.Warnf("[JOURNAL] command write failed: %v", err)
	}
	switch c.Kind {
	case CmdInsert:
		t.log.Infof("[QUOTE] order %d: %s %d @ %d imbal=%.2f theo=%.0f regime=%s",
			c.ID, c.Side, c.Volume, c.Price, t.state.Engine.Imbalance(), t.state.Engine.Theo(), c.Regime)
	case CmdCancel:
		t.log.Infof("[CANCEL] order %d (%s) regime=%s", c.ID, c.Side, t.state.Regime)
	case CmdHedge:
		t.log.Infof("[HEDGE] order %d: %s %d @ %d position=%d", c.ID, c.Side, c.Volume, c.Price, t.state.Position)
	}
	IncCommand(string(c.Kind), c.Side.String())
	if err := dispatch(ctx, t.gw, c); err != nil {
		IncGatewayFailure(string(c.Kind))
		t.log.Errorf("[GATEWAY] %s via %s failed: %v", c, t.gw.Name(), err)
	}
}

// publish refreshes the state gauges.
func (t *Trader) publish() {
	SetPositionMetric(t.state.Position)
	SetSignalMetrics(t.state.Engine.Theo(), t.state.Engine.Imbalance(), t.state.Engine.Volatility())
	SetPhaseMetric(t.state.Phase().String())
}

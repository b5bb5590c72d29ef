// FILE: broker.go
// Package main – Order gateway abstractions shared by all execution backends.
//
// This file defines the minimal outbound surface the decision core needs to
// talk to the venue (paper or real):
//   • Gateway interface: insert a quote order, cancel it, send a hedge order
//   • Common enums: Side, Lifespan, Instrument (wire values match the venue)
//   • Command: the value the controller emits; dispatch() routes it to a Gateway
//
// Two concrete implementations live in separate files:
//   • broker_paper.go   – in-memory paper gateway (records, never sends)
//   • broker_bridge.go  – websocket client for the exchange sidecar
//
// All gateway calls are fire-and-forget: a nil error only means the command
// left the process. Confirmation arrives later as an inbound event.
package main

import (
	"context"
	"fmt"
)

// OrderID is the client order id; one counter is shared by quotes and hedges.
type OrderID int64

// Side is the side of an order. Numeric values follow the venue wire format.
type Side int

const (
	SideSell Side = 0
	SideBuy  Side = 1
)

// String implements fmt.Stringer for pretty logging.
func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

// Opposite returns the hedge side for a fill on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Lifespan of a quote order.
type Lifespan int

const (
	LifespanFillAndKill Lifespan = 0
	LifespanGoodForDay  Lifespan = 1
)

func (l Lifespan) String() string {
	if l == LifespanGoodForDay {
		return "GFD"
	}
	return "FAK"
}

// Instrument is one of the two tradable books.
type Instrument int

const (
	InstrumentFuture Instrument = 0
	InstrumentETF    Instrument = 1

	instrumentCount = 2
)

func (i Instrument) String() string {
	switch i {
	case InstrumentFuture:
		return "FUTURE"
	case InstrumentETF:
		return "ETF"
	default:
		return fmt.Sprintf("INSTRUMENT(%d)", int(i))
	}
}

// ---- Venue price constants ----

const (
	TickSize   int64 = 100
	MinimumBid int64 = 1
	MaximumAsk int64 = 2147483647

	// Hedge price bounds snapped to the tick grid: marketable at any sane price.
	MinBidNearestTick = (MinimumBid + TickSize) / TickSize * TickSize
	MaxAskNearestTick = MaximumAsk / TickSize * TickSize
)

// ---- Commands ----

// CommandKind says which Gateway call a Command maps to.
type CommandKind string

const (
	CmdInsert CommandKind = "insert"
	CmdCancel CommandKind = "cancel"
	CmdHedge  CommandKind = "hedge"
)

// Command is one outbound instruction produced by a controller step.
// Price/Volume/Side/Lifespan are unused for cancels.
type Command struct {
	Kind     CommandKind `json:"kind"`
	ID       OrderID     `json:"id"`
	Side     Side        `json:"side"`
	Price    int64       `json:"price"`
	Volume   int64       `json:"volume"`
	Lifespan Lifespan    `json:"lifespan"`
	Regime   Regime      `json:"regime,omitempty"`
}

func (c Command) String() string {
	switch c.Kind {
	case CmdCancel:
		return fmt.Sprintf("cancel #%d", c.ID)
	case CmdHedge:
		return fmt.Sprintf("hedge #%d %s %d @ %d", c.ID, c.Side, c.Volume, c.Price)
	default:
		return fmt.Sprintf("insert #%d %s %d @ %d %s", c.ID, c.Side, c.Volume, c.Price, c.Lifespan)
	}
}

// Gateway is the outbound surface to the venue.
type Gateway interface {
	Name() string
	InsertOrder(ctx context.Context, id OrderID, side Side, price, volume int64, lifespan Lifespan) error
	CancelOrder(ctx context.Context, id OrderID) error
	SendHedgeOrder(ctx context.Context, id OrderID, side Side, price, volume int64) error
}

// EventSource delivers inbound venue events in arrival order. The channel is
// closed when the source is exhausted or shut down.
type EventSource interface {
	Events() <-chan Event
}

// dispatch routes one command to the gateway.
func dispatch(ctx context.Context, gw Gateway, c Command) error {
	switch c.Kind {
	case CmdInsert:
		return gw.InsertOrder(ctx, c.ID, c.Side, c.Price, c.Volume, c.Lifespan)
	case CmdCancel:
		return gw.CancelOrder(ctx, c.ID)
	case CmdHedge:
		return gw.SendHedgeOrder(ctx, c.ID, c.Side, c.Price, c.Volume)
	default:
		return fmt.Errorf("unknown command kind %q", c.Kind)
	}
}

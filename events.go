// FILE: events.go
// Package main – Inbound venue events.
//
// Every message the exchange sidecar delivers is decoded into one of these
// types and handed to the event loop in arrival order. Only the snapshot,
// fill, status and error events change controller state; trade ticks and
// hedge fills are informational.
package main

import "fmt"

// Event is any inbound venue event.
type Event interface {
	Kind() string
}

const (
	EventSnapshot    = "order_book"
	EventTradeTicks  = "trade_ticks"
	EventOrderFilled = "order_filled"
	EventOrderStatus = "order_status"
	EventHedgeFilled = "hedge_filled"
	EventError       = "error"
)

// SnapshotEvent carries a depth-of-book update.
type SnapshotEvent struct {
	MarketSnapshot
}

func (SnapshotEvent) Kind() string { return EventSnapshot }

// TradeTicksEvent reports recent trading activity per price level.
type TradeTicksEvent struct {
	MarketSnapshot
}

func (TradeTicksEvent) Kind() string { return EventTradeTicks }

// OrderFilledEvent reports a (partial) fill of one of our quote orders.
type OrderFilledEvent struct {
	OrderID OrderID `json:"order_id"`
	Price   int64   `json:"price"`
	Volume  int64   `json:"volume"`
}

func (OrderFilledEvent) Kind() string { return EventOrderFilled }

// OrderStatusEvent reports the state of a quote order. A cancelled order
// reports RemainingVolume == 0.
type OrderStatusEvent struct {
	OrderID         OrderID `json:"order_id"`
	FilledVolume    int64   `json:"filled_volume"`
	RemainingVolume int64   `json:"remaining_volume"`
	Fees            int64   `json:"fees"`
}

func (OrderStatusEvent) Kind() string { return EventOrderStatus }

// HedgeFilledEvent reports the average price of a hedge fill.
type HedgeFilledEvent struct {
	OrderID OrderID `json:"order_id"`
	Price   int64   `json:"price"`
	Volume  int64   `json:"volume"`
}

func (HedgeFilledEvent) Kind() string { return EventHedgeFilled }

// ErrorEvent is a venue error; OrderID is 0 when no order is involved.
type ErrorEvent struct {
	OrderID OrderID `json:"order_id"`
	Message string  `json:"message"`
}

func (ErrorEvent) Kind() string { return EventError }

func (e ErrorEvent) Error() string {
	return fmt.Sprintf("venue error for order %d: %s", e.OrderID, e.Message)
}

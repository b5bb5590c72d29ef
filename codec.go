// FILE: codec.go
// Package main – Wire codec for the exchange sidecar.
//
// The sidecar speaks one JSON object per websocket text frame. Prices travel
// as decimal strings in major currency units ("101.50"); the core works in
// integer cents. Conversion goes through shopspring/decimal so no float
// rounding ever touches a price.
//
// Inbound  "type": order_book | trade_ticks | order_filled | order_status |
//                  hedge_filled | error
// Outbound "type": insert_order | cancel_order | hedge_order
package main

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// centsExp is the number of minor units digits per major unit.
const centsExp = 2

type wireInbound struct {
	Type       string            `json:"type"`
	Instrument int               `json:"instrument"`
	Seq        int64             `json:"seq"`
	AskPrices  []decimal.Decimal `json:"ask_prices"`
	AskVolumes []int64           `json:"ask_volumes"`
	BidPrices  []decimal.Decimal `json:"bid_prices"`
	BidVolumes []int64           `json:"bid_volumes"`

	OrderID         OrderID         `json:"order_id"`
	Price           decimal.Decimal `json:"price"`
	Volume          int64           `json:"volume"`
	FilledVolume    int64           `json:"filled_volume"`
	RemainingVolume int64           `json:"remaining_volume"`
	Fees            int64           `json:"fees"`
	Message         string          `json:"message"`
}

type wireOutbound struct {
	Type     string    `json:"type"`
	OrderID  OrderID   `json:"order_id"`
	Side     *Side     `json:"side,omitempty"`
	Price    string    `json:"price,omitempty"`
	Volume   int64     `json:"volume,omitempty"`
	Lifespan *Lifespan `json:"lifespan,omitempty"`
}

// toCents converts a major-unit decimal to integer cents (half away from zero).
func toCents(d decimal.Decimal) int64 {
	return d.Shift(centsExp).Round(0).IntPart()
}

// fromCents renders integer cents as a fixed two-decimal string.
func fromCents(c int64) string {
	return decimal.New(c, -centsExp).StringFixed(centsExp)
}

func centsSlice(ds []decimal.Decimal) []int64 {
	out := make([]int64, len(ds))
	for i, d := range ds {
		out[i] = toCents(d)
	}
	return out
}

// decodeWire parses one sidecar frame into an Event.
func decodeWire(b []byte) (Event, error) {
	var m wireInbound
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	switch m.Type {
	case EventSnapshot, EventTradeTicks:
		if m.Instrument < 0 || m.Instrument >= instrumentCount {
			return nil, fmt.Errorf("%s: unknown instrument %d", m.Type, m.Instrument)
		}
		snap := MarketSnapshot{
			Instrument: Instrument(m.Instrument),
			Seq:        m.Seq,
			AskPrices:  centsSlice(m.AskPrices),
			AskVolumes: m.AskVolumes,
			BidPrices:  centsSlice(m.BidPrices),
			BidVolumes: m.BidVolumes,
		}
		if m.Type == EventTradeTicks {
			return TradeTicksEvent{snap}, nil
		}
		return SnapshotEvent{snap}, nil
	case EventOrderFilled:
		return OrderFilledEvent{OrderID: m.OrderID, Price: toCents(m.Price), Volume: m.Volume}, nil
	case EventOrderStatus:
		return OrderStatusEvent{
			OrderID:         m.OrderID,
			FilledVolume:    m.FilledVolume,
			RemainingVolume: m.RemainingVolume,
			Fees:            m.Fees,
		}, nil
	case EventHedgeFilled:
		return HedgeFilledEvent{OrderID: m.OrderID, Price: toCents(m.Price), Volume: m.Volume}, nil
	case EventError:
		return ErrorEvent{OrderID: m.OrderID, Message: m.Message}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", m.Type)
	}
}

// encodeCommand renders a command as a sidecar frame.
func encodeCommand(c Command) ([]byte, error) {
	out := wireOutbound{OrderID: c.ID}
	switch c.Kind {
	case CmdInsert:
		side := c.Side
		out.Type = "insert_order"
		out.Side = &side
		out.Price = fromCents(c.Price)
		out.Volume = c.Volume
		life := c.Lifespan
		out.Lifespan = &life
	case CmdCancel:
		out.Type = "cancel_order"
	case CmdHedge:
		side := c.Side
		out.Type = "hedge_order"
		out.Side = &side
		out.Price = fromCents(c.Price)
		out.Volume = c.Volume
	default:
		return nil, fmt.Errorf("unknown command kind %q", c.Kind)
	}
	return json.Marshal(out)
}

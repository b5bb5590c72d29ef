// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the metrics the agent updates while running:
//   • readytrader_commands_total{kind,side}        – insert/cancel/hedge commands issued
//   • readytrader_gateway_failures_total{kind}     – commands the gateway refused to send
//   • readytrader_fills_total{side}                – fills on our quote orders
//   • readytrader_fills_unmatched_total            – fills for ids we no longer own
//   • readytrader_hedge_fills_total                – hedge fill notifications
//   • readytrader_venue_errors_total{known}        – venue errors (known=true|false id)
//   • readytrader_book_updates_total{instrument}   – depth snapshots processed
//   • readytrader_trade_ticks_total{instrument}    – trade tick messages seen
//   • readytrader_order_lifetime_seconds{side}     – placement to terminal status
//   • readytrader_position_lots                    – net position
//   • readytrader_theo / _imbalance / _volatility  – current signal
//   • readytrader_phase{phase}                     – controller phase (one series at 1)
//   • readytrader_bridge_reconnects_total          – websocket reconnects
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).

package main

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mtxCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readytrader_commands_total",
			Help: "Commands issued to the gateway",
		},
		[]string{"kind", "side"},
	)

	mtxGatewayFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readytrader_gateway_failures_total",
			Help: "Commands that failed to leave the process",
		},
		[]string{"kind"},
	)

	mtxFills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readytrader_fills_total",
			Help: "Fills on resting quote orders",
		},
		[]string{"side"}, // BUY|SELL (side of the filled quote)
	)

	mtxFillsUnmatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "readytrader_fills_unmatched_total",
			Help: "Fills for order ids no longer tracked (ignored)",
		},
	)

	mtxHedgeFills = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "readytrader_hedge_fills_total",
			Help: "Hedge fill notifications",
		},
	)

	mtxVenueErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readytrader_venue_errors_total",
			Help: "Venue error messages split by whether the id was ours",
		},
		[]string{"known"},
	)

	mtxBookUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readytrader_book_updates_total",
			Help: "Order book snapshots processed",
		},
		[]string{"instrument"},
	)

	mtxTradeTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readytrader_trade_ticks_total",
			Help: "Trade tick messages received",
		},
		[]string{"instrument"},
	)

	// Order lifetime from insert to zero-remaining status.
	mtxOrderLifetime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "readytrader_order_lifetime_seconds",
			Help:    "Time from insert to terminal status for quote orders",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"side"},
	)

	mtxPosition = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "readytrader_position_lots",
			Help: "Net position in lots",
		},
	)

	mtxTheo = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "readytrader_theo",
			Help: "Current theoretical price (Future weighted mid, cents)",
		},
	)

	mtxImbalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "readytrader_imbalance",
			Help: "Current Future depth imbalance",
		},
	)

	mtxVolatility = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "readytrader_volatility",
			Help: "Rolling Future weighted-mid volatility",
		},
	)

	// readytrader_phase exposes one labeled series per phase and flips them
	// between 0/1 to keep dashboards simple.
	mtxPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "readytrader_phase",
			Help: "Controller phase indicator",
		},
		[]string{"phase"},
	)

	mtxBridgeReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "readytrader_bridge_reconnects_total",
			Help: "Websocket reconnect attempts to the exchange sidecar",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxCommands, mtxGatewayFailures)
	prometheus.MustRegister(mtxFills, mtxFillsUnmatched, mtxHedgeFills, mtxVenueErrors)
	prometheus.MustRegister(mtxBookUpdates, mtxTradeTicks, mtxOrderLifetime)
	prometheus.MustRegister(mtxPosition, mtxTheo, mtxImbalance, mtxVolatility, mtxPhase)
	prometheus.MustRegister(mtxBridgeReconnects)
}

func IncCommand(kind, side string) { mtxCommands.WithLabelValues(kind, side).Inc() }
func IncGatewayFailure(kind string) { mtxGatewayFailures.WithLabelValues(kind).Inc() }
func IncFill(side string)           { mtxFills.WithLabelValues(side).Inc() }
func IncFillUnmatched()             { mtxFillsUnmatched.Inc() }
func IncHedgeFilled()               { mtxHedgeFills.Inc() }
func IncVenueError(known bool)      { mtxVenueErrors.WithLabelValues(strconv.FormatBool(known)).Inc() }
func IncBookUpdates(instr string)   { mtxBookUpdates.WithLabelValues(instr).Inc() }
func IncTradeTicks(instr string)    { mtxTradeTicks.WithLabelValues(instr).Inc() }
func IncBridgeReconnect()           { mtxBridgeReconnects.Inc() }

func ObserveOrderLifetime(side string, d time.Duration) {
	mtxOrderLifetime.WithLabelValues(side).Observe(d.Seconds())
}

func SetPositionMetric(p int64) { mtxPosition.Set(float64(p)) }

func SetSignalMetrics(theo, imbalance, vol float64) {
	mtxTheo.Set(theo)
	mtxImbalance.Set(imbalance)
	mtxVolatility.Set(vol)
}

func SetPhaseMetric(phase string) {
	for _, p := range []Phase{PhaseEmpty, PhaseBidOnly, PhaseAskOnly, PhaseBothResting} {
		v := 0.0
		if p.String() == phase {
			v = 1
		}
		mtxPhase.WithLabelValues(p.String()).Set(v)
	}
}

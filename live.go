// FILE: live.go
// Package main – The single-threaded event loop.
//
// runLive drains an EventSource one event at a time:
//   • Each event is handled to completion before the next is read.
//   • The loop ends when the context is cancelled (nil error) or the source
//     closes its channel (errSourceClosed).
//   • A panic inside a handler is recovered once, logged with a state dump
//     and returned as an error: the session stops instead of quoting on top
//     of half-applied state.

package main

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

var errSourceClosed = errors.New("event source closed")

// runLive executes the real-time loop until ctx ends or src is exhausted.
func runLive(ctx context.Context, trader *Trader, src EventSource) error {
	pol := trader.cfg.Policy
	trader.log.Infof("Starting %s — preset=%s dry_run=%v",
		trader.gw.Name(), pol.Name, trader.cfg.DryRun)
	trader.log.Infof("[POLICY] lot=%d imbal=%.2f wait=%.2fs requote=%.2fs inv=%.3f skew=%.2f/%.2f window=%d bands=%v",
		pol.LotSize, pol.ImbalanceThreshold, pol.WaitSeconds, pol.RequoteSeconds,
		pol.InventoryScalar, pol.FarSkew, pol.NearSkew, pol.RollingWindow, pol.VolatilityBands)

	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			trader.log.Info("shutdown")
			return nil
		case ev, ok := <-events:
			if !ok {
				return errSourceClosed
			}
			if err := trader.safeHandle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// safeHandle runs Handle and converts a panic into an error.
func (t *Trader) safeHandle(ctx context.Context, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			st := t.state
			t.log.Errorw("[PANIC] event handler crashed",
				"event", ev.Kind(),
				"panic", fmt.Sprint(r),
				"phase", st.Phase().String(),
				"position", st.Position,
				"bid_id", st.Bid.ID,
				"ask_id", st.Ask.ID,
				"next_id", st.NextID,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic on %s: %v", ev.Kind(), r)
		}
	}()
	t.Handle(ctx, ev)
	return nil
}

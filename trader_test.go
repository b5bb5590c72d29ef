package main

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func steadyConfig() Config {
	return Config{Policy: SteadyPolicy(), DryRun: true}
}

func TestTrader_DispatchesQuotesAndHedges(t *testing.T) {
	clock := &fakeClock{t: t0}
	paper := NewPaperGateway(nil)
	tr := NewTrader(steadyConfig(), paper, nil, nil, clock.Now)
	ctx := context.Background()

	tr.Handle(ctx, book(InstrumentFuture, 9950, 10050, 10, 10))
	tr.Handle(ctx, book(InstrumentETF, 9950, 10050, 10, 10))
	clock.Advance(100 * time.Millisecond)
	tr.Handle(ctx, OrderFilledEvent{OrderID: 1, Price: 9800, Volume: 12})

	cmds := paper.Commands()
	require.Equal(t, []CommandKind{CmdInsert, CmdInsert, CmdHedge}, kinds(cmds))
	assert.Equal(t, Command{Kind: CmdHedge, ID: 3, Side: SideSell, Price: MinBidNearestTick, Volume: 12}, cmds[2])
	assert.Equal(t, LifespanGoodForDay, cmds[0].Lifespan)
	assert.Equal(t, int64(12), tr.State().Position)

	for _, r := range paper.Sent() {
		assert.NotEmpty(t, r.Ref)
	}
}

func TestTrader_GatewayFailureKeepsState(t *testing.T) {
	gw := &failingGateway{}
	tr := NewTrader(steadyConfig(), gw, nil, nil, (&fakeClock{t: t0}).Now)
	ctx := context.Background()

	tr.Handle(ctx, book(InstrumentFuture, 9950, 10050, 10, 10))
	tr.Handle(ctx, book(InstrumentETF, 9950, 10050, 10, 10))

	assert.Equal(t, 2, gw.calls)
	st := tr.State()
	assert.Equal(t, PhaseBothResting, st.Phase(), "slots move on venue events, not on send results")
	assert.Equal(t, OrderID(3), st.NextID)
}

func TestTrader_LogsFillsAndExecutionTime(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	clock := &fakeClock{t: t0}
	tr := NewTrader(steadyConfig(), NewPaperGateway(nil), nil, zap.New(core).Sugar(), clock.Now)
	ctx := context.Background()

	tr.Handle(ctx, book(InstrumentFuture, 9950, 10050, 10, 10))
	tr.Handle(ctx, book(InstrumentETF, 9950, 10050, 10, 10))
	clock.Advance(250 * time.Millisecond)
	tr.Handle(ctx, OrderFilledEvent{OrderID: 2, Price: 10200, Volume: 30})
	tr.Handle(ctx, OrderStatusEvent{OrderID: 2, FilledVolume: 30})
	tr.Handle(ctx, OrderFilledEvent{OrderID: 2, Price: 10200, Volume: 1})

	assert.Equal(t, 2, logs.FilterMessageSnippet("[QUOTE]").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("[EXEC] SELL order 2 ended after 0.2500s").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("not ours anymore").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("[HEDGE] order 3: BUY 30").Len())
}

func TestTrader_SafeHandleRecoversPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	gw := &panickingGateway{NewPaperGateway(nil)}
	tr := NewTrader(steadyConfig(), gw, nil, zap.New(core).Sugar(), (&fakeClock{t: t0}).Now)
	ctx := context.Background()

	require.NoError(t, tr.safeHandle(ctx, book(InstrumentFuture, 9950, 10050, 10, 10)))
	err := tr.safeHandle(ctx, book(InstrumentETF, 9950, 10050, 10, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	entries := logs.FilterMessage("[PANIC] event handler crashed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, EventSnapshot, entries[0].ContextMap()["event"])
}

func TestTrader_DrainingStaysBoundedWhenGatewayIsDown(t *testing.T) {
	gw := &failingGateway{}
	clock := &fakeClock{t: t0}
	tr := NewTrader(steadyConfig(), gw, nil, nil, clock.Now)
	ctx := context.Background()

	// every cycle moves theo a tick so each requote cancels and reinserts
	for i := 0; i < 2000; i++ {
		mid := int64(10000 + 100*(i%2))
		tr.Handle(ctx, book(InstrumentFuture, mid-50, mid+50, 10, 10))
		tr.Handle(ctx, book(InstrumentETF, 9950, 10050, 10, 10))
		clock.Advance(1500 * time.Millisecond)
	}

	st := tr.State()
	assert.Equal(t, PhaseBothResting, st.Phase())
	assert.Len(t, st.Bid.Draining, maxDraining)
	assert.Len(t, st.Ask.Draining, maxDraining)
	_, owned := st.SideOf(1)
	assert.False(t, owned, "the oldest cancelled ids are forgotten")

	recent := st.Bid.Draining[maxDraining-1]
	_, cmds := Step(st, OrderFilledEvent{OrderID: recent, Price: 9800, Volume: 3}, clock.Now())
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdHedge, cmds[0].Kind)
}

func fillCount(t *testing.T, side string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, mtxFills.WithLabelValues(side).Write(&m))
	return m.GetCounter().GetValue()
}

func TestTrader_ZeroVolumeFillIsNotCounted(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tr := NewTrader(steadyConfig(), NewPaperGateway(nil), nil, zap.New(core).Sugar(), (&fakeClock{t: t0}).Now)
	ctx := context.Background()
	tr.Handle(ctx, book(InstrumentFuture, 9950, 10050, 10, 10))
	tr.Handle(ctx, book(InstrumentETF, 9950, 10050, 10, 10))

	before := fillCount(t, "BUY")
	tr.Handle(ctx, OrderFilledEvent{OrderID: 1, Price: 9800, Volume: 0})
	assert.Equal(t, before, fillCount(t, "BUY"))
	assert.Equal(t, 1, logs.FilterMessageSnippet("with volume 0 (ignored)").Len())

	tr.Handle(ctx, OrderFilledEvent{OrderID: 1, Price: 9800, Volume: 4})
	assert.Equal(t, before+1, fillCount(t, "BUY"))
}

func TestTrader_WarnsOnOutOfOrderBook(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := NewTrader(steadyConfig(), NewPaperGateway(nil), nil, zap.New(core).Sugar(), (&fakeClock{t: t0}).Now)
	ctx := context.Background()

	for _, seq := range []int64{5, 3, 6} {
		ev := book(InstrumentFuture, 9950, 10050, 10, 10)
		ev.Seq = seq
		tr.Handle(ctx, ev)
	}
	etf := book(InstrumentETF, 9950, 10050, 10, 10)
	etf.Seq = 1
	tr.Handle(ctx, etf)

	entries := logs.FilterMessageSnippet("out of order").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "[BOOK] FUTURE seq=3 not after 5 (out of order)", entries[0].Message)
	st := tr.State()
	assert.Equal(t, int64(6), st.Engine.LastSeq(InstrumentFuture))
}

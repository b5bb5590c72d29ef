package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSessionFile runs a short live session through a journal and returns
// the journal bytes.
func recordSessionFile(t *testing.T, session string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j := NewJournal(path, session)
	clock := &fakeClock{t: t0}
	tr := NewTrader(steadyConfig(), NewPaperGateway(nil), j, nil, clock.Now)
	ctx := context.Background()

	script := []struct {
		after time.Duration
		ev    Event
	}{
		{0, book(InstrumentFuture, 9950, 10050, 10, 10)},
		{0, book(InstrumentETF, 9950, 10050, 10, 10)},
		{100 * time.Millisecond, OrderFilledEvent{OrderID: 2, Price: 10200, Volume: 30}},
		{50 * time.Millisecond, OrderStatusEvent{OrderID: 2, FilledVolume: 30}},
		{50 * time.Millisecond, book(InstrumentETF, 9950, 10050, 10, 10)},
		{300 * time.Millisecond, book(InstrumentFuture, 10050, 10150, 10, 10)},
		{0, book(InstrumentETF, 9950, 10050, 10, 10)},
		{0, HedgeFilledEvent{OrderID: 3, Price: 10210, Volume: 30}},
	}
	for _, s := range script {
		clock.Advance(s.after)
		tr.Handle(ctx, s.ev)
	}
	require.NoError(t, j.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestReplay_ReproducesRecordedSession(t *testing.T) {
	data := recordSessionFile(t, "sess-a")

	sum, err := runReplay(context.Background(), bytes.NewReader(data), "", steadyConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "sess-a", sum.Session)
	assert.Equal(t, 8, sum.Events)
	// 2 inserts, 1 hedge, then cancel + 2 inserts after the grace period
	assert.Equal(t, 6, sum.Commands)
	assert.True(t, sum.Deterministic(), "%+v", sum)
	assert.Equal(t, int64(-30), sum.Position)
	assert.Equal(t, OrderID(6), sum.NextID)
}

func TestReplay_DifferentPolicyDiverges(t *testing.T) {
	data := recordSessionFile(t, "sess-a")

	cfg := steadyConfig()
	cfg.Policy.LotSize = 10
	sum, err := runReplay(context.Background(), bytes.NewReader(data), "sess-a", cfg, nil)
	require.NoError(t, err)
	assert.False(t, sum.Deterministic())
	assert.Positive(t, sum.Mismatches)
}

func TestReplay_PicksRequestedSession(t *testing.T) {
	data := append(recordSessionFile(t, "first"), recordSessionFile(t, "second")...)

	sum, err := runReplay(context.Background(), bytes.NewReader(data), "second", steadyConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "second", sum.Session)
	assert.Equal(t, 8, sum.Events)
	assert.True(t, sum.Deterministic())

	sum, err = runReplay(context.Background(), bytes.NewReader(data), "missing", steadyConfig(), nil)
	require.NoError(t, err)
	assert.Zero(t, sum.Events)
}

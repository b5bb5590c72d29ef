// FILE: replay.go
// Package main – Journal replay.
//
// What’s here:
//   • runReplay(r, session, cfg, lg) -> ReplaySummary
//       - reads a session journal (journal.go format)
//       - feeds its inbound events, in order, through a fresh Trader whose
//         clock is the recorded timestamp of each event
//       - routes commands to a PaperGateway and compares them with the
//         commands the live session journaled
//
// This is a determinism check for a recorded session, not a backtest:
// nothing is simulated, fills only happen if the journal recorded them.
//
// Notes:
//   • A journal file may hold several sessions; session "" picks the first.
//   • The replay clock starts at the session start record, or at the first
//     event when the journal has none.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// ReplaySummary is the outcome of a replay.
type ReplaySummary struct {
	Session          string
	Events           int
	Commands         int
	RecordedCommands int
	Mismatches       int // positions where replayed and recorded commands differ
	Position         int64
	NextID           OrderID
}

// Deterministic reports whether the replay reproduced the recorded commands.
func (s ReplaySummary) Deterministic() bool {
	return s.Mismatches == 0 && s.Commands == s.RecordedCommands
}

type replayClock struct{ now time.Time }

func (c *replayClock) Now() time.Time { return c.now }

// runReplay replays one session from r.
func runReplay(ctx context.Context, r io.Reader, session string, cfg Config, lg *zap.SugaredLogger) (ReplaySummary, error) {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	var (
		start    time.Time
		events   []JournalRecord
		recorded []Command
	)
	err := ReadJournal(r, func(rec JournalRecord) error {
		if session == "" {
			session = rec.Session
		}
		if rec.Session != session {
			return nil
		}
		switch rec.Type {
		case recordSession:
			if start.IsZero() {
				start = rec.Time
			}
		case recordEvent:
			events = append(events, rec)
		case recordCommand:
			var c Command
			if err := json.Unmarshal(rec.Data, &c); err != nil {
				return fmt.Errorf("decode recorded command: %w", err)
			}
			recorded = append(recorded, c)
		}
		return nil
	})
	if err != nil {
		return ReplaySummary{}, err
	}

	sum := ReplaySummary{Session: session, RecordedCommands: len(recorded)}
	if len(events) == 0 {
		return sum, nil
	}

	if start.IsZero() {
		start = events[0].Time
	}
	clock := &replayClock{now: start}
	paper := NewPaperGateway(lg)
	trader := NewTrader(cfg, paper, nil, lg, clock.Now)

	for _, rec := range events {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		ev, err := rec.Event()
		if err != nil {
			return sum, err
		}
		clock.now = rec.Time
		if err := trader.safeHandle(ctx, ev); err != nil {
			return sum, err
		}
		sum.Events++
	}

	replayed := paper.Commands()
	sum.Commands = len(replayed)
	for i := 0; i < min(len(replayed), len(recorded)); i++ {
		if !sameCommand(replayed[i], recorded[i]) {
			sum.Mismatches++
		}
	}
	st := trader.State()
	sum.Position = st.Position
	sum.NextID = st.NextID
	return sum, nil
}

// sameCommand compares the fields a gateway actually receives.
func sameCommand(a, b Command) bool {
	if a.Kind != b.Kind || a.ID != b.ID {
		return false
	}
	if a.Kind == CmdCancel {
		return true
	}
	return a.Side == b.Side && a.Price == b.Price && a.Volume == b.Volume
}

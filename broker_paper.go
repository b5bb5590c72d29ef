// FILE: broker_paper.go
// Package main – In-memory paper gateway (no external calls).
//
// The paper gateway accepts every command and keeps a receipt for it. It is
// used for dry runs (DRY_RUN=true: market data still comes from the sidecar,
// orders never reach the venue) and as the sink for journal replays.
//
// Methods:
//   • Name() string
//   • InsertOrder / CancelOrder / SendHedgeOrder – record a receipt
//   • Sent() []PaperReceipt                       – copy of all receipts
//   • Commands() []Command                        – just the commands
package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaperReceipt is what the paper gateway remembers about a command.
type PaperReceipt struct {
	Ref     string // paper-side reference, unique per command
	Command Command
	At      time.Time
}

// PaperGateway records commands instead of sending them.
type PaperGateway struct {
	mu   sync.Mutex
	sent []PaperReceipt
	log  *zap.SugaredLogger
}

func NewPaperGateway(lg *zap.SugaredLogger) *PaperGateway {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &PaperGateway{log: lg}
}

func (p *PaperGateway) Name() string { return "paper" }

func (p *PaperGateway) InsertOrder(ctx context.Context, id OrderID, side Side, price, volume int64, lifespan Lifespan) error {
	p.record(Command{Kind: CmdInsert, ID: id, Side: side, Price: price, Volume: volume, Lifespan: lifespan})
	return nil
}

func (p *PaperGateway) CancelOrder(ctx context.Context, id OrderID) error {
	p.record(Command{Kind: CmdCancel, ID: id})
	return nil
}

func (p *PaperGateway) SendHedgeOrder(ctx context.Context, id OrderID, side Side, price, volume int64) error {
	p.record(Command{Kind: CmdHedge, ID: id, Side: side, Price: price, Volume: volume})
	return nil
}

func (p *PaperGateway) record(c Command) {
	r := PaperReceipt{Ref: uuid.New().String(), Command: c, At: time.Now().UTC()}
	p.mu.Lock()
	p.sent = append(p.sent, r)
	p.mu.Unlock()
	p.log.Debugf("[PAPER] %s ref=%s", c, r.Ref)
}

// Sent returns a copy of every receipt, oldest first.
func (p *PaperGateway) Sent() []PaperReceipt {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PaperReceipt, len(p.sent))
	copy(out, p.sent)
	return out
}

// Commands returns just the recorded commands, oldest first.
func (p *PaperGateway) Commands() []Command {
	rs := p.Sent()
	out := make([]Command, len(rs))
	for i, r := range rs {
		out[i] = r.Command
	}
	return out
}

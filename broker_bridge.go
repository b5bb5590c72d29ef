// FILE: broker_bridge.go
// Package main – Websocket gateway to the exchange sidecar.
//
// The sidecar owns the venue session (login, framing, sequencing). This
// gateway keeps one websocket open to it and:
//   • decodes every inbound frame (codec.go) and enqueues it on Events()
//   • encodes insert/cancel/hedge commands and writes them as text frames
//
// Connection handling:
//   - Reconnects with capped exponential backoff until the context ends.
//   - Read deadline is extended by every frame and every pong; a ping is
//     sent every PingInterval.
//   - Writes are serialized by writeMu; a command sent while disconnected
//     fails with errNotConnected (fire-and-forget: the caller logs it).
//   - Events() blocks the reader when the loop is behind. Frames are never
//     dropped: a lost fill would be an unhedged fill.
//   - Events() is closed once the reader goroutine exits.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	errNotConnected = errors.New("bridge: not connected")
	errBridgeClosed = errors.New("bridge: closed")
)

const (
	bridgeWriteTimeout = 5 * time.Second
	bridgeBackoffBase  = 250 * time.Millisecond
	bridgeBackoffMax   = 15 * time.Second
)

// BridgeGateway talks to the exchange sidecar over a websocket.
type BridgeGateway struct {
	url    string
	log    *zap.SugaredLogger
	events chan Event

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup

	ReadTimeout  time.Duration
	PingInterval time.Duration
}

// NewBridgeGateway prepares a gateway; call Start to connect.
func NewBridgeGateway(url string, buffer int, lg *zap.SugaredLogger) *BridgeGateway {
	url = strings.TrimSpace(url)
	if i := strings.IndexAny(url, " \t#"); i >= 0 { // cut trailing comment/space
		url = strings.TrimSpace(url[:i])
	}
	if url == "" {
		url = "ws://127.0.0.1:8787/ws"
	}
	if buffer < 1 {
		buffer = 1
	}
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &BridgeGateway{
		url:          url,
		log:          lg,
		events:       make(chan Event, buffer),
		ReadTimeout:  60 * time.Second,
		PingInterval: 15 * time.Second,
	}
}

func (b *BridgeGateway) Name() string { return "sidecar-bridge" }

// Events is the inbound stream; closed after Close or context end.
func (b *BridgeGateway) Events() <-chan Event { return b.events }

// Start launches the connect/read loop.
func (b *BridgeGateway) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.runLoop(ctx)
}

// Close stops the loop and waits for the reader to exit.
func (b *BridgeGateway) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	b.dropConn()
	b.wg.Wait()
	return nil
}

// Connected reports whether a websocket is currently open.
func (b *BridgeGateway) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conn != nil
}

// ---- Connection loop ----

func (b *BridgeGateway) runLoop(ctx context.Context) {
	defer b.wg.Done()
	defer close(b.events)

	retry := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := b.connect(ctx)
		if err != nil {
			delay := bridgeBackoff(retry)
			b.log.Warnf("[BRIDGE] connect %s failed (retry=%d, next in %s): %v", b.url, retry, delay, err)
			retry++
			IncBridgeReconnect()
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}
		retry = 0
		b.log.Infof("[BRIDGE] connected to %s", b.url)
		b.process(ctx, conn)
	}
}

// bridgeBackoff doubles from bridgeBackoffBase up to bridgeBackoffMax.
func bridgeBackoff(retry int) time.Duration {
	d := bridgeBackoffBase
	for i := 0; i < retry && d < bridgeBackoffMax; i++ {
		d *= 2
	}
	return min(d, bridgeBackoffMax)
}

func (b *BridgeGateway) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("User-Agent", "readytrader/bridge")

	conn, _, err := dialer.DialContext(ctx, b.url, header)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = conn.Close()
		return nil, errBridgeClosed
	}
	b.conn = conn
	b.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		return b.extendRead(conn)
	})
	if b.PingInterval > 0 {
		go b.pingLoop(ctx, conn)
	}
	return conn, nil
}

func (b *BridgeGateway) process(ctx context.Context, conn *websocket.Conn) {
	defer b.dropConn()
	for {
		_ = b.extendRead(conn)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				b.log.Warnf("[BRIDGE] read error: %v", err)
			}
			return
		}
		ev, err := decodeWire(msg)
		if err != nil {
			b.log.Warnf("[BRIDGE] dropping frame: %v", err)
			continue
		}
		select {
		case b.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// extendRead pushes the read deadline out by ReadTimeout; no deadline when
// ReadTimeout is not positive.
func (b *BridgeGateway) extendRead(conn *websocket.Conn) error {
	if b.ReadTimeout <= 0 {
		return conn.SetReadDeadline(time.Time{})
	}
	return conn.SetReadDeadline(time.Now().Add(b.ReadTimeout))
}

func (b *BridgeGateway) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(b.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(bridgeWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (b *BridgeGateway) dropConn() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}

// ---- Gateway ----

func (b *BridgeGateway) InsertOrder(ctx context.Context, id OrderID, side Side, price, volume int64, lifespan Lifespan) error {
	return b.write(Command{Kind: CmdInsert, ID: id, Side: side, Price: price, Volume: volume, Lifespan: lifespan})
}

func (b *BridgeGateway) CancelOrder(ctx context.Context, id OrderID) error {
	return b.write(Command{Kind: CmdCancel, ID: id})
}

func (b *BridgeGateway) SendHedgeOrder(ctx context.Context, id OrderID, side Side, price, volume int64) error {
	return b.write(Command{Kind: CmdHedge, ID: id, Side: side, Price: price, Volume: volume})
}

func (b *BridgeGateway) write(c Command) error {
	frame, err := encodeCommand(c)
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.RLock()
	conn := b.conn
	b.mu.RUnlock()
	if conn == nil {
		return errNotConnected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(bridgeWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("bridge write %s: %w", c.Kind, err)
	}
	return nil
}

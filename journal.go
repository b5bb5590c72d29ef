// FILE: journal.go
// Package main – Append-only JSONL journal of a trading session.
//
// Every inbound event and every outbound command is written as one JSON
// object per line:
//
//   {"ts":"...","session":"<uuid>","type":"session","kind":"start","data":{"preset":"adaptive"}}
//   {"ts":"...","session":"<uuid>","type":"event","kind":"order_book","data":{...}}
//   {"ts":"...","session":"<uuid>","type":"command","kind":"insert","data":{...}}
//
// The file is flushed after every record so `tail -f` shows decisions as they
// happen. replay.go reads the same format back. A nil *Journal is valid and
// writes nothing (JOURNAL_FILE unset).
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	recordSession = "session"
	recordEvent   = "event"
	recordCommand = "command"
)

// JournalRecord is one line of the journal.
type JournalRecord struct {
	Time    time.Time       `json:"ts"`
	Session string          `json:"session"`
	Type    string          `json:"type"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

// Journal appends records to a file. It is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	path    string
	session string
	file    *os.File
	w       *bufio.Writer
}

// NewJournal returns a journal appending to path, or nil for a blank path.
// The file is opened lazily on first write.
func NewJournal(path, session string) *Journal {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return &Journal{path: path, session: session}
}

// Session is the id stamped on every record.
func (j *Journal) Session() string {
	if j == nil {
		return ""
	}
	return j.session
}

func (j *Journal) ensureOpenLocked() error {
	if j.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	j.file = f
	j.w = bufio.NewWriterSize(f, 256*1024)
	return nil
}

// RecordStart marks the start of a session; replay uses it as the initial clock.
func (j *Journal) RecordStart(ts time.Time, preset string) error {
	if j == nil {
		return nil
	}
	return j.write(ts, recordSession, "start", map[string]string{"preset": preset})
}

// RecordEvent journals an inbound event.
func (j *Journal) RecordEvent(ts time.Time, ev Event) error {
	if j == nil {
		return nil
	}
	return j.write(ts, recordEvent, ev.Kind(), ev)
}

// RecordCommand journals an outbound command.
func (j *Journal) RecordCommand(ts time.Time, c Command) error {
	if j == nil {
		return nil
	}
	return j.write(ts, recordCommand, string(c.Kind), c)
}

func (j *Journal) write(ts time.Time, typ, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("journal: marshal %s: %w", kind, err)
	}
	b, err := json.Marshal(JournalRecord{
		Time:    ts.UTC(),
		Session: j.session,
		Type:    typ,
		Kind:    kind,
		Data:    data,
	})
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensureOpenLocked(); err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

// Close flushes buffered data and closes the file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	var firstErr error
	if j.w != nil {
		if err := j.w.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if j.file != nil {
		if err := j.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	j.w = nil
	j.file = nil

	if firstErr != nil && errors.Is(firstErr, os.ErrClosed) {
		return nil
	}
	return firstErr
}

// ---- Reading ----

// ReadJournal calls fn for every record in r, in file order. Blank lines are
// skipped; a malformed line stops the read with its line number.
func ReadJournal(r io.Reader, fn func(JournalRecord) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec JournalRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return fmt.Errorf("journal line %d: %w", line, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Event decodes an event record back into its typed form.
func (r JournalRecord) Event() (Event, error) {
	if r.Type != recordEvent {
		return nil, fmt.Errorf("record is a %s, not an event", r.Type)
	}
	var (
		ev  Event
		err error
	)
	switch r.Kind {
	case EventSnapshot:
		var e SnapshotEvent
		err = json.Unmarshal(r.Data, &e)
		ev = e
	case EventTradeTicks:
		var e TradeTicksEvent
		err = json.Unmarshal(r.Data, &e)
		ev = e
	case EventOrderFilled:
		var e OrderFilledEvent
		err = json.Unmarshal(r.Data, &e)
		ev = e
	case EventOrderStatus:
		var e OrderStatusEvent
		err = json.Unmarshal(r.Data, &e)
		ev = e
	case EventHedgeFilled:
		var e HedgeFilledEvent
		err = json.Unmarshal(r.Data, &e)
		ev = e
	case EventError:
		var e ErrorEvent
		err = json.Unmarshal(r.Data, &e)
		ev = e
	default:
		return nil, fmt.Errorf("unknown event kind %q", r.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.Kind, err)
	}
	return ev, nil
}

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_NilIsNoop(t *testing.T) {
	j := NewJournal("  ", "s1")
	assert.Nil(t, j)
	assert.NoError(t, j.RecordStart(t0, "steady"))
	assert.NoError(t, j.RecordEvent(t0, OrderStatusEvent{OrderID: 1}))
	assert.NoError(t, j.RecordCommand(t0, Command{Kind: CmdCancel, ID: 1}))
	assert.NoError(t, j.Close())
	assert.Equal(t, "", j.Session())
}

func TestJournal_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.jsonl")
	j := NewJournal(path, "s1")
	require.NoError(t, j.RecordStart(t0, "steady"))
	require.NoError(t, j.RecordEvent(at(0.1), book(InstrumentETF, 9900, 10100, 3, 4)))
	require.NoError(t, j.RecordEvent(at(0.2), ErrorEvent{OrderID: 3, Message: "rejected"}))
	require.NoError(t, j.RecordCommand(at(0.2), Command{Kind: CmdHedge, ID: 4, Side: SideBuy, Price: MaxAskNearestTick, Volume: 5}))
	require.NoError(t, j.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var recs []JournalRecord
	require.NoError(t, ReadJournal(f, func(r JournalRecord) error {
		recs = append(recs, r)
		return nil
	}))
	require.Len(t, recs, 4)
	assert.Equal(t, recordSession, recs[0].Type)
	assert.True(t, recs[0].Time.Equal(t0))
	assert.Equal(t, "s1", recs[1].Session)

	ev, err := recs[1].Event()
	require.NoError(t, err)
	assert.Equal(t, book(InstrumentETF, 9900, 10100, 3, 4), ev)

	ev, err = recs[2].Event()
	require.NoError(t, err)
	assert.Equal(t, ErrorEvent{OrderID: 3, Message: "rejected"}, ev)

	assert.Equal(t, recordCommand, recs[3].Type)
	_, err = recs[3].Event()
	assert.Error(t, err)
}

func TestReadJournal_BadLine(t *testing.T) {
	in := `{"ts":"2024-03-01T10:00:00Z","session":"s","type":"session","kind":"start","data":{}}

{broken
`
	err := ReadJournal(strings.NewReader(in), func(JournalRecord) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal line 3")
}

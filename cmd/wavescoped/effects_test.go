package main

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunEffect_LoadWithoutEnvFails(t *testing.T) {
	var got []Event
	runEffect(nil, CmdLoadWaveform{Path: "a.json"}, discardLogger(), func(ev Event) { got = append(got, ev) })

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	cf, ok := got[0].(CommandFailed)
	if !ok {
		t.Fatalf("expected CommandFailed, got %T", got[0])
	}
	if !errors.As(cf.Err, new(errNoLoader)) {
		t.Fatalf("expected errNoLoader, got %v", cf.Err)
	}
	lf, ok := got[1].(WaveformLoadFailed)
	if !ok || lf.Path != "a.json" {
		t.Fatalf("expected WaveformLoadFailed for a.json, got %#v", got[1])
	}
}

func TestRunEffect_PublishSnapshotNeverBlocks(t *testing.T) {
	reply := make(chan StateSnapshot, 1)
	snap := StateSnapshot{SessionID: "s1"}

	runEffect(&effectEnv{}, CmdPublishStateSnapshot{Reply: reply, Snapshot: snap}, discardLogger(), func(Event) {})
	if got := <-reply; got.SessionID != "s1" {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	// Unbuffered with no reader: dropped, not blocked.
	runEffect(&effectEnv{}, CmdPublishStateSnapshot{Reply: make(chan StateSnapshot), Snapshot: snap}, discardLogger(), func(Event) {})
	runEffect(&effectEnv{}, CmdPublishStateSnapshot{Snapshot: snap}, discardLogger(), func(Event) {})
}

type bogusCommand struct{}

func (bogusCommand) commandMarker() {}
func (bogusCommand) String() string { return "bogus" }

func TestRunEffect_UnknownCommand(t *testing.T) {
	var got []Event
	runEffect(&effectEnv{}, bogusCommand{}, discardLogger(), func(ev Event) { got = append(got, ev) })
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	cf, ok := got[0].(CommandFailed)
	if !ok {
		t.Fatalf("expected CommandFailed, got %T", got[0])
	}
	var uc errUnknownCommand
	if !errors.As(cf.Err, &uc) {
		t.Fatalf("expected errUnknownCommand, got %v", cf.Err)
	}
}

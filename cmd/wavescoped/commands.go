package main

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command represents an external side effect to be executed by the daemon loop.
type Command interface {
	commandMarker()
	String() string
}

// CmdLoadWaveform loads an envelope file off the daemon goroutine. Its single
// completion comes back as WaveformLoaded or WaveformLoadFailed.
type CmdLoadWaveform struct {
	Path string
}

func (CmdLoadWaveform) commandMarker() {}
func (c CmdLoadWaveform) String() string {
	return fmt.Sprintf("CmdLoadWaveform(path=%q)", c.Path)
}

// CmdPublishStateSnapshot delivers a reducer-built snapshot to a requester.
type CmdPublishStateSnapshot struct {
	Reply    chan<- StateSnapshot
	Snapshot StateSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (c CmdPublishStateSnapshot) String() string {
	return fmt.Sprintf("CmdPublishStateSnapshot(session_id=%q)", c.Snapshot.SessionID)
}

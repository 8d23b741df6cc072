package main

import (
	"time"

	"wavescope/internal/waveform"
)

// StateBroadcast is an externally visible state change emitted by the reducer.
// The websocket broadcaster is the only consumer; the reducer never talks to clients.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastViewportChanged reports the committed detail window, rounded to
// milliseconds. It is emitted only when the rounded values change.
type BroadcastViewportChanged struct {
	StartSecond float64
	EndSecond   float64
	Scale       float64
	Phase       string
	At          time.Time
}

func (BroadcastViewportChanged) broadcastMarker() {}

// BroadcastThumbChanged reports the overview highlight in sample-pixel indices.
type BroadcastThumbChanged struct {
	StartPixel int
	EndPixel   int
	At         time.Time
}

func (BroadcastThumbChanged) broadcastMarker() {}

// BroadcastWaveformLoaded reports a newly loaded (or reloaded) envelope.
type BroadcastWaveformLoaded struct {
	Path            string
	SessionID       string
	DurationSeconds float64
	SampleRate      int
	SamplesPerPixel int
	Length          int
	At              time.Time
}

func (BroadcastWaveformLoaded) broadcastMarker() {}

// BroadcastWaveformFailed reports a failed load.
type BroadcastWaveformFailed struct {
	Path  string
	Error string
	At    time.Time
}

func (BroadcastWaveformFailed) broadcastMarker() {}

// BroadcastFrame carries freshly rendered detail and thumb frames.
type BroadcastFrame struct {
	Detail waveform.Frame
	Thumb  waveform.Frame
	At     time.Time
}

func (BroadcastFrame) broadcastMarker() {}

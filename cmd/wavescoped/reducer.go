package main

import (
	"time"

	"wavescope/internal/waveform"
)

// This file implements the reducer:
//
//   - Events: gestures, layout, frame ticks, load completions, snapshot requests
//   - Commands: side effects requested by the reducer (file loads, snapshot replies)
//   - Broadcasts: externally visible state changes for websocket clients
//
// The reducer performs no I/O. It drives the core view objects held in
// DaemonState; those objects are owned by the daemon goroutine.

// ReducerConfig holds reducer policy knobs.
type ReducerConfig struct {
	// PublishFrames enables BroadcastFrame on ticks where the view changed.
	PublishFrames bool
}

// ReduceResult is the output of Reduce(): next state plus Commands to execute and
// Broadcasts to fan out.
type ReduceResult struct {
	State      *DaemonState
	Commands   []Command
	Broadcasts []StateBroadcast
}

// Reduce is the reducer:
//
// Rules:
// - Must not perform I/O
// - Must not block
// - Must not touch anything outside the state it is given
//
// The daemon loop must:
// - Execute returned Commands (effects)
// - Feed results back as Events
// - Forward Broadcasts to the websocket broadcaster
func Reduce(s *DaemonState, e Event, cfg ReducerConfig) ReduceResult {
	if s == nil {
		s = NewDaemonState(waveform.Options{}, LayoutState{
			DetailWidth:  defaultDetailWidth,
			DetailHeight: defaultDetailHeight,
			ThumbWidth:   defaultThumbWidth,
			ThumbHeight:  defaultThumbHeight,
		})
	}

	var cmds []Command
	var bcasts []StateBroadcast

	if te, ok := e.(TimedEvent); ok {
		s.advanceClock(te.At)
		e = te.Event
	}

	switch ev := e.(type) {
	case Tick:
		s.advanceClock(ev.Now)
		s.View.Step(ev.Now)

	case TouchDown:
		s.View.TouchDown()
	case TouchUp:
		s.View.TouchUpOrCancel()
	case Drag:
		s.View.DragBy(ev.DX, ev.DY)
	case PinchBegin:
		s.View.PinchBegin()
	case PinchUpdate:
		if ev.Factor > 0 {
			s.View.PinchUpdate(ev.Factor, ev.FocusX, ev.FocusY)
		}
	case PinchEnd:
		s.View.PinchEnd()
	case Fling:
		s.View.FlingStart(ev.X, ev.Y, ev.VelocityX, ev.VelocityY)
	case DoubleTap:
		s.View.DoubleTap(ev.X)

	case SetStartTime:
		s.View.SetStartTime(ev.Seconds)
	case SetScale:
		s.View.SetScale(ev.Scale)
	case ZoomTo:
		s.View.SetScaleAt(ev.Scale, ev.FocusX, ev.Animate)
	case Resize:
		s.SetLayout(ev)

	case ThumbDragBegin:
		s.Thumb.BeginDrag(ev.X, ev.Y)
	case ThumbDragBy:
		s.Thumb.DragBy(ev.DX)
	case ThumbDragEnd:
		s.Thumb.EndDrag()

	case LoadWaveform:
		s.SetLoading(ev.Path)
		cmds = append(cmds, CmdLoadWaveform{Path: ev.Path})

	case WaveformFileChanged:
		// Reload only the file on screen, and not while a load is in flight.
		if s.Waveform.Known && ev.Path == s.Waveform.LoadedPath && ev.Path == s.Waveform.Path && !s.Waveform.Loading {
			s.SetLoading(ev.Path)
			cmds = append(cmds, CmdLoadWaveform{Path: ev.Path})
		}

	case WaveformLoaded:
		if ev.Path != s.Waveform.Path || ev.Info == nil {
			// Superseded by a newer request.
			break
		}
		s.SetLoaded(ev)
		bcasts = append(bcasts, BroadcastWaveformLoaded{
			Path:            ev.Path,
			SessionID:       ev.SessionID,
			DurationSeconds: s.Waveform.DurationSeconds,
			SampleRate:      s.Waveform.SampleRate,
			SamplesPerPixel: s.Waveform.SamplesPerPixel,
			Length:          s.Waveform.Length,
			At:              ev.At,
		})

	case WaveformLoadFailed:
		if ev.Path != s.Waveform.Path {
			break
		}
		s.SetLoadFailed(ev.Err)
		bcasts = append(bcasts, BroadcastWaveformFailed{
			Path:  ev.Path,
			Error: s.Waveform.LastError,
			At:    ev.At,
		})

	case RequestStateSnapshot:
		cmds = append(cmds, CmdPublishStateSnapshot{
			Reply:    ev.Reply,
			Snapshot: s.Snapshot(),
		})

	case CommandFailed:
		// Load failures surface as WaveformLoadFailed; nothing else to track.
		_ = ev

	default:
		// Unknown event type: no-op.
	}

	bcasts = append(bcasts, viewBroadcasts(s, s.clock())...)

	if _, ok := e.(Tick); ok && cfg.PublishFrames && s.FrameDirty && s.View.State().Ready {
		s.FrameDirty = false
		bcasts = append(bcasts, BroadcastFrame{
			Detail: s.View.Draw(),
			Thumb:  s.Thumb.Draw(),
			At:     s.clock(),
		})
	}

	return ReduceResult{
		State:      s,
		Commands:   cmds,
		Broadcasts: bcasts,
	}
}

// viewBroadcasts consumes the viewport dirty flag and emits viewport/thumb
// broadcasts whose published (rounded) values changed.
func viewBroadcasts(s *DaemonState, now time.Time) []StateBroadcast {
	if !s.viewportDirty {
		return nil
	}
	s.viewportDirty = false
	s.FrameDirty = true

	var out []StateBroadcast

	vs := s.View.State()
	key := roundedViewport(vs)
	if !s.Published.ViewportKnown || key != s.Published.Viewport {
		s.Published.Viewport = key
		s.Published.ViewportKnown = true
		out = append(out, BroadcastViewportChanged{
			StartSecond: float64(key.StartMS) / 1000,
			EndSecond:   float64(key.EndMS) / 1000,
			Scale:       float64(key.ScaleMilli) / 1000,
			Phase:       vs.Phase,
			At:          now,
		})
	}

	start, end := s.Thumb.Highlight()
	if !s.Published.ThumbKnown || start != s.Published.ThumbStart || end != s.Published.ThumbEnd {
		s.Published.ThumbStart = start
		s.Published.ThumbEnd = end
		s.Published.ThumbKnown = true
		out = append(out, BroadcastThumbChanged{StartPixel: start, EndPixel: end, At: now})
	}

	return out
}

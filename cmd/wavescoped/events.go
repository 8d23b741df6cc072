package main

import (
	"encoding/json"
	"fmt"
	"time"

	"wavescope/internal/waveform"
)

// ============================================================================
// Events - reducer inputs
// ============================================================================
// Gesture events arrive from the touch translator, the IPC socket and the
// control client. Internal events (ticks, load completions, snapshot requests)
// are produced by the daemon itself and never cross the wire.
// ============================================================================

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// TimedEvent stamps a payload event with its arrival time.
// Payload types stay free of timestamps so they serialize cleanly.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// Tick is emitted by the daemon loop at a fixed cadence.
// Dt is wall-clock delta in seconds between ticks.
type Tick struct {
	Now time.Time
	Dt  float64
}

func (Tick) eventMarker() {}

// ----------------------------------------------------------------------------
// Gestures (detail view)
// ----------------------------------------------------------------------------

// TouchDown is the first finger landing. It stops a running fling or zoom.
type TouchDown struct{}

func (TouchDown) eventMarker() {}

// TouchUp is the last finger lifting, or a cancelled touch sequence.
type TouchUp struct{}

func (TouchUp) eventMarker() {}

// Drag pans the detail view by a finger delta in screen pixels.
type Drag struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy,omitempty"`
}

func (Drag) eventMarker() {}

type PinchBegin struct{}

func (PinchBegin) eventMarker() {}

// PinchUpdate carries the incremental scale factor since the previous update.
type PinchUpdate struct {
	Factor float64 `json:"factor"`
	FocusX float64 `json:"focus_x"`
	FocusY float64 `json:"focus_y,omitempty"`
}

func (PinchUpdate) eventMarker() {}

type PinchEnd struct{}

func (PinchEnd) eventMarker() {}

// Fling starts a deceleration. VelocityX is in scroll direction (px/s):
// positive moves toward later times.
type Fling struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y,omitempty"`
	VelocityX float64 `json:"velocity_x"`
	VelocityY float64 `json:"velocity_y,omitempty"`
}

func (Fling) eventMarker() {}

type DoubleTap struct {
	X float64 `json:"x"`
}

func (DoubleTap) eventMarker() {}

// ----------------------------------------------------------------------------
// Programmatic view control
// ----------------------------------------------------------------------------

// SetStartTime moves the visible window to start at Seconds (clamped).
type SetStartTime struct {
	Seconds float64 `json:"seconds"`
}

func (SetStartTime) eventMarker() {}

// SetScale applies a scale without a focal point.
type SetScale struct {
	Scale float64 `json:"scale"`
}

func (SetScale) eventMarker() {}

// ZoomTo changes the scale keeping the time under FocusX fixed.
type ZoomTo struct {
	Scale   float64 `json:"scale"`
	FocusX  float64 `json:"focus_x"`
	Animate bool    `json:"animate,omitempty"`
}

func (ZoomTo) eventMarker() {}

// Resize lays out the detail and thumb surfaces. Zero sizes keep the current value.
type Resize struct {
	DetailWidth  int `json:"detail_width,omitempty"`
	DetailHeight int `json:"detail_height,omitempty"`
	ThumbWidth   int `json:"thumb_width,omitempty"`
	ThumbHeight  int `json:"thumb_height,omitempty"`
}

func (Resize) eventMarker() {}

// ----------------------------------------------------------------------------
// Thumb (overview) drag
// ----------------------------------------------------------------------------

// ThumbDragBegin starts a thumb drag if (X, Y) hits the highlight rect.
type ThumbDragBegin struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (ThumbDragBegin) eventMarker() {}

type ThumbDragBy struct {
	DX float64 `json:"dx"`
}

func (ThumbDragBy) eventMarker() {}

type ThumbDragEnd struct{}

func (ThumbDragEnd) eventMarker() {}

// ----------------------------------------------------------------------------
// Waveform lifecycle
// ----------------------------------------------------------------------------

// LoadWaveform requests loading an envelope file off the daemon goroutine.
type LoadWaveform struct {
	Path string `json:"path"`
}

func (LoadWaveform) eventMarker() {}

// WaveformLoaded is the single completion of a successful CmdLoadWaveform.
type WaveformLoaded struct {
	Path      string
	SessionID string
	Info      *waveform.Info
	Elapsed   time.Duration
	At        time.Time
}

func (WaveformLoaded) eventMarker() {}

// WaveformLoadFailed is the single completion of a failed CmdLoadWaveform.
type WaveformLoadFailed struct {
	Path string
	Err  error
	At   time.Time
}

func (WaveformLoadFailed) eventMarker() {}

// WaveformFileChanged is emitted by the file watcher after the envelope file on
// disk settles.
type WaveformFileChanged struct {
	Path string
}

func (WaveformFileChanged) eventMarker() {}

// ----------------------------------------------------------------------------
// Daemon internal
// ----------------------------------------------------------------------------

// RequestStateSnapshot asks the reducer for a coherent snapshot delivered on Reply.
type RequestStateSnapshot struct {
	Reply chan<- StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// CommandFailed is emitted when executing a Command fails.
type CommandFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (CommandFailed) eventMarker() {}

// ============================================================================
// JSON envelope
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON envelope into the appropriate Event type
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "touch_down":
		return TouchDown{}, nil
	case "touch_up":
		return TouchUp{}, nil

	case "drag":
		return unmarshalData[Drag](env)

	case "pinch_begin":
		return PinchBegin{}, nil
	case "pinch_update":
		e, err := decodeData[PinchUpdate](env)
		if err != nil {
			return nil, err
		}
		if e.Factor <= 0 {
			return nil, fmt.Errorf("pinch_update: factor must be > 0, got %v", e.Factor)
		}
		return e, nil
	case "pinch_end":
		return PinchEnd{}, nil

	case "fling":
		return unmarshalData[Fling](env)
	case "double_tap":
		return unmarshalData[DoubleTap](env)

	case "set_start_time":
		return unmarshalData[SetStartTime](env)
	case "set_scale":
		return unmarshalData[SetScale](env)
	case "zoom":
		return unmarshalData[ZoomTo](env)
	case "layout":
		return unmarshalData[Resize](env)

	case "thumb_drag_begin":
		return unmarshalData[ThumbDragBegin](env)
	case "thumb_drag":
		return unmarshalData[ThumbDragBy](env)
	case "thumb_drag_end":
		return ThumbDragEnd{}, nil

	case "load_waveform":
		e, err := decodeData[LoadWaveform](env)
		if err != nil {
			return nil, err
		}
		if e.Path == "" {
			return nil, fmt.Errorf("load_waveform: path must not be empty")
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// unmarshalData decodes env.Data into T and returns it as an Event.
func unmarshalData[T Event](env EventEnvelope) (Event, error) {
	e, err := decodeData[T](env)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func decodeData[T Event](env EventEnvelope) (T, error) {
	var e T
	if len(env.Data) == 0 {
		return e, fmt.Errorf("unmarshal %s: missing data", env.Type)
	}
	if err := json.Unmarshal(env.Data, &e); err != nil {
		return e, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	return e, nil
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope

	var payload any
	switch e := e.(type) {
	case TouchDown:
		env.Type = "touch_down"
	case TouchUp:
		env.Type = "touch_up"
	case Drag:
		env.Type, payload = "drag", e
	case PinchBegin:
		env.Type = "pinch_begin"
	case PinchUpdate:
		env.Type, payload = "pinch_update", e
	case PinchEnd:
		env.Type = "pinch_end"
	case Fling:
		env.Type, payload = "fling", e
	case DoubleTap:
		env.Type, payload = "double_tap", e
	case SetStartTime:
		env.Type, payload = "set_start_time", e
	case SetScale:
		env.Type, payload = "set_scale", e
	case ZoomTo:
		env.Type, payload = "zoom", e
	case Resize:
		env.Type, payload = "layout", e
	case ThumbDragBegin:
		env.Type, payload = "thumb_drag_begin", e
	case ThumbDragBy:
		env.Type, payload = "thumb_drag", e
	case ThumbDragEnd:
		env.Type = "thumb_drag_end"
	case LoadWaveform:
		env.Type, payload = "load_waveform", e
	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", env.Type, err)
		}
		env.Data = data
	}

	return json.Marshal(env)
}

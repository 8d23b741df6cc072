package main

import (
	"math"
	"time"
)

// ============================================================================
// Touch translation - evdev multi-touch (protocol B) to gesture events
// ============================================================================
// Slot updates are accumulated until SYN_REPORT, then the frame is compared to
// the previous one:
//   - one finger moving beyond the touch slop   -> Drag
//   - two fingers                               -> PinchBegin / PinchUpdate / PinchEnd
//   - lift after a drag with enough velocity    -> Fling (scroll direction)
//   - two short taps close in time and space    -> DoubleTap
// Every sequence is bracketed by TouchDown and TouchUp.
// ============================================================================

// touchConfig tunes the translator.
type touchConfig struct {
	DoubleTapWindow  time.Duration
	DoubleTapSlop    float64
	TouchSlop        float64
	VelocityWindow   time.Duration
	MinFlingVelocity float64
	ScaleX, ScaleY   float64
}

func defaultTouchConfig() touchConfig {
	return touchConfig{
		DoubleTapWindow:  defaultDoubleTapMS * time.Millisecond,
		DoubleTapSlop:    defaultDoubleTapSlopPx,
		TouchSlop:        defaultTouchSlopPx,
		VelocityWindow:   defaultVelocityWindowMS * time.Millisecond,
		MinFlingVelocity: defaultMinFlingVelocity,
		ScaleX:           1,
		ScaleY:           1,
	}
}

// touchSlot is one contact as reported by the kernel.
type touchSlot struct {
	active bool
	x, y   float64
}

// touchTranslator is owned by the goroutine reading one device.
type touchTranslator struct {
	cfg   touchConfig
	slot  int
	slots [maxTouchSlots]touchSlot

	down     bool
	pinching bool
	moved    bool

	startX, startY float64
	lastX, lastY   float64
	pinchDist      float64

	velocity *velocityTracker

	lastTapAt time.Time
	lastTapX  float64
	lastTapY  float64
}

func newTouchTranslator(cfg touchConfig) *touchTranslator {
	if cfg.ScaleX <= 0 {
		cfg.ScaleX = 1
	}
	if cfg.ScaleY <= 0 {
		cfg.ScaleY = 1
	}
	return &touchTranslator{
		cfg:      cfg,
		velocity: newVelocityTracker(cfg.VelocityWindow),
	}
}

// Feed consumes one raw input event and returns the gesture events completed by it.
func (t *touchTranslator) Feed(ev inputEvent) []Event {
	switch ev.Type {
	case EV_ABS:
		t.handleAbs(ev)
	case EV_SYN:
		if ev.Code == SYN_REPORT {
			return t.frame(ev.time())
		}
	}
	return nil
}

func (t *touchTranslator) handleAbs(ev inputEvent) {
	switch ev.Code {
	case ABS_MT_SLOT:
		if ev.Value >= 0 && int(ev.Value) < maxTouchSlots {
			t.slot = int(ev.Value)
		}
	case ABS_MT_TRACKING_ID:
		t.slots[t.slot].active = ev.Value >= 0
	case ABS_MT_POSITION_X:
		t.slots[t.slot].x = float64(ev.Value) * t.cfg.ScaleX
	case ABS_MT_POSITION_Y:
		t.slots[t.slot].y = float64(ev.Value) * t.cfg.ScaleY
	}
}

func (t *touchTranslator) active() []touchSlot {
	var out []touchSlot
	for _, s := range t.slots {
		if s.active {
			out = append(out, s)
		}
	}
	return out
}

// frame turns the accumulated slot state into gesture events.
func (t *touchTranslator) frame(at time.Time) []Event {
	var out []Event
	points := t.active()

	switch {
	case len(points) == 0:
		if t.down {
			out = append(out, t.release(at)...)
		}

	case len(points) == 1:
		p := points[0]
		switch {
		case !t.down:
			t.down = true
			t.moved = false
			t.startX, t.startY = p.x, p.y
			t.lastX, t.lastY = p.x, p.y
			t.velocity.reset()
			t.velocity.add(at, p.x)
			out = append(out, TouchDown{})

		case t.pinching:
			// Second finger lifted: keep tracking the remaining one as a drag.
			t.pinching = false
			t.lastX, t.lastY = p.x, p.y
			t.velocity.reset()
			t.velocity.add(at, p.x)
			out = append(out, PinchEnd{})

		default:
			if !t.moved && math.Hypot(p.x-t.startX, p.y-t.startY) < t.cfg.TouchSlop {
				break
			}
			t.moved = true
			dx, dy := p.x-t.lastX, p.y-t.lastY
			if dx != 0 || dy != 0 {
				out = append(out, Drag{DX: dx, DY: dy})
			}
			t.lastX, t.lastY = p.x, p.y
			t.velocity.add(at, p.x)
		}

	default:
		a, b := points[0], points[1]
		dist := math.Hypot(a.x-b.x, a.y-b.y)
		midX, midY := (a.x+b.x)/2, (a.y+b.y)/2

		if !t.down {
			t.down = true
			out = append(out, TouchDown{})
		}
		t.moved = true

		switch {
		case !t.pinching:
			t.pinching = true
			t.pinchDist = dist
			out = append(out, PinchBegin{})
		case t.pinchDist > 0 && dist > 0 && dist != t.pinchDist:
			out = append(out, PinchUpdate{Factor: dist / t.pinchDist, FocusX: midX, FocusY: midY})
			t.pinchDist = dist
		}
	}

	return out
}

// release handles the last finger lifting.
func (t *touchTranslator) release(at time.Time) []Event {
	t.down = false

	if t.pinching {
		t.pinching = false
		return []Event{PinchEnd{}, TouchUp{}}
	}

	if !t.moved {
		out := []Event{TouchUp{}}
		if !t.lastTapAt.IsZero() &&
			at.Sub(t.lastTapAt) <= t.cfg.DoubleTapWindow &&
			math.Hypot(t.startX-t.lastTapX, t.startY-t.lastTapY) <= t.cfg.DoubleTapSlop {
			t.lastTapAt = time.Time{}
			return append(out, DoubleTap{X: t.startX})
		}
		t.lastTapAt = at
		t.lastTapX, t.lastTapY = t.startX, t.startY
		return out
	}

	t.lastTapAt = time.Time{}
	out := []Event{TouchUp{}}

	// Finger velocity is opposite to scroll direction.
	vx := t.velocity.velocity(at)
	if vx != 0 && math.Abs(vx) >= t.cfg.MinFlingVelocity {
		out = append(out, Fling{X: t.lastX, Y: t.lastY, VelocityX: -vx})
	}
	return out
}

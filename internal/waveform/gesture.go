package waveform

import (
	"log/slog"
	"time"
)

// Phase is the gesture controller's current activity.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseScaling
	PhaseFlinging
	PhaseAnimatingZoom
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseScaling:
		return "scaling"
	case PhaseFlinging:
		return "flinging"
	case PhaseAnimatingZoom:
		return "animating_zoom"
	default:
		return "unknown"
	}
}

// Controller turns gesture input into viewport mutations.
//
// Every method reports whether the viewport changed; the caller owns change
// notification. Flings and animated zooms make progress only through Step.
//
// Controller is not safe for concurrent use.
type Controller struct {
	vp     *Viewport
	phase  Phase
	logger *slog.Logger

	// Pinch latch. The first scale change after a begin folds the focal offset
	// into lastStartSecond; later updates are measured against it.
	lastStartSecond float64
	resetLatch      bool

	fling        *flingState
	zoom         *zoomState
	flingCfg     FlingConfig
	zoomDuration time.Duration
	now          func() time.Time
}

// NewController returns a controller driving vp.
func NewController(vp *Viewport, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		vp:           vp,
		logger:       opts.Logger,
		flingCfg:     opts.Fling,
		zoomDuration: opts.ZoomDuration,
		now:          opts.Now,
	}
}

func (c *Controller) Phase() Phase { return c.phase }

// Animating reports whether a fling or animated zoom is in progress.
func (c *Controller) Animating() bool {
	return c.fling != nil || c.zoom != nil
}

// Reset cancels animations and returns to idle. Used when content is replaced.
func (c *Controller) Reset() {
	c.cancelAnimations()
	c.phase = PhaseIdle
	c.resetLatch = false
}

// TouchDown stops any fling or animated zoom.
func (c *Controller) TouchDown() bool {
	return c.cancelAnimations()
}

// TouchUpOrCancel ends a drag. A pinch ends only through PinchEnd.
func (c *Controller) TouchUpOrCancel() {
	if c.phase == PhaseDragging {
		c.phase = PhaseIdle
	}
}

// DragBy pans by a finger movement of dx screen pixels. Dragging right moves
// toward earlier times. Ignored while a pinch is active.
func (c *Controller) DragBy(dx, dy float64) bool {
	if !c.vp.Ready() {
		c.logger.Debug("drag ignored: no content")
		return false
	}
	if c.phase == PhaseScaling {
		return false
	}

	changed := c.cancelAnimations()
	c.phase = PhaseDragging
	if dx == 0 {
		return changed
	}
	return c.vp.Pan(-c.vp.pixelsToSeconds(dx)) || changed
}

// PinchBegin latches the pinch reference for the following updates.
func (c *Controller) PinchBegin() bool {
	if !c.vp.Ready() {
		return false
	}
	changed := c.cancelAnimations()
	c.phase = PhaseScaling
	c.resetLatch = true
	return changed
}

// PinchUpdate multiplies the scale by factor around focusX.
func (c *Controller) PinchUpdate(factor, focusX, focusY float64) bool {
	if !c.vp.Ready() {
		return false
	}
	changed := false
	if c.phase != PhaseScaling {
		changed = c.PinchBegin()
	}
	return c.scaleTo(c.vp.scale*factor, focusX) || changed
}

// PinchEnd returns to idle and re-clamps the offset.
func (c *Controller) PinchEnd() bool {
	if c.phase == PhaseScaling {
		c.phase = PhaseIdle
	}
	if !c.vp.Ready() {
		return false
	}
	return c.vp.SetStartSecond(c.vp.startSecond)
}

// scaleTo is the shared focal pinch path used by pinch updates and animated zoom.
func (c *Controller) scaleTo(target, focusX float64) bool {
	candidate := c.vp.ClampScale(target)
	if candidate == c.vp.scale {
		return false
	}
	c.vp.scale = candidate

	ds := PixelsToSeconds(focusX-focusX*candidate, c.vp.sampleRate, c.vp.samplesPerPixel, candidate)
	if c.resetLatch {
		c.lastStartSecond = c.vp.startSecond + ds
		c.resetLatch = false
	}
	c.vp.startSecond = c.vp.ClampStart(c.lastStartSecond - ds)
	return true
}

// FlingStart begins a fling. velocityX is in scroll direction: positive moves
// toward later times.
func (c *Controller) FlingStart(x, y, velocityX, velocityY float64) bool {
	if !c.vp.Ready() {
		return false
	}
	changed := c.cancelAnimations()
	if velocityX == 0 {
		c.phase = PhaseIdle
		return changed
	}

	startX := float64(c.vp.secondsToPixels(c.vp.startSecond))
	maxX := float64(int(float64(c.vp.pixelLength)*c.vp.scale) - c.vp.width)
	c.fling = newFling(c.flingCfg, startX, velocityX, maxX, c.now())
	c.phase = PhaseFlinging
	c.logger.Debug("fling started", "x", startX, "velocity", velocityX, "max_x", maxX)
	return changed
}

// DoubleTap cycles the scale through medium, max and the native scale of 1,
// animated around x. Medium sits halfway between 1 and max.
func (c *Controller) DoubleTap(x float64) bool {
	if !c.vp.Ready() {
		return false
	}
	minScale := c.vp.ClampScale(1)
	maxScale := c.vp.maxScale
	medium := (minScale + maxScale) / 2

	var target float64
	switch s := c.vp.scale; {
	case s < medium:
		target = medium
	case s < maxScale:
		target = maxScale
	default:
		target = minScale
	}
	return c.SetScaleAt(target, x, true)
}

// SetScaleAt zooms to target keeping the time under focusX fixed. With animate
// set the change is spread over the zoom duration and applied by Step.
func (c *Controller) SetScaleAt(target, focusX float64, animate bool) bool {
	if !c.vp.Ready() {
		return false
	}
	changed := c.cancelAnimations()

	if animate {
		c.zoom = newZoom(c.vp.scale, target, focusX, c.now(), c.zoomDuration)
		c.phase = PhaseAnimatingZoom
		c.resetLatch = true
		c.logger.Debug("zoom started", "from", c.vp.scale, "to", target, "focus_x", focusX)
		return changed
	}

	candidate := c.vp.ClampScale(target)
	if candidate == c.vp.scale {
		return changed
	}
	focal := c.vp.startSecond + c.vp.pixelsToSeconds(focusX)
	c.vp.scale = candidate
	c.vp.startSecond = c.vp.ClampStart(focal - c.vp.pixelsToSeconds(focusX))
	return true
}

// SetScale applies a scale without a focal point.
func (c *Controller) SetScale(s float64) bool {
	return c.vp.SetScale(s)
}

// SetStartSecond moves the offset, cancelling a running fling.
func (c *Controller) SetStartSecond(s float64) bool {
	changed := false
	if c.fling != nil {
		changed = c.cancelAnimations()
	}
	return c.vp.SetStartSecond(s) || changed
}

// Step advances a running fling or animated zoom to now.
func (c *Controller) Step(now time.Time) bool {
	switch {
	case c.fling != nil:
		return c.stepFling(now)
	case c.zoom != nil:
		return c.stepZoom(now)
	}
	return false
}

func (c *Controller) stepFling(now time.Time) bool {
	f := c.fling
	x, done := f.step(now)
	if done {
		c.fling = nil
		if c.phase == PhaseFlinging {
			c.phase = PhaseIdle
		}
	}
	if f.token.Canceled() || !c.vp.Ready() {
		return false
	}
	return c.vp.SetStartSecond(c.vp.pixelsToSeconds(float64(int(x))))
}

func (c *Controller) stepZoom(now time.Time) bool {
	z := c.zoom
	if z.token.Canceled() || !c.vp.Ready() {
		c.zoom = nil
		return false
	}

	scale, done := z.scaleAt(now)
	changed := c.scaleTo(scale, z.focalX)
	if done {
		c.zoom = nil
		c.phase = PhaseIdle
		changed = c.vp.SetStartSecond(c.vp.startSecond) || changed
	}
	return changed
}

// cancelAnimations stops any fling or animated zoom. A canceled zoom is finalized
// in place with a re-clamp; the returned flag reports whether that moved the offset.
func (c *Controller) cancelAnimations() bool {
	changed := false
	if c.fling != nil {
		c.fling.token.Cancel()
		c.fling = nil
		c.logger.Debug("fling canceled")
	}
	if c.zoom != nil {
		c.zoom.token.Cancel()
		c.zoom = nil
		if c.vp.Ready() {
			changed = c.vp.SetStartSecond(c.vp.startSecond)
		}
		c.logger.Debug("zoom canceled")
	}
	if c.phase == PhaseFlinging || c.phase == PhaseAnimatingZoom {
		c.phase = PhaseIdle
	}
	return changed
}

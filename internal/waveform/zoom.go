package waveform

import (
	"math"
	"time"
)

// DefaultZoomDuration is the length of an animated zoom.
const DefaultZoomDuration = 200 * time.Millisecond

// accelerateDecelerate maps linear progress t in [0,1] onto a curve that starts and
// ends slowly.
func accelerateDecelerate(t float64) float64 {
	return math.Cos((t+1)*math.Pi)/2 + 0.5
}

// zoomState interpolates the scale from one value to another around a fixed focal x.
type zoomState struct {
	token    *Token
	from     float64
	to       float64
	focalX   float64
	began    time.Time
	duration time.Duration
}

func newZoom(from, to, focalX float64, began time.Time, duration time.Duration) *zoomState {
	if duration <= 0 {
		duration = DefaultZoomDuration
	}
	return &zoomState{
		token:    &Token{},
		from:     from,
		to:       to,
		focalX:   focalX,
		began:    began,
		duration: duration,
	}
}

// scaleAt returns the interpolated scale at now and whether the animation is complete.
func (z *zoomState) scaleAt(now time.Time) (scale float64, done bool) {
	t := float64(now.Sub(z.began)) / float64(z.duration)
	if t >= 1 {
		return z.to, true
	}
	if t < 0 {
		t = 0
	}
	return z.from + accelerateDecelerate(t)*(z.to-z.from), false
}

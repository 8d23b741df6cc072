package main

import "time"

// velocityTracker estimates finger velocity from recent positions.
// Only samples within the window count, so a finger that stops before lifting
// produces no fling.
type velocityTracker struct {
	window  time.Duration
	samples []velocitySample
}

// velocitySample records a single position report
type velocitySample struct {
	at time.Time
	x  float64
}

// newVelocityTracker creates a tracker with the given window
func newVelocityTracker(window time.Duration) *velocityTracker {
	return &velocityTracker{
		window:  window,
		samples: make([]velocitySample, 0, 16), // Pre-allocate small capacity
	}
}

func (v *velocityTracker) reset() {
	v.samples = v.samples[:0]
}

// add records x at time at and drops samples outside the window.
func (v *velocityTracker) add(at time.Time, x float64) {
	v.samples = append(v.samples, velocitySample{at: at, x: x})
	v.prune(at)
}

func (v *velocityTracker) prune(now time.Time) {
	cutoff := now.Add(-v.window)

	filtered := v.samples[:0] // reuse underlying array
	for _, s := range v.samples {
		if !s.at.Before(cutoff) {
			filtered = append(filtered, s)
		}
	}
	v.samples = filtered
}

// velocity returns px/s over the samples still inside the window at now.
// Fewer than two samples, or no elapsed time, yields 0.
func (v *velocityTracker) velocity(now time.Time) float64 {
	v.prune(now)
	if len(v.samples) < 2 {
		return 0
	}
	first := v.samples[0]
	last := v.samples[len(v.samples)-1]
	dt := last.at.Sub(first.at).Seconds()
	if dt <= 0 {
		return 0
	}
	return (last.x - first.x) / dt
}

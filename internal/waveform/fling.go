package waveform

import (
	"math"
	"time"
)

// FlingConfig tunes the fling simulation.
type FlingConfig struct {
	DecayTau    float64 // velocity decay time constant (s)
	MinVelocity float64 // px/s below which the fling stops
	MaxDt       float64 // max dt integrated per step (s). 0 disables clamping.
}

// DefaultFlingConfig returns the fling tuning used when none is configured.
func DefaultFlingConfig() FlingConfig {
	return FlingConfig{
		DecayTau:    0.325,
		MinVelocity: 20,
		MaxDt:       0.05,
	}
}

func (c FlingConfig) withDefaults() FlingConfig {
	d := DefaultFlingConfig()
	if c.DecayTau <= 0 {
		c.DecayTau = d.DecayTau
	}
	if c.MinVelocity <= 0 {
		c.MinVelocity = d.MinVelocity
	}
	if c.MaxDt < 0 {
		c.MaxDt = 0
	}
	return c
}

// Token cancels a running animation. Once canceled, a token stays canceled.
type Token struct {
	canceled bool
}

func (t *Token) Cancel() { t.canceled = true }

func (t *Token) Canceled() bool { return t.canceled }

// flingState integrates a decelerating scroll in screen-pixel space.
//
// x is the left edge of the view measured from the start of the waveform at the
// current scale. velocity is signed and in scroll direction: positive moves
// toward later times.
type flingState struct {
	token *Token
	cfg   FlingConfig

	x        float64
	velocity float64
	minX     float64
	maxX     float64
	last     time.Time
}

func newFling(cfg FlingConfig, startX, velocity, maxX float64, now time.Time) *flingState {
	if maxX < 0 {
		maxX = 0
	}
	return &flingState{
		token:    &Token{},
		cfg:      cfg,
		x:        startX,
		velocity: velocity,
		minX:     0,
		maxX:     maxX,
		last:     now,
	}
}

// step advances the simulation to now and reports the new position and whether
// the fling has finished.
func (f *flingState) step(now time.Time) (x float64, done bool) {
	if f.token.Canceled() {
		return f.x, true
	}

	dt := now.Sub(f.last).Seconds()
	if dt <= 0 {
		return f.x, false
	}
	f.last = now
	if f.cfg.MaxDt > 0 && dt > f.cfg.MaxDt {
		dt = f.cfg.MaxDt
	}

	// Exponential decay keeps the feel independent of the frame rate.
	f.velocity *= math.Exp(-dt / f.cfg.DecayTau)
	f.x += f.velocity * dt

	if f.x <= f.minX {
		f.x = f.minX
		f.velocity = 0
		return f.x, true
	}
	if f.x >= f.maxX {
		f.x = f.maxX
		f.velocity = 0
		return f.x, true
	}
	if math.Abs(f.velocity) < f.cfg.MinVelocity {
		f.velocity = 0
		return f.x, true
	}
	return f.x, false
}

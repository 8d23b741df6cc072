package main

import "time"

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_ABS = 0x03

	SYN_REPORT = 0

	BTN_TOUCH = 0x14a

	// Multi-touch protocol B
	ABS_MT_SLOT        = 0x2f
	ABS_MT_POSITION_X  = 0x35
	ABS_MT_POSITION_Y  = 0x36
	ABS_MT_TRACKING_ID = 0x39
)

// maxTouchSlots bounds the number of tracked contacts per device.
const maxTouchSlots = 10

// Frame clock and view defaults
const (
	defaultUpdateHz     = 60  // Frame clock frequency (Hz)
	defaultDetailWidth  = 800 // Detail view size in pixels until a layout event arrives
	defaultDetailHeight = 200
	defaultThumbWidth   = 800
	defaultThumbHeight  = 48
	defaultMaxScale     = 3.0
	defaultInitialScale = 1.0
)

// Touch translation defaults
const (
	defaultDoubleTapMS       = 300  // Max gap between two taps (ms)
	defaultDoubleTapSlopPx   = 30.0 // Max distance between two taps (px)
	defaultTouchSlopPx       = 8.0  // Movement below this is still a tap (px)
	defaultVelocityWindowMS  = 100  // Window for fling velocity estimation (ms)
	defaultMinFlingVelocity  = 50.0 // Slower lifts do not fling (px/s)
	defaultWatchDebounceMS   = 250  // Quiet period before reloading a changed waveform file
	defaultSnapshotTimeoutMS = 1000
)

// wsViewportCoalesceWindow is the maximum time window during which bursty viewport,
// thumb and frame updates are coalesced (latest-wins) before broadcasting to clients.
const wsViewportCoalesceWindow = 16 * time.Millisecond

package main

import (
	"math"
	"time"

	"wavescope/internal/waveform"
)

// DaemonState is the top-level, daemon-owned state container.
//
// The detail view, thumb and bridge are mutable core objects; only the daemon
// goroutine (through Reduce) may touch them. Other goroutines get StateSnapshot
// values or reducer-emitted broadcasts, never a *DaemonState.
type DaemonState struct {
	// Waveform tracks the requested and the currently loaded envelope.
	Waveform WaveformState

	// Layout is the last applied surface geometry.
	Layout LayoutState

	View   *waveform.DetailView
	Thumb  *waveform.Thumb
	Bridge *waveform.Bridge

	// Published is what clients last heard about, used to suppress duplicates.
	Published PublishedState

	// FrameDirty marks that the rendered frames are stale.
	FrameDirty bool

	// viewportDirty is set by the detail view listener and consumed by Reduce.
	viewportDirty bool

	// now is the reducer clock: the latest Tick or TimedEvent time.
	now time.Time
}

// WaveformState describes the envelope lifecycle.
type WaveformState struct {
	// Path is the most recently requested file. Completions for other paths are stale.
	Path    string
	Loading bool

	// Known is true once an envelope has been handed to the view.
	Known      bool
	LoadedPath string
	SessionID  string
	LoadedAt   time.Time

	DurationSeconds float64
	SampleRate      int
	SamplesPerPixel int
	Length          int

	LastError string
}

// LayoutState is the surface geometry in screen pixels.
type LayoutState struct {
	DetailWidth  int
	DetailHeight int
	ThumbWidth   int
	ThumbHeight  int
}

// PublishedState caches the last broadcast values.
type PublishedState struct {
	Viewport      viewportKey
	ViewportKnown bool

	ThumbStart int
	ThumbEnd   int
	ThumbKnown bool
}

// viewportKey is the viewport rounded the way it is published.
type viewportKey struct {
	StartMS    int64
	EndMS      int64
	ScaleMilli int64
}

func roundedViewport(vs waveform.ViewState) viewportKey {
	return viewportKey{
		StartMS:    int64(math.Round(vs.StartSecond * 1000)),
		EndMS:      int64(math.Round(vs.EndSecond * 1000)),
		ScaleMilli: int64(math.Round(vs.Scale * 1000)),
	}
}

// NewDaemonState builds the view objects, wires the bridge and applies layout.
func NewDaemonState(opts waveform.Options, layout LayoutState) *DaemonState {
	s := &DaemonState{Layout: layout}

	opts.Now = s.clock
	s.View = waveform.NewDetailView(opts)
	s.Thumb = waveform.NewThumb()
	s.Bridge = waveform.NewBridge(s.View, s.Thumb)
	s.View.AddListener(waveform.ViewportListenerFunc(func(startSecond, endSecond float64) {
		s.viewportDirty = true
	}))

	s.View.Layout(layout.DetailWidth, layout.DetailHeight)
	s.Thumb.Layout(layout.ThumbWidth, layout.ThumbHeight)
	return s
}

func (s *DaemonState) clock() time.Time {
	if s.now.IsZero() {
		return time.Now()
	}
	return s.now
}

// advanceClock moves the reducer clock forward. Stale times are ignored.
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) advanceClock(t time.Time) {
	if t.After(s.now) {
		s.now = t
	}
}

// SetLoading records a load request for path.
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetLoading(path string) {
	s.Waveform.Path = path
	s.Waveform.Loading = true
}

// SetLoaded records a completed load and hands info to the view.
// When the same file is reloaded the current window is kept (clamped to the new content).
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetLoaded(ev WaveformLoaded) {
	reload := s.Waveform.Known && s.Waveform.LoadedPath == ev.Path
	prev := s.View.State()

	s.Bridge.SetWave(ev.Info)
	if reload && prev.Ready {
		s.View.SetScale(prev.Scale)
		s.View.SetStartTime(prev.StartSecond)
	}

	s.Waveform.Loading = false
	s.Waveform.Known = true
	s.Waveform.LoadedPath = ev.Path
	s.Waveform.SessionID = ev.SessionID
	s.Waveform.LoadedAt = ev.At
	s.Waveform.DurationSeconds = ev.Info.Duration()
	s.Waveform.SampleRate = ev.Info.SampleRate()
	s.Waveform.SamplesPerPixel = ev.Info.SamplesPerPixel()
	s.Waveform.Length = ev.Info.Length()
	s.Waveform.LastError = ""
	s.FrameDirty = true
}

// SetLoadFailed records a failed load. The previous envelope stays on screen.
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetLoadFailed(err error) {
	s.Waveform.Loading = false
	if err != nil {
		s.Waveform.LastError = err.Error()
	}
}

// SetLayout applies non-zero sizes to the surfaces.
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetLayout(r Resize) {
	if r.DetailWidth > 0 {
		s.Layout.DetailWidth = r.DetailWidth
	}
	if r.DetailHeight > 0 {
		s.Layout.DetailHeight = r.DetailHeight
	}
	if r.ThumbWidth > 0 {
		s.Layout.ThumbWidth = r.ThumbWidth
	}
	if r.ThumbHeight > 0 {
		s.Layout.ThumbHeight = r.ThumbHeight
	}
	s.Thumb.Layout(s.Layout.ThumbWidth, s.Layout.ThumbHeight)
	s.View.Layout(s.Layout.DetailWidth, s.Layout.DetailHeight)
	s.FrameDirty = true
}

// StateSnapshot is a coherent, copyable view of DaemonState for other goroutines.
type StateSnapshot struct {
	SessionID string
	Path      string
	Loaded    bool
	Loading   bool
	LastError string

	DurationSeconds float64
	SampleRate      int
	SamplesPerPixel int
	Length          int

	View            waveform.ViewState
	ThumbStartPixel int
	ThumbEndPixel   int

	At time.Time
}

// Snapshot copies the current state.
func (s *DaemonState) Snapshot() StateSnapshot {
	start, end := s.Thumb.Highlight()
	return StateSnapshot{
		SessionID:       s.Waveform.SessionID,
		Path:            s.Waveform.LoadedPath,
		Loaded:          s.Waveform.Known,
		Loading:         s.Waveform.Loading,
		LastError:       s.Waveform.LastError,
		DurationSeconds: s.Waveform.DurationSeconds,
		SampleRate:      s.Waveform.SampleRate,
		SamplesPerPixel: s.Waveform.SamplesPerPixel,
		Length:          s.Waveform.Length,
		View:            s.View.State(),
		ThumbStartPixel: start,
		ThumbEndPixel:   end,
		At:              s.clock(),
	}
}

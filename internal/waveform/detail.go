package waveform

import (
	"log/slog"
	"time"
)

// Surface is what a host needs from a drawable view.
type Surface interface {
	Layout(width, height int)
	Draw() Frame
}

// GestureHandler is the touch input contract of the detail view.
// Coordinates are surface pixels; velocities are pixels per second.
type GestureHandler interface {
	TouchDown()
	TouchUpOrCancel()
	DragBy(dx, dy float64)
	PinchBegin()
	PinchUpdate(factor, focusX, focusY float64)
	PinchEnd()
	FlingStart(x, y, velocityX, velocityY float64)
	DoubleTap(x float64)
}

// ViewportListener is notified after every committed viewport change with the
// visible window in seconds.
type ViewportListener interface {
	OnViewportChanged(startSecond, endSecond float64)
}

// ViewportListenerFunc adapts a function to ViewportListener.
type ViewportListenerFunc func(startSecond, endSecond float64)

func (f ViewportListenerFunc) OnViewportChanged(startSecond, endSecond float64) {
	f(startSecond, endSecond)
}

// Options configures a DetailView.
type Options struct {
	MaxScale     float64
	InitialScale float64
	ZoomDuration time.Duration
	Fling        FlingConfig
	Style        Style

	// Now is the clock used to timestamp animations. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxScale <= 0 {
		o.MaxScale = DefaultMaxScale
	}
	if o.InitialScale <= 0 {
		o.InitialScale = 1
	}
	if o.ZoomDuration <= 0 {
		o.ZoomDuration = DefaultZoomDuration
	}
	o.Fling = o.Fling.withDefaults()
	if o.Style == (Style{}) {
		o.Style = DefaultStyle()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// ViewState is a read-only snapshot of the detail view.
type ViewState struct {
	Ready        bool    `json:"ready"`
	StartSecond  float64 `json:"start_second"`
	EndSecond    float64 `json:"end_second"`
	TotalSeconds float64 `json:"total_seconds"`
	Scale        float64 `json:"scale"`
	MinScale     float64 `json:"min_scale"`
	MaxScale     float64 `json:"max_scale"`
	Phase        string  `json:"phase"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
}

// DetailView is the zoomable waveform: viewport, gesture controller and renderer
// behind the Surface and GestureHandler contracts.
type DetailView struct {
	info      *Info
	vp        *Viewport
	ctl       *Controller
	style     Style
	height    int
	listeners []ViewportListener
	logger    *slog.Logger
}

var (
	_ Surface        = (*DetailView)(nil)
	_ GestureHandler = (*DetailView)(nil)
	_ Surface        = (*Thumb)(nil)
)

func NewDetailView(opts Options) *DetailView {
	opts = opts.withDefaults()
	vp := NewViewport(opts.MaxScale, opts.InitialScale)
	return &DetailView{
		vp:     vp,
		ctl:    NewController(vp, opts),
		style:  opts.Style,
		logger: opts.Logger,
	}
}

// AddListener registers l for viewport change notifications.
func (d *DetailView) AddListener(l ViewportListener) {
	d.listeners = append(d.listeners, l)
}

func (d *DetailView) notify() {
	if !d.vp.Ready() {
		return
	}
	start, end := d.Window()
	for _, l := range d.listeners {
		l.OnViewportChanged(start, end)
	}
}

func (d *DetailView) notifyIf(changed bool) {
	if changed {
		d.notify()
	}
}

// SetWave installs new content, resetting scale and offset. Listeners are told
// about the initial window once the view has a width. A nil info is ignored.
func (d *DetailView) SetWave(info *Info) {
	if info == nil {
		return
	}
	d.ctl.Reset()
	if !d.vp.SetContent(info.Length(), info.SampleRate(), info.SamplesPerPixel()) {
		return
	}
	d.info = info
	d.logger.Debug("waveform installed",
		"length", info.Length(),
		"duration_sec", info.Duration(),
		"ready", d.vp.Ready())
	d.notify()
}

// Layout records the surface size and re-notifies the window on width changes.
func (d *DetailView) Layout(width, height int) {
	d.height = height
	if d.vp.Layout(width) {
		d.notify()
	}
}

func (d *DetailView) Draw() Frame {
	if !d.vp.Ready() {
		return Frame{Width: d.vp.Width(), Height: d.height}
	}
	return RenderDetail(d.info, d.vp.StartSecond(), d.vp.Scale(), d.vp.Width(), d.height, d.style)
}

func (d *DetailView) TouchDown()       { d.notifyIf(d.ctl.TouchDown()) }
func (d *DetailView) TouchUpOrCancel() { d.ctl.TouchUpOrCancel() }
func (d *DetailView) DragBy(dx, dy float64) {
	d.notifyIf(d.ctl.DragBy(dx, dy))
}
func (d *DetailView) PinchBegin() { d.notifyIf(d.ctl.PinchBegin()) }
func (d *DetailView) PinchUpdate(factor, focusX, focusY float64) {
	d.notifyIf(d.ctl.PinchUpdate(factor, focusX, focusY))
}
func (d *DetailView) PinchEnd() { d.notifyIf(d.ctl.PinchEnd()) }
func (d *DetailView) FlingStart(x, y, velocityX, velocityY float64) {
	d.notifyIf(d.ctl.FlingStart(x, y, velocityX, velocityY))
}
func (d *DetailView) DoubleTap(x float64) { d.notifyIf(d.ctl.DoubleTap(x)) }

// Step advances animations to now. Returns true if the window moved.
func (d *DetailView) Step(now time.Time) bool {
	changed := d.ctl.Step(now)
	d.notifyIf(changed)
	return changed
}

func (d *DetailView) Animating() bool { return d.ctl.Animating() }

// SetStartTime moves the window to start at s (clamped).
func (d *DetailView) SetStartTime(s float64) {
	d.notifyIf(d.ctl.SetStartSecond(s))
}

func (d *DetailView) SetScale(s float64) {
	d.notifyIf(d.ctl.SetScale(s))
}

func (d *DetailView) SetScaleAt(s, focusX float64, animate bool) {
	d.notifyIf(d.ctl.SetScaleAt(s, focusX, animate))
}

// Window returns the visible time range in seconds.
func (d *DetailView) Window() (startSecond, endSecond float64) {
	return d.vp.StartSecond(), d.vp.EndSecond()
}

func (d *DetailView) Info() *Info { return d.info }

func (d *DetailView) State() ViewState {
	return ViewState{
		Ready:        d.vp.Ready(),
		StartSecond:  d.vp.StartSecond(),
		EndSecond:    d.vp.EndSecond(),
		TotalSeconds: d.vp.TotalSeconds(),
		Scale:        d.vp.Scale(),
		MinScale:     d.vp.MinScale(),
		MaxScale:     d.vp.MaxScale(),
		Phase:        d.ctl.Phase().String(),
		Width:        d.vp.Width(),
		Height:       d.height,
	}
}

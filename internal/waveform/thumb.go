package waveform

// Rect is an axis-aligned rectangle in surface pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Thumb is the overview of the whole waveform with the detail window highlighted.
// The highlight doubles as a drag handle.
type Thumb struct {
	info          *Info
	width, height int
	scale         float64
	totalSeconds  float64

	startSecond float64
	duration    float64
	startPixel  int
	endPixel    int
	rect        Rect

	dragging bool
	onDrag   func(startSecond float64)
}

func NewThumb() *Thumb {
	return &Thumb{}
}

// SetContent installs the envelope. A nil info is ignored.
func (t *Thumb) SetContent(info *Info) {
	if info == nil {
		return
	}
	t.info = info
	t.totalSeconds = info.Duration()
	t.startSecond, t.duration = 0, 0
	t.startPixel, t.endPixel = 0, 0
	t.dragging = false
	t.recomputeScale()
}

// Layout records the surface size.
func (t *Thumb) Layout(width, height int) {
	t.width, t.height = width, height
	t.recomputeScale()
}

func (t *Thumb) recomputeScale() {
	if t.info == nil || t.width <= 0 {
		return
	}
	t.scale = float64(t.width) / float64(t.info.Length())
	t.rect = Rect{
		Left:   float64(t.startPixel) * t.scale,
		Right:  float64(t.endPixel) * t.scale,
		Bottom: float64(t.height),
	}
}

// SetDragListener registers the callback receiving the new start time of a drag.
func (t *Thumb) SetDragListener(fn func(startSecond float64)) {
	t.onDrag = fn
}

// UpdateThumb moves the highlight to cover [startSecond, endSecond].
func (t *Thumb) UpdateThumb(startSecond, endSecond float64) {
	if t.info == nil {
		return
	}
	t.startSecond = startSecond
	t.duration = endSecond - startSecond

	sr, spp := t.info.SampleRate(), t.info.SamplesPerPixel()
	t.startPixel = clampInt(SecondsToPixels(startSecond, sr, spp, 1), 0, t.info.Length())
	t.endPixel = clampInt(SecondsToPixels(endSecond, sr, spp, 1), t.startPixel, t.info.Length())
	t.recomputeScale()
}

// BeginDrag starts a drag if (x, y) hits the highlight.
func (t *Thumb) BeginDrag(x, y float64) bool {
	t.dragging = t.info != nil && t.width > 0 && t.rect.Contains(x, y)
	return t.dragging
}

// DragBy moves the highlight by dx thumb pixels and reports the new start time
// to the drag listener. Ignored unless a drag is in progress.
func (t *Thumb) DragBy(dx float64) bool {
	if !t.dragging || t.info == nil || t.scale <= 0 {
		return false
	}

	t.startSecond += PixelsToSeconds(dx, t.info.SampleRate(), t.info.SamplesPerPixel(), t.scale)
	if t.startSecond+t.duration > t.totalSeconds {
		t.startSecond = t.totalSeconds - t.duration
	}
	if t.startSecond < 0 {
		t.startSecond = 0
	}

	if t.onDrag != nil {
		t.onDrag(t.startSecond)
	}
	return true
}

func (t *Thumb) EndDrag() {
	t.dragging = false
}

func (t *Thumb) Dragging() bool { return t.dragging }

// Highlight returns the highlighted sample-pixel range.
func (t *Thumb) Highlight() (startPixel, endPixel int) {
	return t.startPixel, t.endPixel
}

func (t *Thumb) HitRect() Rect { return t.rect }

func (t *Thumb) Draw() Frame {
	return RenderThumb(t.info, t.width, t.height, t.startPixel, t.endPixel)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package waveform

// Bridge keeps a DetailView and a Thumb in sync.
//
// Detail changes always reach the thumb highlight. Thumb drags set the detail
// start time; the resulting detail notification updates the thumb but never
// re-enters the drag path.
type Bridge struct {
	detail  *DetailView
	thumb   *Thumb
	syncing bool
}

func NewBridge(detail *DetailView, thumb *Thumb) *Bridge {
	b := &Bridge{detail: detail, thumb: thumb}
	detail.AddListener(ViewportListenerFunc(b.onViewportChanged))
	thumb.SetDragListener(b.onThumbDrag)
	return b
}

func (b *Bridge) Detail() *DetailView { return b.detail }
func (b *Bridge) Thumb() *Thumb       { return b.thumb }

// SetWave installs content in both views. The thumb goes first so the detail
// view's initial notification has somewhere to land.
func (b *Bridge) SetWave(info *Info) {
	if info == nil {
		return
	}
	b.thumb.SetContent(info)
	b.detail.SetWave(info)
}

func (b *Bridge) onViewportChanged(startSecond, endSecond float64) {
	b.thumb.UpdateThumb(startSecond, endSecond)
}

func (b *Bridge) onThumbDrag(startSecond float64) {
	if b.syncing {
		return
	}
	b.syncing = true
	defer func() { b.syncing = false }()
	b.detail.SetStartTime(startSecond)
}

package waveform

// DefaultMaxScale is the zoom ceiling used when none is configured.
const DefaultMaxScale = 3.0

// Viewport is the scale/offset transform of the detail view.
//
// Invariants (once Ready):
//   - MinScale() <= Scale() <= max(MaxScale(), MinScale())
//   - StartSecond() >= 0
//   - StartSecond() + VisibleSeconds() <= TotalSeconds(), unless the whole
//     waveform is narrower than the view, in which case StartSecond() == 0
//
// Viewport is not safe for concurrent use; a single goroutine owns it.
type Viewport struct {
	width int

	hasContent      bool
	pixelLength     int
	sampleRate      int
	samplesPerPixel int
	totalSeconds    float64

	startSecond  float64
	scale        float64
	minScale     float64
	maxScale     float64
	initialScale float64
	// pendingInitial is set when content arrived before a usable width.
	pendingInitial bool
}

// NewViewport returns an empty viewport. Non-positive values select the defaults
// (DefaultMaxScale and an initial scale of 1).
func NewViewport(maxScale, initialScale float64) *Viewport {
	if maxScale <= 0 {
		maxScale = DefaultMaxScale
	}
	if initialScale <= 0 {
		initialScale = 1
	}
	v := &Viewport{
		minScale:     1,
		maxScale:     maxScale,
		initialScale: initialScale,
	}
	v.scale = v.ClampScale(initialScale)
	return v
}

// SetContent installs envelope dimensions and resets the offset and scale.
// Invalid dimensions leave the viewport untouched and return false.
func (v *Viewport) SetContent(pixelLength, sampleRate, samplesPerPixel int) bool {
	if pixelLength <= 0 || sampleRate <= 0 || samplesPerPixel <= 0 {
		return false
	}

	v.hasContent = true
	v.pixelLength = pixelLength
	v.sampleRate = sampleRate
	v.samplesPerPixel = samplesPerPixel
	v.totalSeconds = DataPixelsToSeconds(pixelLength, sampleRate, samplesPerPixel)
	v.startSecond = 0

	v.pendingInitial = !v.Ready()
	v.recomputeMinScale()
	v.scale = v.ClampScale(v.initialScale)
	v.startSecond = v.ClampStart(v.startSecond)
	return true
}

// Layout records the view width. A width change recomputes the minimum scale and
// re-clamps scale and offset. The first layout after SetContent applies the
// initial scale. Returns true if the width changed.
func (v *Viewport) Layout(width int) bool {
	if width < 0 {
		width = 0
	}
	if width == v.width {
		return false
	}
	v.width = width
	if !v.Ready() {
		return true
	}

	v.recomputeMinScale()
	if v.pendingInitial {
		v.pendingInitial = false
		v.scale = v.ClampScale(v.initialScale)
	} else {
		v.scale = v.ClampScale(v.scale)
	}
	v.startSecond = v.ClampStart(v.startSecond)
	return true
}

func (v *Viewport) recomputeMinScale() {
	if !v.Ready() {
		return
	}
	v.minScale = float64(v.width) / float64(v.pixelLength)
}

// Ready reports whether content is present and the view has a positive width.
func (v *Viewport) Ready() bool {
	return v.hasContent && v.width > 0
}

// ClampScale bounds s to [MinScale, MaxScale]. When the fit-to-width minimum
// exceeds the configured maximum, the minimum wins.
func (v *Viewport) ClampScale(s float64) float64 {
	if s < v.minScale {
		return v.minScale
	}
	hi := v.maxScale
	if v.minScale > hi {
		hi = v.minScale
	}
	if s > hi {
		return hi
	}
	return s
}

// ClampStart applies the boundary rule at the current scale.
func (v *Viewport) ClampStart(s float64) float64 {
	visible := v.VisibleSeconds()
	if s+visible > v.totalSeconds {
		s = v.totalSeconds - visible
	}
	if s < 0 {
		s = 0
	}
	return s
}

// SetScale clamps and applies a new scale, then re-clamps the offset.
// Returns true if scale or offset changed.
func (v *Viewport) SetScale(s float64) bool {
	if !v.Ready() {
		return false
	}
	s = v.ClampScale(s)
	if s == v.scale {
		return false
	}
	v.scale = s
	v.startSecond = v.ClampStart(v.startSecond)
	return true
}

// Pan moves the offset by deltaSeconds and clamps it.
func (v *Viewport) Pan(deltaSeconds float64) bool {
	if !v.Ready() {
		return false
	}
	return v.SetStartSecond(v.startSecond + deltaSeconds)
}

// SetStartSecond moves the offset to s and clamps it.
func (v *Viewport) SetStartSecond(s float64) bool {
	if !v.Ready() {
		return false
	}
	s = v.ClampStart(s)
	if s == v.startSecond {
		return false
	}
	v.startSecond = s
	return true
}

// VisibleSeconds is the duration covered by the view width at the current scale.
func (v *Viewport) VisibleSeconds() float64 {
	if !v.hasContent || v.scale <= 0 {
		return 0
	}
	return PixelsToSeconds(float64(v.width), v.sampleRate, v.samplesPerPixel, v.scale)
}

// StartSecond is the time at the left edge of the view.
func (v *Viewport) StartSecond() float64 { return v.startSecond }

// EndSecond is the time at the right edge of the view.
func (v *Viewport) EndSecond() float64 { return v.startSecond + v.VisibleSeconds() }

// TotalSeconds is the duration of the installed content.
func (v *Viewport) TotalSeconds() float64 { return v.totalSeconds }

// Scale is the current zoom factor; 1 draws one envelope column per pixel.
func (v *Viewport) Scale() float64 { return v.scale }

// MinScale is the fit-to-width scale, or 1 before the viewport is ready.
func (v *Viewport) MinScale() float64 { return v.minScale }

// MaxScale is the configured zoom ceiling.
func (v *Viewport) MaxScale() float64 { return v.maxScale }

// Width is the view width in pixels.
func (v *Viewport) Width() int { return v.width }

// PixelLength is the number of envelope columns in the content.
func (v *Viewport) PixelLength() int { return v.pixelLength }

// SampleRate is the content's audio sample rate in Hz.
func (v *Viewport) SampleRate() int { return v.sampleRate }

// SamplesPerPixel is the number of audio samples per envelope column.
func (v *Viewport) SamplesPerPixel() int { return v.samplesPerPixel }

// secondsToPixels and pixelsToSeconds use the viewport's content and scale.
func (v *Viewport) secondsToPixels(seconds float64) int {
	return SecondsToPixels(seconds, v.sampleRate, v.samplesPerPixel, v.scale)
}

func (v *Viewport) pixelsToSeconds(pixels float64) float64 {
	return PixelsToSeconds(pixels, v.sampleRate, v.samplesPerPixel, v.scale)
}

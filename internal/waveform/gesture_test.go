package waveform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

type recordingListener struct {
	calls [][2]float64
}

func (r *recordingListener) OnViewportChanged(start, end float64) {
	r.calls = append(r.calls, [2]float64{start, end})
}

// newTestDetail returns a laid out detail view over a 44100/1000 envelope.
func newTestDetail(t *testing.T, length, width int, opts Options) (*DetailView, *recordingListener) {
	t.Helper()
	d := NewDetailView(opts)
	rec := &recordingListener{}
	d.AddListener(rec)
	d.Layout(width, 100)
	d.SetWave(testInfo(t, length, 44100, 1000))
	require.True(t, d.State().Ready)
	return d, rec
}

func TestDragScenario(t *testing.T) {
	d, rec := newTestDetail(t, 2000, 500, Options{})

	st := d.State()
	assert.Equal(t, 1.0, st.Scale)
	assert.InDelta(t, 0.25, st.MinScale, 1e-12)
	require.Len(t, rec.calls, 1, "initial notification on SetWave")

	d.DragBy(-100, 0)
	start, end := d.Window()
	assert.InDelta(t, 100.0*1000/44100, start, 1e-9)
	assert.InDelta(t, 2.268, start, 0.001)
	assert.InDelta(t, start+500.0*1000/44100, end, 1e-9)
	require.Len(t, rec.calls, 2)
	assert.Equal(t, [2]float64{start, end}, rec.calls[1])
}

func TestDragRightAtStartIsNoop(t *testing.T) {
	d, rec := newTestDetail(t, 2000, 500, Options{})
	d.DragBy(100, 0)
	start, _ := d.Window()
	assert.Equal(t, 0.0, start)
	assert.Len(t, rec.calls, 1, "no notification without a change")
}

func TestGesturesWithoutContentAreIgnored(t *testing.T) {
	d := NewDetailView(Options{})
	rec := &recordingListener{}
	d.AddListener(rec)
	d.Layout(500, 100)

	d.TouchDown()
	d.DragBy(-100, 0)
	d.PinchBegin()
	d.PinchUpdate(2, 100, 0)
	d.PinchEnd()
	d.FlingStart(0, 0, 1000, 0)
	d.DoubleTap(100)
	d.TouchUpOrCancel()

	assert.False(t, d.Animating())
	assert.Empty(t, rec.calls)
	assert.Equal(t, 0.0, d.State().StartSecond)
	assert.Empty(t, d.Draw().Segments)
}

func TestDragIgnoredWhilePinching(t *testing.T) {
	d, _ := newTestDetail(t, 2000, 500, Options{})
	d.SetStartTime(10)

	d.PinchBegin()
	d.DragBy(-100, 0)
	start, _ := d.Window()
	assert.Equal(t, 10.0, start)
	assert.Equal(t, PhaseScaling.String(), d.State().Phase)

	d.PinchEnd()
	d.DragBy(-100, 0)
	start, _ = d.Window()
	assert.Greater(t, start, 10.0)
}

func TestPinchFirstUpdateKeepsStart(t *testing.T) {
	d, _ := newTestDetail(t, 2000, 500, Options{})
	d.SetStartTime(20)

	d.PinchBegin()
	d.PinchUpdate(1.2, 200, 0)
	start, _ := d.Window()
	assert.Equal(t, 1.2, d.State().Scale)
	assert.InDelta(t, 20.0, start, 1e-9)
}

func TestPinchPreservesFocalTimeAfterLatch(t *testing.T) {
	d, _ := newTestDetail(t, 2000, 500, Options{})
	d.SetStartTime(20)
	const focusX = 200.0

	focalTime := func() float64 {
		st := d.State()
		return st.StartSecond + PixelsToSeconds(focusX, 44100, 1000, st.Scale)
	}

	d.PinchBegin()
	d.PinchUpdate(1.2, focusX, 0)
	want := focalTime()

	for _, factor := range []float64{1.1, 1.05, 0.9, 1.15} {
		d.PinchUpdate(factor, focusX, 0)
		assert.InDelta(t, want, focalTime(), 1e-9, "factor %v", factor)
	}
	d.PinchEnd()
	assert.Equal(t, PhaseIdle.String(), d.State().Phase)
}

func TestPinchUpdateWithoutBeginLatches(t *testing.T) {
	d, _ := newTestDetail(t, 2000, 500, Options{})
	d.SetStartTime(20)
	d.PinchUpdate(1.5, 100, 0)
	start, _ := d.Window()
	assert.InDelta(t, 20.0, start, 1e-9)
	assert.Equal(t, 1.5, d.State().Scale)
}

func TestPinchClampsScale(t *testing.T) {
	d, rec := newTestDetail(t, 2000, 500, Options{})
	d.PinchBegin()
	d.PinchUpdate(10, 0, 0)
	assert.Equal(t, 3.0, d.State().Scale)
	n := len(rec.calls)
	d.PinchUpdate(2, 0, 0)
	assert.Len(t, rec.calls, n, "no change at max scale")
}

func TestSetScaleAtKeepsFocalTime(t *testing.T) {
	d, _ := newTestDetail(t, 2000, 500, Options{})
	d.SetStartTime(20)
	const focusX = 250.0

	before := 20 + PixelsToSeconds(focusX, 44100, 1000, 1)
	d.SetScaleAt(2, focusX, false)
	st := d.State()
	assert.Equal(t, 2.0, st.Scale)
	assert.InDelta(t, before, st.StartSecond+PixelsToSeconds(focusX, 44100, 1000, 2), 1e-9)
}

func TestDoubleTapCycle(t *testing.T) {
	clock := newFakeClock()
	// Width equals the envelope length so the fit-to-width minimum is 1.
	d, _ := newTestDetail(t, 500, 500, Options{MaxScale: 3, Now: clock.Now})
	require.Equal(t, 1.0, d.State().MinScale)

	for _, want := range []float64{2, 3, 1} {
		d.DoubleTap(250)
		require.True(t, d.Animating())
		assert.Equal(t, PhaseAnimatingZoom.String(), d.State().Phase)

		d.Step(clock.Advance(100 * time.Millisecond))
		assert.True(t, d.Animating(), "still animating halfway")

		d.Step(clock.Advance(150 * time.Millisecond))
		assert.False(t, d.Animating())
		assert.Equal(t, want, d.State().Scale)
		assert.Equal(t, PhaseIdle.String(), d.State().Phase)
		assertWithinBounds(t, d.vp)
	}
}

func TestDoubleTapCycleUsesNativeScale(t *testing.T) {
	tests := []struct {
		name          string
		length, width int
		minScale      float64
		want          []float64
	}{
		// Fit-to-width minimum 0.25: the cycle still returns to 1.
		{"zoomed out minimum", 2000, 500, 0.25, []float64{2, 3, 1, 2}},
		// Content narrower than the view: 1 is lifted to the minimum of 2.
		{"minimum above one", 250, 500, 2, []float64{2.5, 3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			d, _ := newTestDetail(t, tt.length, tt.width, Options{MaxScale: 3, Now: clock.Now})
			require.InDelta(t, tt.minScale, d.State().MinScale, 1e-12)

			for _, want := range tt.want {
				d.DoubleTap(250)
				d.Step(clock.Advance(250 * time.Millisecond))
				require.False(t, d.Animating())
				assert.InDelta(t, want, d.State().Scale, 1e-12)
				assertWithinBounds(t, d.vp)
			}
		})
	}
}

func TestAnimatedZoomIsEased(t *testing.T) {
	clock := newFakeClock()
	d, _ := newTestDetail(t, 2000, 500, Options{Now: clock.Now})

	d.SetScaleAt(3, 0, true)
	d.Step(clock.Advance(50 * time.Millisecond))
	quarter := d.State().Scale
	d.Step(clock.Advance(50 * time.Millisecond))
	half := d.State().Scale

	// Accelerate-decelerate: the first quarter covers less than a quarter of the range.
	assert.Less(t, quarter-1, 0.25*2)
	assert.InDelta(t, 2.0, half, 1e-9)
}

func TestTouchDownCancelsZoom(t *testing.T) {
	clock := newFakeClock()
	d, _ := newTestDetail(t, 2000, 500, Options{Now: clock.Now})

	d.DoubleTap(100)
	d.Step(clock.Advance(100 * time.Millisecond))
	mid := d.State().Scale

	d.TouchDown()
	assert.False(t, d.Animating())
	assert.False(t, d.Step(clock.Advance(200*time.Millisecond)))
	assert.Equal(t, mid, d.State().Scale)
	assertWithinBounds(t, d.vp)
}

func TestFlingDeceleratesAndStops(t *testing.T) {
	clock := newFakeClock()
	d, rec := newTestDetail(t, 2000, 500, Options{Now: clock.Now})

	d.FlingStart(250, 50, 1000, 0)
	require.True(t, d.Animating())
	assert.Equal(t, PhaseFlinging.String(), d.State().Phase)

	var prev float64
	steps := 0
	for d.Animating() && steps < 1000 {
		d.Step(clock.Advance(16 * time.Millisecond))
		start, _ := d.Window()
		assert.GreaterOrEqual(t, start, prev)
		prev = start
		steps++
	}
	assert.False(t, d.Animating())
	assert.Greater(t, prev, 0.0)
	assert.Greater(t, len(rec.calls), 1)
	assertWithinBounds(t, d.vp)
}

func TestFlingStopsAtEnd(t *testing.T) {
	clock := newFakeClock()
	d, _ := newTestDetail(t, 2000, 500, Options{Now: clock.Now})

	d.FlingStart(250, 50, 100000, 0)
	for i := 0; d.Animating() && i < 1000; i++ {
		d.Step(clock.Advance(16 * time.Millisecond))
	}
	st := d.State()
	assert.InDelta(t, st.TotalSeconds-(st.EndSecond-st.StartSecond), st.StartSecond, 1e-9)
}

func TestFlingBackwardAtStartStopsImmediately(t *testing.T) {
	clock := newFakeClock()
	d, rec := newTestDetail(t, 2000, 500, Options{Now: clock.Now})

	d.FlingStart(250, 50, -5000, 0)
	d.Step(clock.Advance(16 * time.Millisecond))
	assert.False(t, d.Animating())
	start, _ := d.Window()
	assert.Equal(t, 0.0, start)
	assert.Len(t, rec.calls, 1)
}

func TestTouchDownCancelsFling(t *testing.T) {
	clock := newFakeClock()
	d, _ := newTestDetail(t, 2000, 500, Options{Now: clock.Now})

	d.FlingStart(250, 50, 3000, 0)
	d.Step(clock.Advance(16 * time.Millisecond))
	start, _ := d.Window()

	d.TouchDown()
	assert.False(t, d.Animating())
	assert.False(t, d.Step(clock.Advance(16*time.Millisecond)))
	after, _ := d.Window()
	assert.Equal(t, start, after)
}

func TestNewFlingReplacesRunningFling(t *testing.T) {
	clock := newFakeClock()
	d, _ := newTestDetail(t, 2000, 500, Options{Now: clock.Now})

	d.FlingStart(250, 50, 3000, 0)
	first := d.ctl.fling
	d.FlingStart(250, 50, 3000, 0)
	assert.True(t, first.token.Canceled())
	assert.NotSame(t, first, d.ctl.fling)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "dragging", PhaseDragging.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

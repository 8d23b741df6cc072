package waveform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundUpToMultiple(t *testing.T) {
	cases := []struct {
		value    float64
		multiple int
		want     int
	}{
		{5.5, 3, 6},
		{141, 10, 150},
		{-5.5, 3, -6},
		{140, 10, 140},
		{0, 5, 0},
		{0.1, 1, 1},
		{42, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoundUpToMultiple(tc.value, tc.multiple), "RoundUpToMultiple(%v, %d)", tc.value, tc.multiple)
	}
}

func TestRoundDownToMultiple(t *testing.T) {
	assert.Equal(t, 6, RoundDownToMultiple(7.9, 3))
	assert.Equal(t, 140, RoundDownToMultiple(149, 10))
	assert.Equal(t, -3, RoundDownToMultiple(-1, 3))
	assert.Equal(t, 0, RoundDownToMultiple(12, 0))
}

func TestSecondsPixelsRoundTripWithinOnePixel(t *testing.T) {
	const sr, spp = 44100, 1000
	for _, scale := range []float64{0.25, 1, 1.7, 3} {
		onePixel := PixelsToSeconds(1, sr, spp, scale)
		for s := 0.0; s < 60; s += 0.731 {
			px := SecondsToPixels(s, sr, spp, scale)
			back := PixelsToSeconds(float64(px), sr, spp, scale)
			assert.InDelta(t, s, back, onePixel, "scale=%v s=%v", scale, s)
		}
	}
}

func TestDataPixelsToSeconds(t *testing.T) {
	assert.InDelta(t, 2000.0*1000/44100, DataPixelsToSeconds(2000, 44100, 1000), 1e-12)
	assert.Equal(t, 1.0, DataPixelsToSeconds(100, 100, 1))
}

func TestSecondsToPixelsTruncates(t *testing.T) {
	// 1s at 44100/1000 is 44.1 columns.
	assert.Equal(t, 44, SecondsToPixels(1, 44100, 1000, 1))
	assert.Equal(t, 88, SecondsToPixels(1, 44100, 1000, 2))
	assert.Equal(t, 11, SecondsToPixels(1, 44100, 1000, 0.25))
}

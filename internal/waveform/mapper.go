package waveform

import "math"

// ============================================================================
// Coordinate mapping
// ============================================================================
// Three coordinate spaces are in play:
//   - sample-pixel index: one column of the pre-reduced envelope (samplesPerPixel raw samples)
//   - seconds: wall time into the audio
//   - screen pixels: device columns after applying the zoom scale
//
// Seconds are always float64. Conversions into pixels truncate toward zero.
// ============================================================================

// SecondsToPixels converts a time into screen pixels at the given scale.
func SecondsToPixels(seconds float64, sampleRate, samplesPerPixel int, scale float64) int {
	return int(seconds * float64(sampleRate) / float64(samplesPerPixel) * scale)
}

// PixelsToSeconds converts a screen pixel distance into seconds at the given scale.
func PixelsToSeconds(pixels float64, sampleRate, samplesPerPixel int, scale float64) float64 {
	return pixels * float64(samplesPerPixel) / (float64(sampleRate) * scale)
}

// DataPixelsToSeconds returns the duration covered by pixelLength envelope columns.
func DataPixelsToSeconds(pixelLength, sampleRate, samplesPerPixel int) float64 {
	return float64(pixelLength) * float64(samplesPerPixel) / float64(sampleRate)
}

// RoundDownToMultiple floors value to a multiple of multiple.
// A zero multiple yields 0.
func RoundDownToMultiple(value float64, multiple int) int {
	if multiple == 0 {
		return 0
	}
	return multiple * int(math.Floor(value/float64(multiple)))
}

// RoundUpToMultiple rounds the magnitude of value up to a multiple of multiple and
// reapplies the sign:
//
//	RoundUpToMultiple(5.5, 3)   == 6
//	RoundUpToMultiple(141, 10)  == 150
//	RoundUpToMultiple(-5.5, 3)  == -6
//
// A zero multiple yields 0.
func RoundUpToMultiple(value float64, multiple int) int {
	if multiple == 0 {
		return 0
	}

	sign := 1
	if value < 0 {
		sign = -1
		value = -value
	}
	up := int(math.Ceil(value))
	return sign * ((up + multiple - 1) / multiple) * multiple
}

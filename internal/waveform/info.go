package waveform

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is wrapped by every validation failure returned from NewInfo.
var ErrInvalidRecord = errors.New("invalid waveform record")

// Record is the external input contract for envelope data, as produced by
// audiowaveform-style generators (JSON or the binary .dat layout).
//
// Data holds interleaved (low, high) pairs, one pair per envelope column.
type Record struct {
	Version         int   `json:"version,omitempty"`
	Channels        int   `json:"channels,omitempty"`
	SampleRate      int   `json:"sample_rate"`
	SamplesPerPixel int   `json:"samples_per_pixel"`
	Bits            int   `json:"bits"`
	Length          int   `json:"length"`
	Data            []int `json:"data"`
}

// Info is a validated, immutable envelope buffer.
//
// It is safe to share a single Info between the detail and thumb renderers
// without synchronization; nothing mutates it after NewInfo returns.
type Info struct {
	sampleRate      int
	samplesPerPixel int
	bits            int
	length          int
	data            []int32
}

// NewInfo validates r and copies its envelope into an Info.
// A record that fails validation never produces a partially-valid Info.
func NewInfo(r Record) (*Info, error) {
	if r.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample_rate must be > 0, got %d", ErrInvalidRecord, r.SampleRate)
	}
	if r.SamplesPerPixel <= 0 {
		return nil, fmt.Errorf("%w: samples_per_pixel must be > 0, got %d", ErrInvalidRecord, r.SamplesPerPixel)
	}
	if r.Bits != 8 && r.Bits != 16 {
		return nil, fmt.Errorf("%w: bits must be 8 or 16, got %d", ErrInvalidRecord, r.Bits)
	}
	if r.Channels > 1 {
		return nil, fmt.Errorf("%w: only mono envelopes are supported, got %d channels", ErrInvalidRecord, r.Channels)
	}
	if r.Length <= 0 {
		return nil, fmt.Errorf("%w: length must be > 0, got %d", ErrInvalidRecord, r.Length)
	}
	if len(r.Data) != 2*r.Length {
		return nil, fmt.Errorf("%w: data has %d values, want 2*length = %d", ErrInvalidRecord, len(r.Data), 2*r.Length)
	}

	lo, hi := -32768, 32767
	if r.Bits == 8 {
		lo, hi = -128, 127
	}

	data := make([]int32, len(r.Data))
	for i, v := range r.Data {
		if v < lo || v > hi {
			return nil, fmt.Errorf("%w: data[%d] = %d out of range [%d, %d] for %d-bit", ErrInvalidRecord, i, v, lo, hi, r.Bits)
		}
		data[i] = int32(v)
	}

	return &Info{
		sampleRate:      r.SampleRate,
		samplesPerPixel: r.SamplesPerPixel,
		bits:            r.Bits,
		length:          r.Length,
		data:            data,
	}, nil
}

// SampleRate is the audio sample rate in Hz.
func (w *Info) SampleRate() int { return w.sampleRate }

// SamplesPerPixel is the number of audio samples summarised by one column.
func (w *Info) SamplesPerPixel() int { return w.samplesPerPixel }

// Bits is the stored sample width, 8 or 16.
func (w *Info) Bits() int { return w.bits }

// Length is the number of envelope columns (half the data length).
func (w *Info) Length() int { return w.length }

// Duration is the total time covered by the envelope, in seconds.
func (w *Info) Duration() float64 {
	return DataPixelsToSeconds(w.length, w.sampleRate, w.samplesPerPixel)
}

// Pair returns the (low, high) amplitudes of column i in the signed 16-bit range.
// 8-bit values are scaled by 256. i must be in [0, Length()).
func (w *Info) Pair(i int) (low, high int) {
	low = int(w.data[2*i])
	high = int(w.data[2*i+1])
	if w.bits == 8 {
		low *= 256
		high *= 256
	}
	return low, high
}

package waveform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecord returns a valid 16-bit record of length columns whose pairs are
// (-i, i) clipped to the 16-bit range.
func testRecord(length, sampleRate, samplesPerPixel int) Record {
	data := make([]int, 2*length)
	for i := 0; i < length; i++ {
		v := i % 32768
		data[2*i] = -v
		data[2*i+1] = v
	}
	return Record{
		SampleRate:      sampleRate,
		SamplesPerPixel: samplesPerPixel,
		Bits:            16,
		Length:          length,
		Data:            data,
	}
}

func testInfo(t *testing.T, length, sampleRate, samplesPerPixel int) *Info {
	t.Helper()
	info, err := NewInfo(testRecord(length, sampleRate, samplesPerPixel))
	require.NoError(t, err)
	return info
}

func TestNewInfoValid(t *testing.T) {
	info := testInfo(t, 2000, 44100, 1000)
	assert.Equal(t, 44100, info.SampleRate())
	assert.Equal(t, 1000, info.SamplesPerPixel())
	assert.Equal(t, 16, info.Bits())
	assert.Equal(t, 2000, info.Length())
	assert.InDelta(t, 45.351, info.Duration(), 0.001)

	low, high := info.Pair(10)
	assert.Equal(t, -10, low)
	assert.Equal(t, 10, high)
}

func TestNewInfoScales8Bit(t *testing.T) {
	info, err := NewInfo(Record{SampleRate: 8000, SamplesPerPixel: 256, Bits: 8, Length: 2, Data: []int{-128, 127, 0, 1}})
	require.NoError(t, err)

	low, high := info.Pair(0)
	assert.Equal(t, -32768, low)
	assert.Equal(t, 32512, high)
	low, high = info.Pair(1)
	assert.Equal(t, 0, low)
	assert.Equal(t, 256, high)
}

func TestNewInfoRejectsMalformed(t *testing.T) {
	valid := func() Record { return testRecord(4, 44100, 256) }

	cases := map[string]func(r *Record){
		"zero sample rate":   func(r *Record) { r.SampleRate = 0 },
		"negative spp":       func(r *Record) { r.SamplesPerPixel = -1 },
		"bits 24":            func(r *Record) { r.Bits = 24 },
		"stereo":             func(r *Record) { r.Channels = 2 },
		"zero length":        func(r *Record) { r.Length = 0; r.Data = nil },
		"short data":         func(r *Record) { r.Data = r.Data[:7] },
		"length mismatch":    func(r *Record) { r.Length = 5 },
		"16-bit overflow":    func(r *Record) { r.Data[3] = 40000 },
		"8-bit out of range": func(r *Record) { r.Bits = 8; r.Data[1] = 200 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := valid()
			mutate(&r)
			info, err := NewInfo(r)
			assert.Nil(t, info)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestNewInfoAcceptsMonoChannelField(t *testing.T) {
	r := testRecord(4, 44100, 256)
	r.Version = 2
	r.Channels = 1
	_, err := NewInfo(r)
	assert.NoError(t, err)
}

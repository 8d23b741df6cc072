package waveform

import (
	"math"
	"strconv"
)

// PaintStyle selects the paint a segment is drawn with.
type PaintStyle int

const (
	PaintWaveform PaintStyle = iota
	PaintHighlight
	PaintLabel
)

func (p PaintStyle) String() string {
	switch p {
	case PaintWaveform:
		return "waveform"
	case PaintHighlight:
		return "highlight"
	case PaintLabel:
		return "label"
	default:
		return "unknown"
	}
}

// Segment is one vertical line of the envelope at screen column X.
// Y0 is the low value, Y1 the high value; y grows downward.
type Segment struct {
	X           int        `json:"x"`
	Y0          int        `json:"y0"`
	Y1          int        `json:"y1"`
	Paint       PaintStyle `json:"paint"`
	StrokeWidth int        `json:"stroke"`
}

// Label is a time ruler mark: a tick from y=0 down to TickHeight at X, with Text
// centered under it.
type Label struct {
	X          int    `json:"x"`
	TickHeight int    `json:"tick_height"`
	Text       string `json:"text"`
	Second     int    `json:"second"`
}

// Frame is everything a surface needs to paint one view.
type Frame struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Segments []Segment `json:"segments"`
	Labels   []Label   `json:"labels,omitempty"`
}

// Style carries colors and ruler metrics. Colors are "#rrggbb" strings handed to
// the host as-is.
type Style struct {
	WaveformColor  string `yaml:"waveform_color" toml:"waveform_color" json:"waveform_color"`
	HighlightColor string `yaml:"highlight_color" toml:"highlight_color" json:"highlight_color"`
	LabelColor     string `yaml:"label_color" toml:"label_color" json:"label_color"`
	TextColor      string `yaml:"text_color" toml:"text_color" json:"text_color"`
	TextSize       int    `yaml:"text_size" toml:"text_size" json:"text_size"`
	LabelWidth     int    `yaml:"label_width" toml:"label_width" json:"label_width"`
	LabelHeight    int    `yaml:"label_height" toml:"label_height" json:"label_height"`
	LabelMinSpace  int    `yaml:"label_min_space" toml:"label_min_space" json:"label_min_space"`
}

// DefaultStyle returns black-on-default paints with a 24px ruler and labels at
// least 72px apart.
func DefaultStyle() Style {
	return Style{
		WaveformColor:  "#000000",
		HighlightColor: "#808080",
		LabelColor:     "#000000",
		TextColor:      "#000000",
		TextSize:       24,
		LabelWidth:     2,
		LabelHeight:    24,
		LabelMinSpace:  72,
	}
}

// strokeWidth is the segment thickness needed to leave no gaps at scale.
func strokeWidth(scale float64) int {
	w := int(math.Ceil(scale))
	if w < 0 {
		return 0
	}
	return w
}

// projectY maps a 16-bit signed amplitude onto [0, height], high values at the top.
func projectY(v, height int) int {
	return height - (v+32768)*height/65536
}

// renderEnvelope walks envelope columns from firstIndex, advancing the screen x by
// scale per column. At most one segment is emitted per integer x.
func renderEnvelope(info *Info, firstIndex int, scale float64, width, height int, paintFor func(index int) PaintStyle) []Segment {
	if info == nil || width <= 0 || height <= 0 || scale <= 0 {
		return nil
	}

	stroke := strokeWidth(scale)
	segments := make([]Segment, 0, width)

	index := firstIndex
	lastX := -1
	for axisX := 0.0; axisX < float64(width); axisX += scale {
		if index < 0 || index >= info.Length() {
			break
		}
		if x := int(axisX); x != lastX {
			lastX = x
			low, high := info.Pair(index)
			segments = append(segments, Segment{
				X:           x,
				Y0:          projectY(low, height),
				Y1:          projectY(high, height),
				Paint:       paintFor(index),
				StrokeWidth: stroke,
			})
		}
		index++
	}
	return segments
}

// RenderDetail draws the visible window of the detail view, including the time ruler.
func RenderDetail(info *Info, startSecond, scale float64, width, height int, style Style) Frame {
	frame := Frame{Width: width, Height: height}
	if info == nil {
		return frame
	}

	first := int(startSecond * float64(info.SampleRate()) / float64(info.SamplesPerPixel()))
	frame.Segments = renderEnvelope(info, first, scale, width, height, func(int) PaintStyle {
		return PaintWaveform
	})
	frame.Labels = timeLabels(info, startSecond, scale, width, style)
	return frame
}

// RenderThumb draws the whole waveform scaled to width, highlighting columns
// within [highlightStart, highlightEnd].
func RenderThumb(info *Info, width, height, highlightStart, highlightEnd int) Frame {
	frame := Frame{Width: width, Height: height}
	if info == nil || width <= 0 {
		return frame
	}

	scale := float64(width) / float64(info.Length())
	frame.Segments = renderEnvelope(info, 0, scale, width, height, func(index int) PaintStyle {
		if index >= highlightStart && index <= highlightEnd {
			return PaintHighlight
		}
		return PaintWaveform
	})
	return frame
}

// ============================================================================
// Time ruler
// ============================================================================

var secondSteps = [...]int{1, 2, 5, 10, 20, 30}

// maxLabelBase caps the unit escalation at hours.
const maxLabelBase = 3600

// labelInterval picks the smallest step (seconds, then minutes, then hours) whose
// on-screen spacing is at least minSpace pixels. Returns 0 when none qualifies.
func labelInterval(sampleRate, samplesPerPixel int, scale float64, minSpace int) int {
	if minSpace < 1 {
		minSpace = 1
	}
	for base := 1; base <= maxLabelBase; base *= 60 {
		for _, step := range secondSteps {
			s := base * step
			if SecondsToPixels(float64(s), sampleRate, samplesPerPixel, scale) >= minSpace {
				return s
			}
		}
	}
	return 0
}

func timeLabels(info *Info, startSecond, scale float64, width int, style Style) []Label {
	sr, spp := info.SampleRate(), info.SamplesPerPixel()
	interval := labelInterval(sr, spp, scale, style.LabelMinSpace)
	if interval == 0 || width <= 0 {
		return nil
	}

	first := RoundUpToMultiple(startSecond, interval)
	offset := SecondsToPixels(float64(first)-startSecond, sr, spp, scale)

	var labels []Label
	for second := first; ; second += interval {
		x := offset + SecondsToPixels(float64(second-first), sr, spp, scale)
		if x >= width {
			break
		}
		if second == 0 {
			continue
		}
		labels = append(labels, Label{
			X:          x,
			TickHeight: style.LabelHeight,
			Text:       strconv.Itoa(second) + "s",
			Second:     second,
		})
	}
	return labels
}

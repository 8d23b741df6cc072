package main

import (
	"github.com/charmbracelet/lipgloss"

	"wavescope/internal/waveform"
)

// Colors
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorFg      = lipgloss.Color("#F9FAFB")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	rulerStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(colorFg)
)

// termStyle is the renderer style sized for character cells: one column per
// pixel, labels at least ten columns apart.
func termStyle() waveform.Style {
	st := waveform.DefaultStyle()
	st.WaveformColor = "#10B981"
	st.HighlightColor = "#F59E0B"
	st.LabelColor = "#6B7280"
	st.TextColor = "#9CA3AF"
	st.TextSize = 1
	st.LabelWidth = 1
	st.LabelHeight = 1
	st.LabelMinSpace = 10
	return st
}

// paintStyles maps renderer paints onto terminal colors.
func paintStyles(st waveform.Style) map[waveform.PaintStyle]lipgloss.Style {
	return map[waveform.PaintStyle]lipgloss.Style{
		waveform.PaintWaveform:  lipgloss.NewStyle().Foreground(lipgloss.Color(st.WaveformColor)),
		waveform.PaintHighlight: lipgloss.NewStyle().Foreground(lipgloss.Color(st.HighlightColor)),
		waveform.PaintLabel:     lipgloss.NewStyle().Foreground(lipgloss.Color(st.LabelColor)),
	}
}

package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wavescope/internal/waveform"
)

// Each terminal cell holds two vertical pixels, drawn with half blocks.
const pixelsPerRow = 2

// Half-block glyphs indexed by fill mask: bit 0 = upper pixel, bit 1 = lower pixel.
var halfBlocks = [4]rune{' ', '▀', '▄', '█'}

type cell struct {
	mask  uint8
	paint waveform.PaintStyle
}

// canvas is a cols x rows grid of half-block cells.
type canvas struct {
	cols, rows int
	cells      []cell
}

func newCanvas(cols, rows int) *canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return &canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
}

// plot sets the pixel at (x, y). Highlight paint wins over waveform paint in
// a shared cell.
func (c *canvas) plot(x, y int, paint waveform.PaintStyle) {
	if x < 0 || x >= c.cols || y < 0 || y >= c.rows*pixelsPerRow {
		return
	}
	cl := &c.cells[(y/pixelsPerRow)*c.cols+x]
	cl.mask |= 1 << (y % pixelsPerRow)
	if cl.paint != waveform.PaintHighlight {
		cl.paint = paint
	}
}

// drawFrame rasterizes every segment of f.
func (c *canvas) drawFrame(f waveform.Frame) {
	for _, s := range f.Segments {
		top, bottom := s.Y1, s.Y0
		if top > bottom {
			top, bottom = bottom, top
		}
		w := max(1, s.StrokeWidth)
		for x := s.X; x < s.X+w; x++ {
			for y := top; y <= bottom; y++ {
				c.plot(x, y, s.Paint)
			}
		}
	}
}

func (c *canvas) glyph(col, row int) (rune, waveform.PaintStyle) {
	cl := c.cells[row*c.cols+col]
	return halfBlocks[cl.mask], cl.paint
}

// render returns the grid as styled lines. Runs of equal paint share one style
// call.
func (c *canvas) render(paints map[waveform.PaintStyle]lipgloss.Style) string {
	var sb strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}

		var run strings.Builder
		runPaint := waveform.PaintStyle(-1)
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if st, ok := paints[runPaint]; ok {
				sb.WriteString(st.Render(run.String()))
			} else {
				sb.WriteString(run.String())
			}
			run.Reset()
		}

		for col := 0; col < c.cols; col++ {
			r, paint := c.glyph(col, row)
			if paint != runPaint {
				flush()
				runPaint = paint
			}
			run.WriteRune(r)
		}
		flush()
	}
	return sb.String()
}

// ruler lays the frame's time labels out on one line of width cols. A label
// that would overlap the previous one is dropped.
func ruler(labels []waveform.Label, cols int) string {
	line := []rune(strings.Repeat(" ", max(cols, 0)))
	next := 0
	for _, l := range labels {
		text := []rune("╵" + l.Text)
		if l.X < next || l.X+len(text) > cols {
			continue
		}
		copy(line[l.X:], text)
		next = l.X + len(text) + 1
	}
	return string(line)
}

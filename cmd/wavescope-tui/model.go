package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wavescope/internal/loader"
	"wavescope/internal/waveform"
)

const (
	frameInterval    = 16 * time.Millisecond
	thumbRows        = 3
	chromeRows       = 3 // header, ruler, status bar
	zoomStep         = 1.25
	wheelZoomStep    = 1.1
	keyFlingVelocity = 1500.0 // px/s
	minFlingVelocity = 50.0   // px/s
	flingWindow      = 100 * time.Millisecond
)

// region is the screen area a mouse event landed in.
type region int

const (
	regionNone region = iota
	regionDetail
	regionThumb
)

// frameMsg drives animations while the detail view is zooming or flinging.
type frameMsg time.Time

// loadedMsg is the completion of loader.LoadAsync.
type loadedMsg loader.Result

// pointer tracks a held mouse button.
type pointer struct {
	target   region
	lastX    int
	lastAt   time.Time
	velocity float64 // finger velocity, px/s
}

type modelConfig struct {
	Path     string
	MaxScale float64
	Logger   *slog.Logger
	Now      func() time.Time
}

// model owns the detail view, the overview and the bridge keeping them in sync.
// All of them are touched from Update only.
type model struct {
	ctx    context.Context
	logger *slog.Logger
	now    func() time.Time

	path   string
	detail *waveform.DetailView
	thumb  *waveform.Thumb
	bridge *waveform.Bridge
	style  waveform.Style
	paints map[waveform.PaintStyle]lipgloss.Style

	width, height int
	detailRows    int

	loading bool
	info    *waveform.Info
	elapsed time.Duration
	err     error
	spinner spinner.Model

	clockRunning bool
	ptr          pointer
}

func newModel(ctx context.Context, cfg modelConfig) model {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	st := termStyle()
	detail := waveform.NewDetailView(waveform.Options{
		MaxScale: cfg.MaxScale,
		Style:    st,
		Now:      cfg.Now,
		Logger:   cfg.Logger,
	})
	thumb := waveform.NewThumb()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return model{
		ctx:     ctx,
		logger:  cfg.Logger,
		now:     cfg.Now,
		path:    cfg.Path,
		detail:  detail,
		thumb:   thumb,
		bridge:  waveform.NewBridge(detail, thumb),
		style:   st,
		paints:  paintStyles(st),
		loading: cfg.Path != "",
		spinner: sp,
	}
}

func (m model) Init() tea.Cmd {
	if m.path == "" {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.load())
}

// load starts an async load of m.path. Callers set m.loading.
func (m model) load() tea.Cmd {
	ch := loader.LoadAsync(m.ctx, m.path)
	m.logger.Info("loading waveform", "path", m.path)
	return func() tea.Msg {
		return loadedMsg(<-ch)
	}
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// ensureClock starts the frame clock if an animation is running and the clock
// is not.
func (m *model) ensureClock() tea.Cmd {
	if m.clockRunning || !m.detail.Animating() {
		return nil
	}
	m.clockRunning = true
	return frameTick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		cmd := m.ensureClock()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case frameMsg:
		m.clockRunning = false
		m.detail.Step(time.Time(msg))
		cmd := m.ensureClock()
		return m, cmd

	case loadedMsg:
		if msg.Path != m.path {
			return m, nil
		}
		m.loading = false
		m.elapsed = msg.Elapsed
		if msg.Err != nil {
			m.err = msg.Err
			m.logger.Error("waveform load failed", "path", msg.Path, "error", msg.Err)
			return m, nil
		}
		m.err = nil
		reload := m.info != nil
		prev := m.detail.State()
		m.info = msg.Info
		m.bridge.SetWave(msg.Info)
		if reload {
			// A reload keeps the window the user was looking at.
			m.detail.SetScale(prev.Scale)
			m.detail.SetStartTime(prev.StartSecond)
		}
		m.logger.Info("waveform loaded",
			"path", msg.Path,
			"duration_sec", msg.Info.Duration(),
			"elapsed", msg.Elapsed)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// layout sizes both views from the terminal size.
func (m *model) layout() {
	m.detailRows = max(1, m.height-chromeRows-thumbRows)
	m.detail.Layout(m.width, m.detailRows*pixelsPerRow)
	m.thumb.Layout(m.width, thumbRows*pixelsPerRow)
}

func (m model) center() float64 {
	return float64(m.width) / 2
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.detail.State()
	panStep := float64(max(1, m.width/8))

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit

	case "left", "h":
		m.pan(panStep)
	case "right", "l":
		m.pan(-panStep)

	case "shift+left", "H":
		m.detail.FlingStart(m.center(), 0, -keyFlingVelocity, 0)
	case "shift+right", "L":
		m.detail.FlingStart(m.center(), 0, keyFlingVelocity, 0)

	case "+", "=":
		m.detail.SetScaleAt(st.Scale*zoomStep, m.center(), true)
	case "-", "_":
		m.detail.SetScaleAt(st.Scale/zoomStep, m.center(), true)

	case " ", "space", "z":
		m.detail.DoubleTap(m.center())

	case "0":
		m.detail.SetScaleAt(st.MinScale, 0, true)
	case "1":
		m.detail.SetScaleAt(1, m.center(), true)

	case "home", "g":
		m.detail.TouchDown()
		m.detail.SetStartTime(0)
	case "end", "G":
		m.detail.TouchDown()
		m.detail.SetStartTime(st.TotalSeconds)

	case "r":
		if m.path == "" || m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.load())
	}

	cmd := m.ensureClock()
	return m, cmd
}

// pan is a one-step drag: content follows the finger by dx pixels.
func (m *model) pan(dx float64) {
	m.detail.TouchDown()
	m.detail.DragBy(dx, 0)
	m.detail.TouchUpOrCancel()
}

func (m model) regionAt(y int) region {
	top := chromeRows - 1
	switch {
	case y >= top && y < top+m.detailRows:
		return regionDetail
	case y >= top+m.detailRows && y < top+m.detailRows+thumbRows:
		return regionThumb
	default:
		return regionNone
	}
}

func (m *model) thumbPixelY(y int) float64 {
	top := chromeRows - 1 + m.detailRows
	return float64((y-top)*pixelsPerRow) + 0.5
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if m.regionAt(msg.Y) != regionDetail {
			return
		}
		factor := wheelZoomStep
		if msg.Button == tea.MouseButtonWheelDown {
			factor = 1 / wheelZoomStep
		}
		m.detail.SetScaleAt(m.detail.State().Scale*factor, float64(msg.X), false)
		return
	}

	now := m.now()
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		m.ptr = pointer{target: m.regionAt(msg.Y), lastX: msg.X, lastAt: now}
		switch m.ptr.target {
		case regionDetail:
			m.detail.TouchDown()
		case regionThumb:
			if !m.thumb.BeginDrag(float64(msg.X), m.thumbPixelY(msg.Y)) {
				m.ptr.target = regionNone
			}
		}

	case tea.MouseActionMotion:
		if m.ptr.target == regionNone {
			return
		}
		dx := float64(msg.X - m.ptr.lastX)
		if dt := now.Sub(m.ptr.lastAt).Seconds(); dt > 0 {
			m.ptr.velocity = dx / dt
		}
		m.ptr.lastX, m.ptr.lastAt = msg.X, now
		if dx == 0 {
			return
		}
		switch m.ptr.target {
		case regionDetail:
			m.detail.DragBy(dx, 0)
		case regionThumb:
			m.thumb.DragBy(dx)
		}

	case tea.MouseActionRelease:
		switch m.ptr.target {
		case regionDetail:
			m.detail.TouchUpOrCancel()
			recent := now.Sub(m.ptr.lastAt) <= flingWindow
			if recent && math.Abs(m.ptr.velocity) >= minFlingVelocity {
				// Scroll direction is opposite to finger motion.
				m.detail.FlingStart(float64(msg.X), 0, -m.ptr.velocity, 0)
			}
		case regionThumb:
			m.thumb.EndDrag()
		}
		m.ptr = pointer{}
	}
}

// ============================================================================
// View
// ============================================================================

func (m model) View() string {
	if m.width == 0 {
		return ""
	}

	var sections []string
	sections = append(sections, m.headerView())

	switch {
	case m.info == nil && m.loading:
		sections = append(sections, fmt.Sprintf("%s loading %s", m.spinner.View(), m.path))
	case m.info == nil && m.err != nil:
		sections = append(sections, errorStyle.Render("error: "+m.err.Error()))
	case m.info == nil:
		sections = append(sections, infoStyle.Render("no waveform loaded"))
	default:
		detail := m.detail.Draw()
		sections = append(sections,
			rulerStyle.Render(ruler(detail.Labels, m.width)),
			m.draw(detail, m.detailRows),
			m.draw(m.thumb.Draw(), thumbRows),
		)
	}

	sections = append(sections, m.statusView())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) draw(f waveform.Frame, rows int) string {
	c := newCanvas(m.width, rows)
	c.drawFrame(f)
	return c.render(m.paints)
}

func (m model) headerView() string {
	title := titleStyle.Render("wavescope")
	if m.path == "" {
		return title
	}
	name := filepath.Base(m.path)
	if m.info == nil {
		return title + " " + infoStyle.Render(name)
	}
	return title + " " + infoStyle.Render(fmt.Sprintf("%s  %s  %d Hz  %d spp  (loaded in %s)",
		name, formatSeconds(m.info.Duration()), m.info.SampleRate(), m.info.SamplesPerPixel(),
		m.elapsed.Round(time.Millisecond)))
}

func (m model) statusView() string {
	var parts []string
	if m.info != nil {
		st := m.detail.State()
		parts = append(parts,
			fmt.Sprintf("%s - %s", formatSeconds(st.StartSecond), formatSeconds(st.EndSecond)),
			fmt.Sprintf("x%.2f", st.Scale),
			st.Phase,
		)
	}
	if m.loading && m.info != nil {
		parts = append(parts, m.spinner.View()+" reloading")
	}
	if m.err != nil && m.info != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	}
	parts = append(parts, "h/l pan  H/L fling  +/- zoom  space step  0 fit  r reload  q quit")

	line := " " + strings.Join(parts, " | ")
	return statusBarStyle.Width(max(m.width, 0)).MaxWidth(max(m.width, 1)).Render(line)
}

// formatSeconds renders s as m:ss.mmm.
func formatSeconds(s float64) string {
	if s < 0 {
		s = 0
	}
	ms := int64(math.Round(s * 1000))
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"wavescope/internal/waveform"
)

// Config is the top-level configuration for the wavescope daemon.
//
// The file (YAML, or TOML when the extension is .toml) is the primary
// configuration surface; flags are small overrides on top of it.
type Config struct {
	// Waveform file to show on startup
	Waveform WaveformConfig `yaml:"waveform" toml:"waveform"`

	// Detail/thumb geometry, zoom limits and animation tuning
	View ViewConfig `yaml:"view" toml:"view"`

	// Touchscreen input
	Touch TouchConfig `yaml:"touch" toml:"touch"`

	// IPC configuration (gesture events from scripts and wavescope-ctl)
	IPC IPCConfig `yaml:"ipc" toml:"ipc"`

	// State websocket / HTTP server
	StateWS StateWSConfig `yaml:"state_ws" toml:"state_ws"`

	// Logging
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

type WaveformConfig struct {
	Path            string `yaml:"path" toml:"path"`
	Watch           bool   `yaml:"watch" toml:"watch"`
	WatchDebounceMS int    `yaml:"watch_debounce_ms,omitempty" toml:"watch_debounce_ms,omitempty"`
}

type ViewConfig struct {
	DetailWidth  int `yaml:"detail_width" toml:"detail_width"`
	DetailHeight int `yaml:"detail_height" toml:"detail_height"`
	ThumbWidth   int `yaml:"thumb_width" toml:"thumb_width"`
	ThumbHeight  int `yaml:"thumb_height" toml:"thumb_height"`

	MaxScale     float64 `yaml:"max_scale" toml:"max_scale"`
	InitialScale float64 `yaml:"initial_scale" toml:"initial_scale"`

	UpdateHz       int `yaml:"update_hz" toml:"update_hz"`
	ZoomDurationMS int `yaml:"zoom_duration_ms" toml:"zoom_duration_ms"`

	Fling FlingFileConfig `yaml:"fling" toml:"fling"`
	Style waveform.Style  `yaml:"style" toml:"style"`
}

// FlingFileConfig is the user-facing fling tuning.
type FlingFileConfig struct {
	DecayTauSec    float64 `yaml:"decay_tau_sec" toml:"decay_tau_sec"`
	MinVelocityPxS float64 `yaml:"min_velocity_px_per_sec" toml:"min_velocity_px_per_sec"`
	MaxDtSec       float64 `yaml:"max_dt_sec,omitempty" toml:"max_dt_sec,omitempty"`
}

type TouchConfig struct {
	Devices []string `yaml:"devices,omitempty" toml:"devices,omitempty"` // evdev multitouch devices; empty disables touch

	DoubleTapMS      int     `yaml:"double_tap_ms" toml:"double_tap_ms"`
	DoubleTapSlopPx  float64 `yaml:"double_tap_slop_px" toml:"double_tap_slop_px"`
	TouchSlopPx      float64 `yaml:"touch_slop_px" toml:"touch_slop_px"`
	VelocityWindowMS int     `yaml:"velocity_window_ms" toml:"velocity_window_ms"`
	MinFlingVelocity float64 `yaml:"min_fling_velocity_px_per_sec" toml:"min_fling_velocity_px_per_sec"`

	// Raw device coordinates are multiplied by these to get view pixels.
	ScaleX float64 `yaml:"scale_x" toml:"scale_x"`
	ScaleY float64 `yaml:"scale_y" toml:"scale_y"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path" toml:"socket_path"`
}

type StateWSConfig struct {
	Port          int    `yaml:"port" toml:"port"`
	Path          string `yaml:"path" toml:"path"`
	PublishFrames bool   `yaml:"publish_frames" toml:"publish_frames"`
	SendBuf       int    `yaml:"send_buf,omitempty" toml:"send_buf,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format,omitempty" toml:"format,omitempty"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	fling := waveform.DefaultFlingConfig()
	return Config{
		Waveform: WaveformConfig{
			WatchDebounceMS: defaultWatchDebounceMS,
		},
		View: ViewConfig{
			DetailWidth:    defaultDetailWidth,
			DetailHeight:   defaultDetailHeight,
			ThumbWidth:     defaultThumbWidth,
			ThumbHeight:    defaultThumbHeight,
			MaxScale:       defaultMaxScale,
			InitialScale:   defaultInitialScale,
			UpdateHz:       defaultUpdateHz,
			ZoomDurationMS: int(waveform.DefaultZoomDuration / time.Millisecond),
			Fling: FlingFileConfig{
				DecayTauSec:    fling.DecayTau,
				MinVelocityPxS: fling.MinVelocity,
				MaxDtSec:       fling.MaxDt,
			},
			Style: waveform.DefaultStyle(),
		},
		Touch: TouchConfig{
			DoubleTapMS:      defaultDoubleTapMS,
			DoubleTapSlopPx:  defaultDoubleTapSlopPx,
			TouchSlopPx:      defaultTouchSlopPx,
			VelocityWindowMS: defaultVelocityWindowMS,
			MinFlingVelocity: defaultMinFlingVelocity,
			ScaleX:           1.0,
			ScaleY:           1.0,
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/wavescope.sock",
		},
		StateWS: StateWSConfig{
			Port: 3002,
			Path: "/ws/state",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile reads and parses a config file on top of DefaultConfig.
//
// Notes:
//   - .toml files are decoded as TOML, anything else as YAML.
//   - Unknown fields are rejected (helps catch typos).
//   - Relative paths inside the config are not rewritten here.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.NewDecoder(bytes.NewReader(b)).Decode(&cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode config toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("decode config toml: unknown field %q", undecoded[0].String())
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
// Each pointer is only applied if non-nil (even if it holds a zero value).
type FlagOverrides struct {
	WaveformPath *string
	Watch        *bool

	TouchDevice *string

	UpdateHz     *int
	MaxScale     *float64
	DetailWidth  *int
	DetailHeight *int

	IPCSocketPath *string
	StatePort     *int
	PublishFrames *bool

	LogLevel  *string
	LogFormat *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.WaveformPath != nil {
		cfg.Waveform.Path = *o.WaveformPath
	}
	if o.Watch != nil {
		cfg.Waveform.Watch = *o.Watch
	}

	if o.TouchDevice != nil {
		if *o.TouchDevice == "" {
			cfg.Touch.Devices = nil
		} else {
			cfg.Touch.Devices = []string{*o.TouchDevice}
		}
	}

	if o.UpdateHz != nil {
		cfg.View.UpdateHz = *o.UpdateHz
	}
	if o.MaxScale != nil {
		cfg.View.MaxScale = *o.MaxScale
	}
	if o.DetailWidth != nil {
		cfg.View.DetailWidth = *o.DetailWidth
	}
	if o.DetailHeight != nil {
		cfg.View.DetailHeight = *o.DetailHeight
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.StatePort != nil {
		cfg.StateWS.Port = *o.StatePort
	}
	if o.PublishFrames != nil {
		cfg.StateWS.PublishFrames = *o.PublishFrames
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		cfg.Logging.Format = *o.LogFormat
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Waveform
	if c.Waveform.Watch && c.Waveform.Path == "" {
		return errors.New("waveform.watch requires waveform.path")
	}
	if c.Waveform.WatchDebounceMS < 0 {
		return errors.New("waveform.watch_debounce_ms must be >= 0")
	}

	// View
	if c.View.DetailWidth <= 0 || c.View.DetailHeight <= 0 {
		return errors.New("view.detail_width and view.detail_height must be > 0")
	}
	if c.View.ThumbWidth <= 0 || c.View.ThumbHeight <= 0 {
		return errors.New("view.thumb_width and view.thumb_height must be > 0")
	}
	if c.View.MaxScale <= 0 {
		return errors.New("view.max_scale must be > 0")
	}
	if c.View.InitialScale <= 0 {
		return errors.New("view.initial_scale must be > 0")
	}
	if c.View.UpdateHz <= 0 || c.View.UpdateHz > 1000 {
		return errors.New("view.update_hz must be between 1 and 1000")
	}
	if c.View.ZoomDurationMS < 0 {
		return errors.New("view.zoom_duration_ms must be >= 0")
	}
	if c.View.Fling.DecayTauSec < 0 || c.View.Fling.MinVelocityPxS < 0 || c.View.Fling.MaxDtSec < 0 {
		return errors.New("view.fling values must be >= 0")
	}

	// Touch
	for i, dev := range c.Touch.Devices {
		if dev == "" {
			return fmt.Errorf("touch.devices[%d] is empty", i)
		}
	}
	if c.Touch.DoubleTapMS < 0 {
		return errors.New("touch.double_tap_ms must be >= 0")
	}
	if c.Touch.DoubleTapSlopPx < 0 || c.Touch.TouchSlopPx < 0 {
		return errors.New("touch slop values must be >= 0")
	}
	if c.Touch.VelocityWindowMS <= 0 {
		return errors.New("touch.velocity_window_ms must be > 0")
	}
	if c.Touch.ScaleX <= 0 || c.Touch.ScaleY <= 0 {
		return errors.New("touch.scale_x and touch.scale_y must be > 0")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// State websocket
	if c.StateWS.Port <= 0 || c.StateWS.Port > 65535 {
		return errors.New("state_ws.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.StateWS.Path, "/") {
		return errors.New("state_ws.path must start with /")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := parseLogFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}

	return nil
}

// ToViewOptions converts the view section into core options.
func (c *Config) ToViewOptions(logger *slog.Logger) waveform.Options {
	return waveform.Options{
		MaxScale:     c.View.MaxScale,
		InitialScale: c.View.InitialScale,
		ZoomDuration: time.Duration(c.View.ZoomDurationMS) * time.Millisecond,
		Fling: waveform.FlingConfig{
			DecayTau:    c.View.Fling.DecayTauSec,
			MinVelocity: c.View.Fling.MinVelocityPxS,
			MaxDt:       c.View.Fling.MaxDtSec,
		},
		Style:  c.View.Style,
		Logger: logger,
	}
}

// ToLayout returns the initial surface geometry.
func (c *Config) ToLayout() LayoutState {
	return LayoutState{
		DetailWidth:  c.View.DetailWidth,
		DetailHeight: c.View.DetailHeight,
		ThumbWidth:   c.View.ThumbWidth,
		ThumbHeight:  c.View.ThumbHeight,
	}
}

// ToTouchConfig converts the touch section into translator settings.
func (c *Config) ToTouchConfig() touchConfig {
	return touchConfig{
		DoubleTapWindow:  time.Duration(c.Touch.DoubleTapMS) * time.Millisecond,
		DoubleTapSlop:    c.Touch.DoubleTapSlopPx,
		TouchSlop:        c.Touch.TouchSlopPx,
		VelocityWindow:   time.Duration(c.Touch.VelocityWindowMS) * time.Millisecond,
		MinFlingVelocity: c.Touch.MinFlingVelocity,
		ScaleX:           c.Touch.ScaleX,
		ScaleY:           c.Touch.ScaleY,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}

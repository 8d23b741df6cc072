package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := writeConfig(t, "wavescope.yaml", `
waveform:
  path: /srv/track.dat
  watch: true
view:
  detail_width: 1024
  max_scale: 4
  fling:
    decay_tau_sec: 0.5
    min_velocity_px_per_sec: 10
touch:
  devices: [/dev/input/event3]
  scale_x: 0.25
state_ws:
  port: 4000
  publish_frames: true
logging:
  level: debug
  format: json
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Waveform.Path != "/srv/track.dat" || !cfg.Waveform.Watch {
		t.Fatalf("unexpected waveform section %+v", cfg.Waveform)
	}
	if cfg.View.DetailWidth != 1024 || cfg.View.MaxScale != 4 || cfg.View.Fling.DecayTauSec != 0.5 {
		t.Fatalf("unexpected view section %+v", cfg.View)
	}
	// Unset fields keep their defaults.
	if cfg.View.DetailHeight != defaultDetailHeight || cfg.View.UpdateHz != defaultUpdateHz {
		t.Fatalf("expected defaults to survive, got %+v", cfg.View)
	}
	if len(cfg.Touch.Devices) != 1 || cfg.Touch.ScaleX != 0.25 || cfg.Touch.ScaleY != 1 {
		t.Fatalf("unexpected touch section %+v", cfg.Touch)
	}
	if cfg.StateWS.Port != 4000 || !cfg.StateWS.PublishFrames || cfg.StateWS.Path != "/ws/state" {
		t.Fatalf("unexpected state_ws section %+v", cfg.StateWS)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigFile_TOML(t *testing.T) {
	path := writeConfig(t, "wavescope.toml", `
[waveform]
path = "/srv/track.json.gz"

[view]
update_hz = 30
initial_scale = 2.0

[view.style]
waveform_color = "#ff0000"

[ipc]
socket_path = "/run/wavescope.sock"
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Waveform.Path != "/srv/track.json.gz" {
		t.Fatalf("unexpected path %q", cfg.Waveform.Path)
	}
	if cfg.View.UpdateHz != 30 || cfg.View.InitialScale != 2 {
		t.Fatalf("unexpected view section %+v", cfg.View)
	}
	if cfg.View.Style.WaveformColor != "#ff0000" {
		t.Fatalf("unexpected style %+v", cfg.View.Style)
	}
	if cfg.IPC.SocketPath != "/run/wavescope.sock" {
		t.Fatalf("unexpected socket %q", cfg.IPC.SocketPath)
	}
}

func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	yamlPath := writeConfig(t, "bad.yaml", "view:\n  detial_width: 10\n")
	if _, err := LoadConfigFile(yamlPath); err == nil {
		t.Fatalf("expected error for unknown yaml field")
	}

	tomlPath := writeConfig(t, "bad.toml", "[view]\ndetial_width = 10\n")
	_, err := LoadConfigFile(tomlPath)
	if err == nil || !strings.Contains(err.Error(), "detial_width") {
		t.Fatalf("expected unknown toml field error, got %v", err)
	}
}

func TestLoadConfigFile_RejectsTrailingDocument(t *testing.T) {
	path := writeConfig(t, "two.yaml", "ipc:\n  socket_path: /a\n---\nipc:\n  socket_path: /b\n")
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected error for trailing yaml document")
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadConfigFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Touch.Devices = []string{"/dev/input/event1", "/dev/input/event2"}

	path := "/tmp/x.dat"
	hz := 120
	frames := true
	level := "debug"
	ov := FlagOverrides{
		WaveformPath:  &path,
		UpdateHz:      &hz,
		PublishFrames: &frames,
		LogLevel:      &level,
	}
	ov.Apply(&cfg)

	if cfg.Waveform.Path != path || cfg.View.UpdateHz != 120 || !cfg.StateWS.PublishFrames || cfg.Logging.Level != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Nil overrides leave values alone.
	if len(cfg.Touch.Devices) != 2 || cfg.StateWS.Port != 3002 {
		t.Fatalf("unexpected change to untouched fields: %+v", cfg)
	}

	// An explicit empty device disables touch.
	empty := ""
	FlagOverrides{TouchDevice: &empty}.Apply(&cfg)
	if cfg.Touch.Devices != nil {
		t.Fatalf("expected touch devices cleared, got %v", cfg.Touch.Devices)
	}

	dev := "/dev/input/event9"
	FlagOverrides{TouchDevice: &dev}.Apply(&cfg)
	if len(cfg.Touch.Devices) != 1 || cfg.Touch.Devices[0] != dev {
		t.Fatalf("expected single device, got %v", cfg.Touch.Devices)
	}

	FlagOverrides{}.Apply(nil)
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"watch without path", func(c *Config) { c.Waveform.Watch = true }, "waveform.watch"},
		{"zero width", func(c *Config) { c.View.DetailWidth = 0 }, "view.detail_width"},
		{"zero thumb", func(c *Config) { c.View.ThumbHeight = 0 }, "view.thumb_width"},
		{"max scale", func(c *Config) { c.View.MaxScale = 0 }, "view.max_scale"},
		{"initial scale", func(c *Config) { c.View.InitialScale = -1 }, "view.initial_scale"},
		{"update hz", func(c *Config) { c.View.UpdateHz = 5000 }, "view.update_hz"},
		{"fling", func(c *Config) { c.View.Fling.DecayTauSec = -1 }, "view.fling"},
		{"empty device", func(c *Config) { c.Touch.Devices = []string{""} }, "touch.devices[0]"},
		{"velocity window", func(c *Config) { c.Touch.VelocityWindowMS = 0 }, "touch.velocity_window_ms"},
		{"touch scale", func(c *Config) { c.Touch.ScaleY = 0 }, "touch.scale_x"},
		{"socket", func(c *Config) { c.IPC.SocketPath = "" }, "ipc.socket_path"},
		{"port", func(c *Config) { c.StateWS.Port = 70000 }, "state_ws.port"},
		{"ws path", func(c *Config) { c.StateWS.Path = "ws" }, "state_ws.path"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestConfigConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.View.ZoomDurationMS = 350
	cfg.Touch.DoubleTapMS = 250

	opts := cfg.ToViewOptions(nil)
	if opts.MaxScale != defaultMaxScale || opts.ZoomDuration != 350*time.Millisecond {
		t.Fatalf("unexpected view options %+v", opts)
	}

	layout := cfg.ToLayout()
	if layout.DetailWidth != defaultDetailWidth || layout.ThumbHeight != defaultThumbHeight {
		t.Fatalf("unexpected layout %+v", layout)
	}

	tc := cfg.ToTouchConfig()
	if tc.DoubleTapWindow != 250*time.Millisecond || tc.VelocityWindow != defaultVelocityWindowMS*time.Millisecond {
		t.Fatalf("unexpected touch config %+v", tc)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/x.dat"); got != filepath.Join(home, "x.dat") {
		t.Fatalf("ExpandPath(~/x.dat) = %q", got)
	}
	if got := ExpandPath("/abs/x.dat"); got != "/abs/x.dat" {
		t.Fatalf("ExpandPath(/abs/x.dat) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Fatalf("ExpandPath(\"\") = %q", got)
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// ============================================================================
// wavescope-tui - terminal waveform viewer
// ============================================================================
// Renders the detail view and overview in the terminal. Keys and the mouse
// drive the same gestures the touch daemon handles: drag, fling, wheel zoom,
// double-tap zoom steps and overview drags.
// ============================================================================

var version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		maxScale  float64
		logFile   string
		logLevel  string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:   "wavescope-tui PATH",
		Short: "Browse a waveform file in the terminal",
		Long: `Browse an audiowaveform envelope (.json or .dat, optionally compressed
with .gz, .zst, .xz or .lz4) in the terminal.

Navigation:
  h/l, arrows      pan
  H/L              fling
  +/-, wheel       zoom
  space            next zoom step (double tap)
  0 / 1            fit / native scale
  g / G            start / end
  drag             pan, release fast to fling
  drag overview    move the window
  r                reload
  q                quit`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxScale <= 0 {
				return fmt.Errorf("--max-scale must be > 0")
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			logger, closeLog, err := openLogger(logFile, logLevel, logFormat)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			m := newModel(ctx, modelConfig{Path: path, MaxScale: maxScale, Logger: logger})
			p := tea.NewProgram(m,
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&maxScale, "max-scale", 3, "Maximum zoom scale")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file (the terminal belongs to the UI)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")
	return cmd
}

// openLogger returns a discarding logger unless path is set.
func openLogger(path, level, format string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q", level)
	}

	var w io.Writer = io.Discard
	closeFn := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), closeFn, nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), closeFn, nil
	default:
		closeFn()
		return nil, nil, fmt.Errorf("invalid log format %q (expected text or json)", format)
	}
}

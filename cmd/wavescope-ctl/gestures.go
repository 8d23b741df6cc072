package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// ============================================================================
// Gesture commands
// ============================================================================

func gestureCommands(opts *options) []*cobra.Command {
	touchDown := &cobra.Command{
		Use:   "touch-down",
		Short: "First finger down (stops a fling or zoom)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, request{eventType: "touch_down"})
		},
	}

	touchUp := &cobra.Command{
		Use:   "touch-up",
		Short: "Last finger up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, request{eventType: "touch_up"})
		},
	}

	drag := &cobra.Command{
		Use:   "drag DX [DY]",
		Short: "Pan the detail view by a finger delta in pixels",
		Long: `Pan the detail view. A negative DX drags the content left and moves the
window toward later times. Use "--" before negative numbers.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			d := dragData{DX: v[0]}
			if len(v) == 2 {
				d.DY = v[1]
			}
			return opts.send(cmd, request{"drag", d})
		},
	}

	var pinchUpdateOnly bool
	pinch := &cobra.Command{
		Use:   "pinch FACTOR FOCUS_X",
		Short: "Scale by FACTOR keeping the time under FOCUS_X fixed",
		Long: `Send a complete pinch (begin, update, end). With --update-only only the
incremental update is sent, for scripting a longer gesture.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			if v[0] <= 0 {
				return errors.New("factor must be > 0")
			}
			update := request{"pinch_update", pinchUpdateData{Factor: v[0], FocusX: v[1]}}
			if pinchUpdateOnly {
				return opts.send(cmd, update)
			}
			return opts.send(cmd,
				request{eventType: "pinch_begin"},
				update,
				request{eventType: "pinch_end"},
			)
		},
	}
	pinch.Flags().BoolVar(&pinchUpdateOnly, "update-only", false, "Send only pinch_update")

	fling := &cobra.Command{
		Use:   "fling X VELOCITY_X",
		Short: "Start a fling at X with a scroll velocity in px/s",
		Long: `Start a fling. A positive VELOCITY_X scrolls toward later times; the
window decelerates until it stops or reaches an edge.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			return opts.send(cmd, request{"fling", flingData{X: v[0], VelocityX: v[1]}})
		},
	}

	doubleTap := &cobra.Command{
		Use:   "double-tap X",
		Short: "Zoom to the next scale step around X",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			return opts.send(cmd, request{"double_tap", doubleTapData{X: v[0]}})
		},
	}

	thumbDrag := &cobra.Command{
		Use:   "thumb-drag X Y DX",
		Short: "Drag the overview highlight grabbed at (X, Y) by DX pixels",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			return opts.send(cmd,
				request{"thumb_drag_begin", thumbDragBeginData{X: v[0], Y: v[1]}},
				request{"thumb_drag", thumbDragData{DX: v[2]}},
				request{eventType: "thumb_drag_end"},
			)
		},
	}

	return []*cobra.Command{touchDown, touchUp, drag, pinch, fling, doubleTap, thumbDrag}
}

// ============================================================================
// View commands
// ============================================================================

func viewCommands(opts *options) []*cobra.Command {
	seek := &cobra.Command{
		Use:   "seek SECONDS",
		Short: "Move the window to start at SECONDS (clamped)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			return opts.send(cmd, request{"set_start_time", setStartTimeData{Seconds: v[0]}})
		},
	}

	scale := &cobra.Command{
		Use:   "scale SCALE",
		Short: "Set the zoom scale (clamped to the view's range)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			return opts.send(cmd, request{"set_scale", setScaleData{Scale: v[0]}})
		},
	}

	var (
		zoomFocusX  float64
		zoomAnimate bool
	)
	zoom := &cobra.Command{
		Use:   "zoom SCALE",
		Short: "Zoom to SCALE keeping the time under --focus-x fixed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			return opts.send(cmd, request{"zoom", zoomData{Scale: v[0], FocusX: zoomFocusX, Animate: zoomAnimate}})
		},
	}
	zoom.Flags().Float64Var(&zoomFocusX, "focus-x", 0, "Focal x in detail pixels")
	zoom.Flags().BoolVar(&zoomAnimate, "animate", false, "Ease to the target scale")

	var l layoutData
	layout := &cobra.Command{
		Use:   "layout",
		Short: "Resize the detail and overview surfaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if l == (layoutData{}) {
				return errors.New("layout: set at least one size flag")
			}
			if l.DetailWidth < 0 || l.DetailHeight < 0 || l.ThumbWidth < 0 || l.ThumbHeight < 0 {
				return errors.New("layout: sizes must be >= 0")
			}
			return opts.send(cmd, request{"layout", l})
		},
	}
	layout.Flags().IntVar(&l.DetailWidth, "detail-width", 0, "Detail view width in pixels")
	layout.Flags().IntVar(&l.DetailHeight, "detail-height", 0, "Detail view height in pixels")
	layout.Flags().IntVar(&l.ThumbWidth, "thumb-width", 0, "Overview width in pixels")
	layout.Flags().IntVar(&l.ThumbHeight, "thumb-height", 0, "Overview height in pixels")

	load := &cobra.Command{
		Use:   "load PATH",
		Short: "Load a waveform file (.json, .dat, optionally .gz/.zst/.xz/.lz4)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return opts.send(cmd, request{"load_waveform", loadWaveformData{Path: path}})
		},
	}

	return []*cobra.Command{seek, scale, zoom, layout, load}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "0.3.0"

func printVersion() {
	fmt.Printf("wavescoped v%s\n", version)
	fmt.Println("Touch-driven waveform viewer daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  wavescoped [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Owns a zoomable detail view and an overview thumb over an audio waveform")
	fmt.Println("  envelope (audiowaveform .json/.dat, optionally compressed). Gestures come")
	fmt.Println("  from Linux multitouch devices or the IPC socket; view state is published")
	fmt.Println("  to websocket clients.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to a YAML (or .toml) config file")
	fmt.Println()
	fmt.Println("  -waveform string")
	fmt.Println("        Waveform file to load on startup")
	fmt.Println()
	fmt.Println("  -watch")
	fmt.Println("        Reload the waveform file when it changes on disk")
	fmt.Println()
	fmt.Println("  -touch-device string")
	fmt.Println("        Linux multitouch input device (e.g. /dev/input/event3); empty disables touch")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (default \"/tmp/wavescope.sock\")")
	fmt.Println()
	fmt.Println("  -port int")
	fmt.Println("        HTTP port for the state websocket (default 3002)")
	fmt.Println()
	fmt.Println("  -update-hz int")
	fmt.Printf("        Frame clock frequency in Hz (default %d)\n", defaultUpdateHz)
	fmt.Println()
	fmt.Println("  -max-scale float")
	fmt.Printf("        Maximum zoom scale (default %.1f)\n", defaultMaxScale)
	fmt.Println()
	fmt.Println("  -detail-width int / -detail-height int")
	fmt.Printf("        Detail surface size in pixels (default %dx%d)\n", defaultDetailWidth, defaultDetailHeight)
	fmt.Println()
	fmt.Println("  -publish-frames")
	fmt.Println("        Send rendered frames to websocket clients")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -log-format string")
	fmt.Println("        Log format: text, json (default \"text\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  wavescoped -waveform ~/music/track.dat -watch")
	fmt.Println("  wavescoped -config /etc/wavescope.yaml -touch-device /dev/input/event3")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to the touch device (run as root or add user to 'input' group)")
	fmt.Println("  - Flags override values from the config file")
	fmt.Println()
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath    = flag.String("config", "", "Path to YAML or TOML config file")
		waveformPath  = flag.String("waveform", "", "Waveform file to load on startup")
		watch         = flag.Bool("watch", false, "Reload the waveform file when it changes")
		touchDevice   = flag.String("touch-device", "", "Linux multitouch input device")
		ipcSocketPath = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		port          = flag.Int("port", 0, "HTTP port for the state websocket")
		updateHz      = flag.Int("update-hz", 0, "Frame clock frequency in Hz")
		maxScale      = flag.Float64("max-scale", 0, "Maximum zoom scale")
		detailWidth   = flag.Int("detail-width", 0, "Detail surface width in pixels")
		detailHeight  = flag.Int("detail-height", 0, "Detail surface height in pixels")
		publishFrames = flag.Bool("publish-frames", false, "Send rendered frames to websocket clients")
		logLevelStr   = flag.String("log-level", "", "Log level: error, warn, info, debug")
		logFormatStr  = flag.String("log-format", "", "Log format: text, json")
		_             = flag.Bool("version", false, "Print version and exit")
		_             = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(ExpandPath(*configPath))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var ov FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "waveform":
			ov.WaveformPath = waveformPath
		case "watch":
			ov.Watch = watch
		case "touch-device":
			ov.TouchDevice = touchDevice
		case "ipc-socket":
			ov.IPCSocketPath = ipcSocketPath
		case "port":
			ov.StatePort = port
		case "update-hz":
			ov.UpdateHz = updateHz
		case "max-scale":
			ov.MaxScale = maxScale
		case "detail-width":
			ov.DetailWidth = detailWidth
		case "detail-height":
			ov.DetailHeight = detailHeight
		case "publish-frames":
			ov.PublishFrames = publishFrames
		case "log-level":
			ov.LogLevel = logLevelStr
		case "log-format":
			ov.LogFormat = logFormatStr
		}
	})
	ov.Apply(&cfg)
	cfg.Waveform.Path = ExpandPath(cfg.Waveform.Path)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Validate already checked both values.
	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logFormat, _ := parseLogFormat(cfg.Logging.Format)
	logger := setupLogger(logLevel, logFormat)

	logger.Debug("starting wavescoped", "version", version)
	logger.Debug("configuration",
		"waveform", cfg.Waveform.Path,
		"watch", cfg.Waveform.Watch,
		"touch_devices", cfg.Touch.Devices,
		"ipc_socket", cfg.IPC.SocketPath,
		"port", cfg.StateWS.Port,
		"ws_path", cfg.StateWS.Path,
		"update_hz", cfg.View.UpdateHz,
		"max_scale", cfg.View.MaxScale,
		"publish_frames", cfg.StateWS.PublishFrames)

	if err := run(cfg, logger); err != nil {
		logger.Error("wavescoped stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down")
}

// run starts every component under one errgroup; the first failure cancels the rest.
func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var touchFiles []*os.File
	for _, dev := range cfg.Touch.Devices {
		f, err := os.Open(ExpandPath(dev))
		if err != nil {
			for _, opened := range touchFiles {
				_ = opened.Close()
			}
			logger.Error("failed to open touch device", "device", dev, "error", err, "tip", "run as root or add user to 'input' group")
			return err
		}
		touchFiles = append(touchFiles, f)
	}

	events := make(chan Event, 64)
	broadcasts := make(chan StateBroadcast, 128)

	state := NewDaemonState(cfg.ToViewOptions(logger), cfg.ToLayout())

	wsServer := NewServer(logger, events, ServerConfig{
		Hub:             HubConfig{SendBuf: cfg.StateWS.SendBuf},
		SnapshotTimeout: defaultSnapshotTimeoutMS * time.Millisecond,
	})
	mux := http.NewServeMux()
	wsServer.Register(mux, cfg.StateWS.Path)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runDaemon(gctx, events, broadcasts, state, daemonConfig{
			Reducer:         ReducerConfig{PublishFrames: cfg.StateWS.PublishFrames},
			UpdateHz:        cfg.View.UpdateHz,
			InitialWaveform: cfg.Waveform.Path,
		}, logger)
		return nil
	})
	g.Go(func() error {
		wsServer.Hub().Run(gctx)
		return nil
	})
	g.Go(func() error {
		RunBroadcaster(gctx, wsServer.Hub(), broadcasts, logger)
		return nil
	})
	g.Go(func() error {
		return runIPCServer(gctx, cfg.IPC.SocketPath, events, logger)
	})
	g.Go(func() error {
		return runHTTPServer(gctx, cfg.StateWS.Port, mux, logger)
	})

	if cfg.Waveform.Watch {
		debounce := time.Duration(cfg.Waveform.WatchDebounceMS) * time.Millisecond
		g.Go(func() error {
			return runWaveformWatcher(gctx, cfg.Waveform.Path, debounce, events, logger)
		})
	}

	if len(touchFiles) > 0 {
		g.Go(func() error {
			return runTouchInput(gctx, touchFiles, cfg.ToTouchConfig(), events, logger)
		})
	}

	listenInfo := []any{"ipc", cfg.IPC.SocketPath, "port", cfg.StateWS.Port, "ws_path", cfg.StateWS.Path, "update_rate_hz", cfg.View.UpdateHz}
	if len(cfg.Touch.Devices) > 0 {
		listenInfo = append(listenInfo, "touch_devices", cfg.Touch.Devices)
	}
	logger.Info("listening", listenInfo...)

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runTouchInput translates raw multitouch events into gesture Events until ctx
// is canceled or a device fails.
func runTouchInput(ctx context.Context, files []*os.File, cfg touchConfig, events chan<- Event, logger *slog.Logger) error {
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	raw := make(chan deviceEvent, 256)
	readErr := make(chan error, len(files))
	go readInputEventsMulti(files, raw, readErr)

	translators := make(map[string]*touchTranslator, len(files))

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			logger.Error("touch reader stopped", "error", err)
			return fmt.Errorf("touch input: %w", err)

		case de := <-raw:
			tr, ok := translators[de.Device]
			if !ok {
				tr = newTouchTranslator(cfg)
				translators[de.Device] = tr
			}
			for _, ev := range tr.Feed(de.Event) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

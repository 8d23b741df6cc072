package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ============================================================================
// Waveform File Watcher
// ============================================================================
// Watches the directory holding the waveform file so editors and tools that
// replace the file via rename are still seen. Bursts of writes are debounced
// into a single WaveformFileChanged.
// ============================================================================

// runWaveformWatcher emits WaveformFileChanged for path until ctx is canceled.
func runWaveformWatcher(ctx context.Context, path string, debounce time.Duration, events chan<- Event, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching waveform", "path", abs, "debounce", debounce)

	var timer *time.Timer
	var timerCh <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevantChange(ev, abs) {
				continue
			}
			logger.Debug("waveform file event", "op", ev.Op.String(), "name", ev.Name)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			timerCh = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("waveform watcher error", "error", err)

		case <-timerCh:
			timerCh = nil
			// The reducer only knows the path it was given, not its absolute form.
			select {
			case events <- WaveformFileChanged{Path: path}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// relevantChange reports whether ev can have changed the contents at target.
func relevantChange(ev fsnotify.Event, target string) bool {
	if filepath.Clean(ev.Name) != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

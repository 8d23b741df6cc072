package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wavescope/internal/loader"
)

// effectEnv is what side effects may touch: a context bounding background loads
// and a way to post completions back to the daemon loop.
type effectEnv struct {
	ctx  context.Context
	post func(Event)
}

// runEffect executes a single reducer-emitted Command and emits an observation
// Event via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O (or start it).
// - It must never call Reduce() directly; it only emits Events to be reduced by the daemon loop.
// - Asynchronous completions go through env.post, which feeds the daemon's event channel.
func runEffect(
	env *effectEnv,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		// No place to report observations/errors; nothing sensible to do.
		return
	}

	now := time.Now()

	switch c := cmd.(type) {
	case CmdLoadWaveform:
		if env == nil || env.post == nil {
			onEvent(CommandFailed{Command: cmd, Err: errNoLoader{}, At: now})
			onEvent(WaveformLoadFailed{Path: c.Path, Err: errNoLoader{}, At: now})
			return
		}
		ctx := env.ctx
		if ctx == nil {
			ctx = context.Background()
		}

		logger.Info("loading waveform", "path", c.Path)
		results := loader.LoadAsync(ctx, c.Path)
		go func() {
			res := <-results
			at := time.Now()
			if res.Err != nil {
				logger.Error("waveform load failed", "path", res.Path, "error", res.Err, "elapsed", res.Elapsed)
				env.post(WaveformLoadFailed{Path: res.Path, Err: res.Err, At: at})
				return
			}
			logger.Info("waveform loaded",
				"path", res.Path,
				"length", res.Info.Length(),
				"duration_sec", res.Info.Duration(),
				"elapsed", res.Elapsed)
			env.post(WaveformLoaded{
				Path:      res.Path,
				SessionID: uuid.NewString(),
				Info:      res.Info,
				Elapsed:   res.Elapsed,
				At:        at,
			})
		}()

	case CmdPublishStateSnapshot:
		// Deliver reducer-produced snapshot to the requester.
		// This keeps the reducer pure by moving the channel send into the effects layer.
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}

		// Never block the daemon loop.
		select {
		case c.Reply <- c.Snapshot:
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(CommandFailed{
			Command: cmd,
			Err:     errUnknownCommand{cmd: cmd},
			At:      now,
		})
	}
}

// errNoLoader indicates a load was requested without a way to deliver its completion.
type errNoLoader struct{}

func (errNoLoader) Error() string { return "no waveform loader" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }

package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop
// ============================================================================
//
// Design rules enforced here:
//   - The reducer performs no I/O and computes: next state + commands + broadcasts.
//   - The daemon loop is the only place that executes side effects.
//   - Effect results are turned into Events and fed back into the reducer.
//   - The frame clock (Tick) is the only thing that advances flings and zooms.
//
// ============================================================================

// daemonConfig bundles what runDaemon needs besides channels.
type daemonConfig struct {
	Reducer  ReducerConfig
	UpdateHz int

	// InitialWaveform, if set, is loaded on startup.
	InitialWaveform string
}

// runDaemon is the main daemon loop that:
//   - Receives Events from multiple sources (touch, IPC, websocket snapshot requests, watcher)
//   - Emits Tick events on a fixed cadence
//   - Reduces events into (state, commands, broadcasts)
//   - Executes commands and feeds their results back into the reducer
//   - Forwards broadcasts to the websocket broadcaster without blocking
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the events channel is closed
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	broadcasts chan<- StateBroadcast,
	state *DaemonState,
	cfg daemonConfig,
	logger *slog.Logger,
) {
	if state == nil {
		logger.Error("daemon state is nil")
		return
	}

	updateHz := cfg.UpdateHz
	if updateHz <= 0 {
		updateHz = defaultUpdateHz
	}
	ticker := time.NewTicker(time.Second / time.Duration(updateHz))
	defer ticker.Stop()

	// Background effects (file loads) complete here.
	completions := make(chan Event, 8)
	env := &effectEnv{
		ctx: ctx,
		post: func(ev Event) {
			select {
			case completions <- ev:
			case <-ctx.Done():
			}
		},
	}

	lastTick := time.Now()

	// Explicit queues:
	// - eventQueue holds events awaiting reduction
	// - cmdQueue holds commands awaiting execution
	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}

	publish := func(bs []StateBroadcast) {
		if broadcasts == nil {
			return
		}
		for _, b := range bs {
			select {
			case broadcasts <- b:
			default:
				logger.Warn("broadcast queue full, dropping", "broadcast", b)
			}
		}
	}

	// Reduce all queued events, enqueuing any resulting commands.
	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, cfg.Reducer)
			if rr.State != nil {
				state = rr.State
			}
			cmdQueue = append(cmdQueue, rr.Commands...)
			publish(rr.Broadcasts)
		}
	}

	// Execute all queued commands, enqueuing observation events.
	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			logger.Debug("effect", "command", cmd.String())
			runEffect(env, cmd, logger, enqueueEvent)

			// Observations should be reduced promptly to keep state coherent.
			flushEvents()
		}
	}

	if cfg.InitialWaveform != "" {
		enqueueEvent(TimedEvent{Event: LoadWaveform{Path: cfg.InitialWaveform}, At: time.Now()})
		flushEvents()
		flushCommands()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			enqueueEvent(TimedEvent{Event: ev, At: time.Now()})

		case ev := <-completions:
			enqueueEvent(TimedEvent{Event: ev, At: time.Now()})

		case now := <-ticker.C:
			dt := now.Sub(lastTick).Seconds()
			lastTick = now
			enqueueEvent(Tick{Now: now, Dt: dt})
		}

		flushEvents()
		flushCommands()
	}
}

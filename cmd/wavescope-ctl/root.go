package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"wavescope/internal/ipcclient"
)

var version = "0.3.0"

// options holds the persistent flags shared by every subcommand.
type options struct {
	socketPath string
	timeout    time.Duration
	addr       string
	wsPath     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "wavescope-ctl",
		Short: "Control a running wavescoped",
		Long: `wavescope-ctl sends gestures and view commands to wavescoped over its
Unix socket and reads state from its HTTP/WebSocket server.

Gestures:
  touch-down, touch-up, drag, pinch, fling, double-tap, thumb-drag

View:
  seek, scale, zoom, layout, load

State:
  state     - print the current snapshot
  watch     - stream state messages`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.socketPath, "socket", ipcclient.DefaultSocketPath, "Unix domain socket path")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Second, "IPC and HTTP timeout")
	root.PersistentFlags().StringVar(&opts.addr, "addr", "127.0.0.1:3002", "State server host:port")
	root.PersistentFlags().StringVar(&opts.wsPath, "ws-path", "/ws/state", "State WebSocket path")

	root.AddCommand(gestureCommands(opts)...)
	root.AddCommand(viewCommands(opts)...)
	root.AddCommand(newStateCmd(opts), newWatchCmd(opts))

	return root
}

// request is one envelope to send; data is nil for payload-less events.
type request struct {
	eventType string
	data      any
}

// send delivers reqs in order over a single connection and stops at the first
// rejection.
func (o *options) send(cmd *cobra.Command, reqs ...request) error {
	c, err := ipcclient.Dial(o.socketPath, o.timeout)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, r := range reqs {
		if err := c.Send(r.eventType, r.data); err != nil {
			return fmt.Errorf("%s: %w", r.eventType, err)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

// parseFloats parses every positional argument as a float64.
func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

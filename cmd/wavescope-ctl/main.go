package main

import (
	"fmt"
	"os"
)

// ============================================================================
// wavescope-ctl - command-line client for wavescoped
// ============================================================================
// Gestures and view commands go over the daemon's Unix socket; state and
// watch read the HTTP/WebSocket state server.
//
// Usage:
//   wavescope-ctl drag -- -120
//   wavescope-ctl pinch 1.5 400
//   wavescope-ctl seek 42.5
//   wavescope-ctl load ~/music/track.json.gz
//   wavescope-ctl watch --types viewport_changed
// ============================================================================

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

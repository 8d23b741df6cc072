package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// ============================================================================
// State commands (HTTP / WebSocket)
// ============================================================================

func newStateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the current daemon snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u := url.URL{Scheme: "http", Host: opts.addr, Path: "/api/state"}
			client := &http.Client{Timeout: opts.timeout}

			resp, err := client.Get(u.String())
			if err != nil {
				return fmt.Errorf("get state: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read state: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("get state: %s: %s", resp.Status, bytes.TrimSpace(body))
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}
}

// wsMessage is the subset of the state envelope the watcher inspects.
type wsMessage struct {
	Type string `json:"type"`
}

func newWatchCmd(opts *options) *cobra.Command {
	var (
		types []string
		count int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream state messages from the daemon",
		Long: `Connect to the state WebSocket and print every message on its own line.
The first message is always the state_init snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchState(ctx, opts, cmd.OutOrStdout(), types, count)
		},
	}
	cmd.Flags().StringSliceVar(&types, "types", nil, "Only print these message types (comma separated)")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after printing this many messages (0 = run until interrupted)")
	return cmd
}

func watchState(ctx context.Context, opts *options, out io.Writer, types []string, count int) error {
	u := url.URL{Scheme: "ws", Host: opts.addr, Path: opts.wsPath}

	d := websocket.Dialer{HandshakeTimeout: opts.timeout}
	conn, _, err := d.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", u.String(), err)
	}
	defer conn.Close()

	// Unblock ReadMessage on interrupt.
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	printed := 0
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		if len(types) > 0 {
			var msg wsMessage
			if err := json.Unmarshal(raw, &msg); err != nil || !slices.Contains(types, msg.Type) {
				continue
			}
		}

		if _, err := fmt.Fprintf(out, "%s\n", bytes.TrimSpace(raw)); err != nil {
			return err
		}
		printed++
		if count > 0 && printed >= count {
			return nil
		}
	}
}

func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

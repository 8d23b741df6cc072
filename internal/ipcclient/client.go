// Package ipcclient talks to the wavescoped Unix socket.
//
// Requests are line-delimited JSON envelopes {"type": ..., "data": ...};
// every line gets one IPCResponse-shaped reply.
package ipcclient

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultSocketPath matches the daemon default.
const DefaultSocketPath = "/tmp/wavescope.sock"

// ErrRejected is wrapped by Send when the daemon answers with status "error".
var ErrRejected = errors.New("ipc request rejected")

// Envelope is the request line.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the daemon's reply.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Client holds one connection. Requests are sent in order; it is not safe for
// concurrent use.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial connects to the daemon socket.
func Dial(socketPath string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn), timeout: timeout}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one event and waits for its reply. data may be nil for
// payload-less events.
func (c *Client) Send(eventType string, data any) error {
	env := Envelope{Type: eventType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s data: %w", eventType, err)
		}
		env.Data = raw
	}

	line, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	line = append(line, '\n')

	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.conn.Write(line); err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	raw, err := c.reader.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	return nil
}

// Send dials, sends a single event and closes.
func Send(socketPath, eventType string, data any) error {
	c, err := Dial(socketPath, 2*time.Second)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Send(eventType, data)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wavescope/internal/waveform"
)

// ============================================================================
// State WebSocket: hub + per-client pumps + broadcaster
// ============================================================================
//
// Design constraints:
//   - DaemonState remains daemon-owned; never expose *DaemonState to other goroutines.
//   - Initial state snapshot on connect goes through the reducer/event loop.
//   - WS broadcasts originate from reducer-emitted broadcasts (ReduceResult.Broadcasts).
//   - Slow clients are disconnected when their send buffer fills.
//
// Messages are JSON text frames with an envelope: {type, ts, data}.
// The first message on connect is "state_init".
//
// ============================================================================

// wsMessageSnapshot is the JSON `data` payload for "state_init".
type wsMessageSnapshot struct {
	SessionID string `json:"session_id,omitempty"`
	Path      string `json:"path,omitempty"`
	Loaded    bool   `json:"loaded"`
	Loading   bool   `json:"loading"`
	LastError string `json:"last_error,omitempty"`

	DurationSeconds float64 `json:"duration_seconds"`
	SampleRate      int     `json:"sample_rate"`
	SamplesPerPixel int     `json:"samples_per_pixel"`
	Length          int     `json:"length"`

	View  wsViewportData `json:"view"`
	Thumb wsThumbData    `json:"thumb"`
}

// wsViewportData is the JSON `data` payload for "viewport_changed".
type wsViewportData struct {
	StartSecond float64 `json:"start_second"`
	EndSecond   float64 `json:"end_second"`
	Scale       float64 `json:"scale"`
	MinScale    float64 `json:"min_scale,omitempty"`
	MaxScale    float64 `json:"max_scale,omitempty"`
	Phase       string  `json:"phase"`
}

// wsThumbData is the JSON `data` payload for "thumb_changed".
type wsThumbData struct {
	StartPixel int `json:"start_pixel"`
	EndPixel   int `json:"end_pixel"`
}

// wsWaveformLoadedData is the JSON `data` payload for "waveform_loaded".
type wsWaveformLoadedData struct {
	Path            string  `json:"path"`
	SessionID       string  `json:"session_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	SampleRate      int     `json:"sample_rate"`
	SamplesPerPixel int     `json:"samples_per_pixel"`
	Length          int     `json:"length"`
}

// wsWaveformFailedData is the JSON `data` payload for "waveform_failed".
type wsWaveformFailedData struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// wsFrameData is the JSON `data` payload for "frame".
type wsFrameData struct {
	Detail waveform.Frame `json:"detail"`
	Thumb  waveform.Frame `json:"thumb"`
}

// wsOutboundEvent is a pre-typed, externally-consumable state event.
type wsOutboundEvent struct {
	Type string
	Data any
	At   time.Time // zero means use now
}

// envelope is the wire format envelope for WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// coalescedTypes are rate-limited latest-wins, flushed in this order.
var coalescedTypes = []string{"viewport_changed", "thumb_changed", "frame"}

func isCoalesced(typ string) bool {
	for _, t := range coalescedTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	// Buffered broadcast channel for already-serialized JSON frames.
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size. Zero means 32.
	SendBuf int

	// BroadcastBuf is the hub inbound broadcast queue size. Zero means 128.
	BroadcastBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled.
// It disconnects all clients on shutdown.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping (context canceled)")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "client", c.id, "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			// Collect slow clients first, then remove them after we unlock.
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		safeCloseChan(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		// Closing send signals writePump to exit.
		safeCloseChan(c.send)

		h.logger.Info("ws client disconnected", "client", c.id, "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover() // ignore "close of closed channel"
	}()
	close(ch)
}

// BroadcastBytes enqueues a pre-serialized JSON WS frame for broadcast.
// It never blocks; if the hub queue is full it drops the message.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub

	conn *websocket.Conn
	send chan []byte

	id         string
	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a client with a buffered send channel.
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 32
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

const (
	writeWait = 5 * time.Second

	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// closeStatus extracts a human-readable websocket close code / text when possible.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

func (c *Client) logExit(pump, cause string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Info("ws "+pump+" exiting (close)", "client", c.id, "code", code, "reason", text)
		return
	}
	c.logger.Info("ws "+pump+" exiting ("+cause+")", "client", c.id, "error", err)
}

// writePump writes messages from the send queue to the websocket.
// It exits on write error or when send is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: hub is disconnecting us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", "write error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", "ping error", err)
				return
			}
		}
	}
}

// readPump reads and discards incoming messages to detect disconnects and handle control frames.
// It exits on read error, then unregisters the client.
func (c *Client) readPump(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}

		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logExit("readPump", "read error", err)
			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}
	}
}

// ============================================================================
// HTTP Handler
// ============================================================================

type Server struct {
	logger *slog.Logger

	hub *Hub

	// Snapshot requests go through the reducer/event loop.
	events chan<- Event

	snapshotTimeout time.Duration
}

type ServerConfig struct {
	Hub             HubConfig
	SnapshotTimeout time.Duration
}

// NewServer constructs the WS state server components. Call Register on a mux,
// start hub.Run(ctx), and start the broadcaster loop.
func NewServer(logger *slog.Logger, events chan<- Event, cfg ServerConfig) *Server {
	timeout := cfg.SnapshotTimeout
	if timeout <= 0 {
		timeout = defaultSnapshotTimeoutMS * time.Millisecond
	}
	return &Server{
		logger:          logger,
		hub:             NewHub(logger, cfg.Hub),
		events:          events,
		snapshotTimeout: timeout,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Register registers the WS handler and the JSON snapshot endpoint on mux.
func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleStateWS)
	mux.HandleFunc("/api/state", s.handleStateJSON)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// requestSnapshot asks the daemon loop for a StateSnapshot.
func (s *Server) requestSnapshot(ctx context.Context) (StateSnapshot, error) {
	if s.events == nil {
		return StateSnapshot{}, errNoDaemon
	}
	ctx, cancel := context.WithTimeout(ctx, s.snapshotTimeout)
	defer cancel()

	reply := make(chan StateSnapshot, 1)
	select {
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	case s.events <- RequestStateSnapshot{Reply: reply}:
	}

	select {
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	case snap := <-reply:
		return snap, nil
	}
}

var errNoDaemon = errors.New("no daemon event channel")

// handleStateWS upgrades and registers a client, then sends state_init.
func (s *Server) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)

	// Register client first so broadcasts can reach it.
	s.hub.register <- client

	// The pumps must outlive the handler: net/http cancels r.Context() when it returns.
	go client.writePump(context.Background())
	go client.readPump(context.Background())

	snap, err := s.requestSnapshot(r.Context())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "client", client.id, "error", err)
		}
		return
	}

	initMsg, err := marshalStateInit(snap)
	if err != nil {
		s.logger.Warn("ws state_init marshal failed", "error", err)
		return
	}
	select {
	case client.send <- initMsg:
	default:
		s.hub.unregister <- client
	}
}

// handleStateJSON serves the same payload as state_init over plain HTTP.
func (s *Server) handleStateJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.requestSnapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshotPayload(snap)); err != nil {
		s.logger.Debug("state json write failed", "error", err)
	}
}

func snapshotPayload(snap StateSnapshot) wsMessageSnapshot {
	return wsMessageSnapshot{
		SessionID:       snap.SessionID,
		Path:            snap.Path,
		Loaded:          snap.Loaded,
		Loading:         snap.Loading,
		LastError:       snap.LastError,
		DurationSeconds: snap.DurationSeconds,
		SampleRate:      snap.SampleRate,
		SamplesPerPixel: snap.SamplesPerPixel,
		Length:          snap.Length,
		View: wsViewportData{
			StartSecond: snap.View.StartSecond,
			EndSecond:   snap.View.EndSecond,
			Scale:       snap.View.Scale,
			MinScale:    snap.View.MinScale,
			MaxScale:    snap.View.MaxScale,
			Phase:       snap.View.Phase,
		},
		Thumb: wsThumbData{StartPixel: snap.ThumbStartPixel, EndPixel: snap.ThumbEndPixel},
	}
}

func marshalStateInit(snap StateSnapshot) ([]byte, error) {
	ts := snap.At.UTC()
	if snap.At.IsZero() {
		ts = time.Now().UTC()
	}
	return json.Marshal(envelope{Type: "state_init", Ts: &ts, Data: snapshotPayload(snap)})
}

// ============================================================================
// Broadcaster
// ============================================================================

// RunBroadcaster reads reducer-emitted StateBroadcast events, marshals them, and broadcasts
// them to all hub clients. Intended to run as a single goroutine.
//
// viewport_changed, thumb_changed and frame are flushed at most once per
// wsViewportCoalesceWindow, latest-wins per type. Any other event flushes what is
// pending first so clients never see them out of order.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan StateBroadcast, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	pending := make(map[string]wsOutboundEvent)
	var timer *time.Timer
	var timerCh <-chan time.Time

	emit := func(ev wsOutboundEvent) {
		ts := ev.At.UTC()
		if ev.At.IsZero() {
			ts = time.Now().UTC()
		}
		msg, err := json.Marshal(envelope{Type: ev.Type, Ts: &ts, Data: ev.Data})
		if err != nil {
			logger.Warn("ws broadcaster marshal failed", "error", err, "type", ev.Type)
			return
		}
		hub.BroadcastBytes(msg)
	}

	flushPending := func() {
		for _, typ := range coalescedTypes {
			if ev, ok := pending[typ]; ok {
				delete(pending, typ)
				emit(ev)
			}
		}
	}

	stopTimer := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer = nil
		timerCh = nil
	}

	startTimerIfNeeded := func() {
		if timer != nil {
			return
		}
		timer = time.NewTimer(wsViewportCoalesceWindow)
		timerCh = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			flushPending()
			stopTimer()
			return

		case <-timerCh:
			// Rate limit, not debounce: the timer is not reset by new updates.
			timer = nil
			timerCh = nil
			flushPending()

		case b, ok := <-src:
			if !ok {
				flushPending()
				stopTimer()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}

			ev, ok := convertBroadcast(b)
			if !ok {
				continue
			}

			if isCoalesced(ev.Type) {
				pending[ev.Type] = ev
				startTimerIfNeeded()
				continue
			}

			flushPending()
			stopTimer()
			emit(ev)
		}
	}
}

func convertBroadcast(b StateBroadcast) (wsOutboundEvent, bool) {
	switch ev := b.(type) {
	case BroadcastViewportChanged:
		return wsOutboundEvent{
			Type: "viewport_changed",
			Data: wsViewportData{
				StartSecond: ev.StartSecond,
				EndSecond:   ev.EndSecond,
				Scale:       ev.Scale,
				Phase:       ev.Phase,
			},
			At: ev.At,
		}, true

	case BroadcastThumbChanged:
		return wsOutboundEvent{
			Type: "thumb_changed",
			Data: wsThumbData{StartPixel: ev.StartPixel, EndPixel: ev.EndPixel},
			At:   ev.At,
		}, true

	case BroadcastWaveformLoaded:
		return wsOutboundEvent{
			Type: "waveform_loaded",
			Data: wsWaveformLoadedData{
				Path:            ev.Path,
				SessionID:       ev.SessionID,
				DurationSeconds: ev.DurationSeconds,
				SampleRate:      ev.SampleRate,
				SamplesPerPixel: ev.SamplesPerPixel,
				Length:          ev.Length,
			},
			At: ev.At,
		}, true

	case BroadcastWaveformFailed:
		return wsOutboundEvent{
			Type: "waveform_failed",
			Data: wsWaveformFailedData{Path: ev.Path, Error: ev.Error},
			At:   ev.At,
		}, true

	case BroadcastFrame:
		return wsOutboundEvent{
			Type: "frame",
			Data: wsFrameData{Detail: ev.Detail, Thumb: ev.Thumb},
			At:   ev.At,
		}, true

	default:
		return wsOutboundEvent{}, false
	}
}

package host

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/knobs/internal/metrics"
)

// Frame types on the websocket channel.
const (
	FrameStateInit      = "state_init"
	FrameComponentValue = "component_value"
	FrameHeight         = "frame_height"
)

// Envelope is the wire format of every websocket frame.
type Envelope struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Knob string          `json:"knob,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// HubConfig sizes the hub queues. Zero selects defaults.
type HubConfig struct {
	SendBuf      int
	BroadcastBuf int
}

// Hub fans frames out to websocket clients. Each client has its own write
// pump; a client whose queue is full is disconnected.
type Hub struct {
	logger  *slog.Logger
	metrics metrics.Recorder

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}
	// last component_value payload per knob, replayed as state_init
	last  map[string]json.RawMessage
	order []string

	sendBuf int
	now     func() time.Time
}

func NewHub(logger *slog.Logger, rec metrics.Recorder, cfg HubConfig) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
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
		metrics:    rec,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		last:       make(map[string]json.RawMessage),
		sendBuf:    sendBuf,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run processes hub events until ctx is canceled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping")
			h.closeAllClients()
			return

		case c := <-h.register:
			// State is snapshotted under the same lock that admits the client,
			// so every later publish reaches it as a broadcast.
			h.mu.Lock()
			for _, msg := range h.initFramesLocked() {
				select {
				case c.send <- msg:
				default:
				}
			}
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetClients(n)
			h.logger.Info("ws client registered", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
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
				h.metrics.ObserveDropped("slow_client")
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
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
	h.metrics.SetClients(0)
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
		safeCloseChan(c.send)
		h.metrics.SetClients(n)
		h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

// BroadcastBytes enqueues a serialized frame. It never blocks; a full queue
// drops the frame.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.metrics.ObserveDropped("queue_full")
		h.logger.Warn("ws hub broadcast queue full, dropping frame", "bytes", len(msg))
	}
}

// Host returns a Host that publishes calls for the knob named id.
func (h *Hub) Host(id string) Host {
	return hubHost{hub: h, knob: id}
}

// Snapshot returns the last payload pushed for every knob.
func (h *Hub) Snapshot() map[string]json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]json.RawMessage, len(h.last))
	for k, v := range h.last {
		out[k] = v
	}
	return out
}

func (h *Hub) publish(knob, typ string, data any) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			h.logger.Warn("ws frame marshal failed", "error", err, "type", typ)
			return
		}
		raw = b
	}
	if typ == FrameComponentValue {
		h.mu.Lock()
		if _, seen := h.last[knob]; !seen {
			h.order = append(h.order, knob)
		}
		h.last[knob] = raw
		h.mu.Unlock()
	}
	ts := h.now()
	msg, err := json.Marshal(Envelope{Type: typ, Ts: &ts, Knob: knob, Data: raw})
	if err != nil {
		h.logger.Warn("ws frame marshal failed", "error", err, "type", typ)
		return
	}
	h.BroadcastBytes(msg)
}

// initFramesLocked builds one state_init frame per known knob. h.mu must be
// held.
func (h *Hub) initFramesLocked() [][]byte {
	ts := h.now()
	frames := make([][]byte, 0, len(h.order))
	for _, k := range h.order {
		msg, err := json.Marshal(Envelope{Type: FrameStateInit, Ts: &ts, Knob: k, Data: h.last[k]})
		if err == nil {
			frames = append(frames, msg)
		}
	}
	return frames
}

type hubHost struct {
	hub  *Hub
	knob string
}

func (h hubHost) SetComponentValue(p Payload) {
	h.hub.publish(h.knob, FrameComponentValue, p)
}

func (h hubHost) SetFrameHeight() {
	h.hub.publish(h.knob, FrameHeight, nil)
}

// Client is one websocket connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	logger     *slog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 32
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

func (c *Client) logExit(pump string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Info("ws pump exiting (close)", "pump", pump, "remote_addr", c.remoteAddr, "code", code, "reason", text)
		return
	}
	c.logger.Info("ws pump exiting", "pump", pump, "remote_addr", c.remoteAddr, "error", err)
}

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
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("write", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("write", err)
				return
			}
		}
	}
}

// readPump discards inbound frames; it exists to process control frames and
// notice disconnects.
func (c *Client) readPump(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logExit("read", err)
			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request and registers the client. The hub replays
// the last known state of every knob on registration.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	client := NewClient(h, conn, r.RemoteAddr, h.logger)
	h.register <- client

	// Pump lifetime is owned by the hub, not the request context.
	go client.writePump(context.Background())
	go client.readPump(context.Background())
}

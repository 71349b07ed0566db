// Package stream publishes height-field frames to websocket clients and
// forwards their run controls to the simulation runner.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"terrasim/internal/logger"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Controller receives run controls from clients. *runner.Runner satisfies it.
type Controller interface {
	SetRunning(bool)
	LimitUPS(int)
	RunUntil(uint64)
}

// Control is the JSON message a client sends to steer the simulation.
// Absent fields are left unchanged.
type Control struct {
	Run      *bool   `json:"run,omitempty"`
	UPS      *int    `json:"ups,omitempty"`
	RunUntil *uint64 `json:"runUntil,omitempty"`
}

func (c Control) apply(ctrl Controller) {
	if c.UPS != nil {
		ctrl.LimitUPS(*c.UPS)
	}
	if c.RunUntil != nil {
		ctrl.RunUntil(*c.RunUntil)
	}
	if c.Run != nil {
		ctrl.SetRunning(*c.Run)
	}
}

// Option configures a Hub.
type Option func(*Hub)

// WithMaxClients caps concurrent websocket clients; 0 is unlimited.
func WithMaxClients(n int) Option { return func(h *Hub) { h.maxClients = max(n, 0) } }

// WithStatus sets the payload served as "state" by /status. fn is called on
// the HTTP goroutine and must be safe for concurrent use.
func WithStatus(fn func() any) Option { return func(h *Hub) { h.status = fn } }

// WithLogger replaces the hub logger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// Hub fans frames out to every connected client.
type Hub struct {
	ctrl       Controller
	status     func() any
	maxClients int
	log        *zap.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	last    []byte
	closed  bool
}

// NewHub returns a hub forwarding controls to ctrl, which may be nil for a
// read-only stream.
func NewHub(ctrl Controller, opts ...Option) *Hub {
	h := &Hub{
		ctrl:    ctrl,
		clients: make(map[*websocket.Conn]*sync.Mutex),
		log:     logger.Named("stream"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handler serves /ws and /status.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/status", h.serveStatus)
	return mux
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish encodes f and sends it to every client. Clients that fail to
// receive it are dropped. New clients get the latest frame on connect.
func (h *Hub) Publish(f Frame) {
	msg := EncodeFrame(f)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.last = msg
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for c, m := range h.clients {
		targets[c] = m
	}
	h.mu.Unlock()

	for c, m := range targets {
		if err := write(c, m, msg); err != nil {
			h.log.Warn("dropping client", zap.String("remote", c.RemoteAddr().String()), zap.Error(err))
			h.drop(c)
		}
	}
}

// Close disconnects every client. Later Publish calls are ignored.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	var err error
	for c := range h.clients {
		err = multierr.Append(err, c.Close())
		delete(h.clients, c)
	}
	return err
}

func write(c *websocket.Conn, m *sync.Mutex, msg []byte) error {
	m.Lock()
	defer m.Unlock()
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, msg)
}

func (h *Hub) drop(c *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.Close()
	}
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	full := h.maxClients > 0 && len(h.clients) >= h.maxClients
	closed := h.closed
	h.mu.RUnlock()
	if closed || full {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The client lock is held until the latest frame is written so a
	// concurrent Publish cannot overtake it.
	m := &sync.Mutex{}
	m.Lock()
	h.mu.Lock()
	h.clients[conn] = m
	last := h.last
	h.mu.Unlock()
	h.log.Info("client connected", zap.String("remote", conn.RemoteAddr().String()))

	if last != nil {
		err = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = conn.WriteMessage(websocket.BinaryMessage, last)
		}
	}
	m.Unlock()
	if err != nil {
		h.log.Warn("initial frame failed", zap.Error(err))
		h.drop(conn)
		return
	}

	defer func() {
		h.drop(conn)
		h.log.Info("client disconnected", zap.String("remote", conn.RemoteAddr().String()))
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Warn("ignoring malformed control", zap.Error(err))
			continue
		}
		if h.ctrl != nil {
			msg.apply(h.ctrl)
		}
	}
}

type statusReply struct {
	Clients int `json:"clients"`
	State   any `json:"state,omitempty"`
}

func (h *Hub) serveStatus(w http.ResponseWriter, r *http.Request) {
	reply := statusReply{Clients: h.Clients()}
	if h.status != nil {
		reply.State = h.status()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		h.log.Warn("status encode failed", zap.Error(err))
	}
}

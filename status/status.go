package status

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/elu"
)

const (
	INFO = iota
	ERROR
	PROGRESS
	WARNING
)

type status struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
	File     string       `json:",omitempty"`
	Warning  *elu.Warning `json:",omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Debug("ws write msg error", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug("ws write ping error", zap.Error(err))
				return
			}
		}
	}
}

// readPump drains client frames so close and pong control messages are handled.
func (c *client) readPump() {
	defer c.hub.unregisterClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub broadcasts decode events to every connected browser. A client that
// connects late gets the last message first.
type Hub struct {
	log       *zap.Logger
	broadcast chan *status
	lock      sync.Mutex
	clients   map[*client]bool
	last      []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		log:       log.Named("status"),
		broadcast: make(chan *status, 16),
		clients:   make(map[*client]bool),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case s := <-h.broadcast:
			data, err := json.Marshal(s)
			if err != nil {
				h.log.Error("failed to marshal status", zap.Error(err))
				continue
			}
			h.lock.Lock()
			h.last = data
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					h.log.Debug("dropping status for slow client")
				}
			}
			h.lock.Unlock()
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.lock.Lock()
		defer h.lock.Unlock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	})
}

func (h *Hub) registerClient(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.clients[c] = true
	if h.last != nil {
		c.send <- h.last
	}
}

func (h *Hub) unregisterClient(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *Hub) NewClient(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, send: make(chan []byte, 32)}
	h.registerClient(c)
	go c.writePump()
	go c.readPump()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	h.NewClient(conn)
}

func (h *Hub) send(s *status) {
	select {
	case h.broadcast <- s:
	case <-h.done:
	}
}

func (h *Hub) Status(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	h.send(&status{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress})
}

func (h *Hub) Info(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func (h *Hub) Error(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func (h *Hub) Progress(progress float32, format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}

func (h *Hub) Warning(file string, w elu.Warning) {
	h.send(&status{
		Message: w.String(),
		Time:    time.Now(),
		Type:    WARNING,
		File:    file,
		Warning: &w,
	})
}

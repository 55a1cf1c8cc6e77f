package web

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"simpletodo/internal/logging"
	"simpletodo/internal/service"
)

const (
	// KindSnapshot is the first message on every feed: the full list.
	KindSnapshot = "snapshot"

	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	sendBufferSize = 32
	maxInboundSize = 512
)

// eventMessage is the wire form of a change event: the kind and the affected task.
type eventMessage struct {
	Kind string   `json:"kind"`
	Task taskJSON `json:"task"`
}

// snapshotMessage opens every feed. Tasks is always present, [] when empty.
type snapshotMessage struct {
	Kind  string     `json:"kind"`
	Tasks []taskJSON `json:"tasks"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// client is one websocket subscriber.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (cl *client) close() {
	cl.once.Do(func() {
		close(cl.done)
		cl.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		cl.conn.Close()
	})
}

// hub fans repository events out to websocket clients.
type hub struct {
	svc service.Service
	log *logging.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(svc service.Service, log *logging.Logger) *hub {
	return &hub{
		svc:     svc,
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// register adds cl and queues the snapshot before any later event.
// The snapshot is taken under mu: broadcast needs mu to enqueue, so a
// mutation the snapshot misses reaches cl as an event. One that lands between
// the write and its broadcast may appear in both.
func (h *hub) register(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg, err := json.Marshal(snapshotMessage{Kind: KindSnapshot, Tasks: toJSONList(h.svc.List())})
	if err != nil {
		h.log.Error("encode snapshot", logging.Fields{"error": err.Error()})
		return
	}
	h.clients[cl] = struct{}{}
	cl.send <- msg
}

func (h *hub) unregister(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	cl.close()
}

// broadcast is the repository observer. Clients that cannot keep up are dropped.
func (h *hub) broadcast(ev service.Event) {
	msg, err := json.Marshal(eventMessage{Kind: string(ev.Kind), Task: toJSON(ev.Task)})
	if err != nil {
		h.log.Error("encode event", logging.Fields{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			h.log.Warn("dropping slow websocket client")
			delete(h.clients, cl)
			go cl.close()
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for cl := range clients {
		cl.close()
	}
}

func (s *Server) handleEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.log.Debug("websocket upgrade failed", logging.Fields{"error": err.Error()})
		return
	}
	conn.SetReadLimit(maxInboundSize)

	cl := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	s.hub.register(cl)
	defer s.hub.unregister(cl)

	go writeLoop(cl)

	// The feed is one-way; reading only detects the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeLoop(cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case msg := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				cl.close()
				return
			}
		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				cl.close()
				return
			}
		}
	}
}

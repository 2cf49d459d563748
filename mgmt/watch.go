package mgmt

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

// event is one frame of the /watch stream: a route add or remove.
type event struct {
	Kind         string `json:"kind"` // "route-add" | "route-remove"
	Name         string `json:"name"`
	ConnectionId uint32 `json:"connection_id"`
}

// eventHub fans out route-change events to every connected /watch
// client. It implements table.Readvertiser so the FIB's route changes
// reach it without the FIB depending on mgmt.
type eventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan event
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*websocket.Conn]chan event)}
}

// Announce implements table.Readvertiser.
func (h *eventHub) Announce(name pkt.Name, c *conn.Connection) {
	h.publish(event{Kind: "route-add", Name: name.String(), ConnectionId: c.ID()})
}

// Withdraw implements table.Readvertiser.
func (h *eventHub) Withdraw(name pkt.Name, c *conn.Connection) {
	h.publish(event{Kind: "route-remove", Name: name.String(), ConnectionId: c.ID()})
}

func (h *eventHub) publish(e event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- e:
		default:
			// Slow client: drop the event rather than block the FIB's
			// writer goroutine.
		}
	}
}

func (h *eventHub) add(c *websocket.Conn) chan event {
	ch := make(chan event, 64)
	h.mu.Lock()
	h.clients[c] = ch
	h.mu.Unlock()
	return ch
}

func (h *eventHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[c]; ok {
		close(ch)
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWatch upgrades to a WebSocket and streams events until the
// client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close()

	ch := s.hub.add(c)
	defer s.hub.remove(c)

	// Drain client reads on a separate goroutine purely to notice
	// disconnects (gorilla/websocket requires reading to detect a
	// close frame); this endpoint is write-only from the server's side.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

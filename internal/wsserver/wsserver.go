// Package wsserver pushes patch batches to connected browsers over
// WebSocket, grounded on the teacher's Broadcaster / broadcaster /
// writeUpdateWebSocket trio (mount.go) — adapted to push a
// []patch.Patch JSON frame per route instead of a rendered tree update.
package wsserver

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/bearcove/hotmeal/internal/patch"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans patch batches for a route out to every connection currently
// subscribed to it.
type Hub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]bool)}
}

// Handler upgrades the request to a WebSocket and registers it under the
// route named by the "route" query parameter, removing it on disconnect.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("route")
	if route == "" {
		route = "/"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hotmeal: wsserver: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	if h.conns[route] == nil {
		h.conns[route] = make(map[*websocket.Conn]bool)
	}
	h.conns[route][conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns[route], conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// The client never sends anything meaningful; block on reads purely
	// to notice disconnects and keep the handler (and its defer) alive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes patches to every connection subscribed to route.
func (h *Hub) Broadcast(route string, patches []patch.Patch) error {
	body, err := patch.MarshalPatches(patches)
	if err != nil {
		return err
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns[route]))
	for c := range h.conns[route] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, body); err != nil {
			log.Printf("hotmeal: wsserver: write to %s failed: %v", route, err)
		}
	}
	return nil
}

